package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/guardrail-oss/guardrail/internal/route"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var (
	routeTool  string
	routeTasks []string
	routeJSON  bool
)

var routeCmd = &cobra.Command{
	Use:   "route [output]",
	Short: "Route tool output through completion detection",
	Long: `Score tool output and apply the three-way confidence routing:
auto-complete, flag for review, or skip. The decision is recorded in
the audit trail. Reads stdin when no argument is given.

Examples:
  guardrail route --tool bash "deployment complete"
  guardrail route --tool bash --task "deploy the api service" "deployed to prod"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeTool, "tool", "bash", "tool that produced the output")
	routeCmd.Flags().StringArrayVar(&routeTasks, "task", nil, "in-progress task content (repeatable)")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "output as JSON")
}

func runRoute(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	for i, content := range routeTasks {
		client.Tracker().Add(&route.Task{
			ID:      fmt.Sprintf("task-%d", i+1),
			Content: content,
			Status:  "in_progress",
		})
	}

	result, err := client.RouteCompletion(cmd.Context(), routeTool, input)
	if err != nil {
		return err
	}

	if routeJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("Action taken: %t\n", result.ActionTaken)
	fmt.Printf("Confidence:   %d\n", result.Confidence)
	if result.NewStatus != "" {
		fmt.Printf("New status:   %s\n", result.NewStatus)
	}
	fmt.Printf("Reason:       %s\n", result.Reason)
	if result.EventID != "" {
		fmt.Printf("Event:        %s\n", result.EventID)
	}
	return nil
}

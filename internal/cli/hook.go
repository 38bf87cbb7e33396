package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/guardrail-oss/guardrail/internal/hook"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var (
	hookStatus   int
	hookDuration time.Duration
	hookResponse string
	hookTaskID   string
	hookJSON     bool
)

var hookCmd = &cobra.Command{
	Use:   "hook <started|completed|failed> <workflow>",
	Short: "Report a workflow lifecycle event",
	Long: `Report a workflow outcome to the reliability orchestrator. Completed
outcomes still run the classifier, so a slow success enters recovery.

Examples:
  guardrail hook started notion_sync
  guardrail hook completed notion_sync --status 200 --duration 3s
  guardrail hook failed notion_sync --status 504 --response "gateway timeout"`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"started", "completed", "failed"},
	RunE:      runHook,
}

func init() {
	hookCmd.Flags().IntVar(&hookStatus, "status", 0, "HTTP status code (0 for none)")
	hookCmd.Flags().DurationVar(&hookDuration, "duration", 0, "workflow execution duration")
	hookCmd.Flags().StringVar(&hookResponse, "response", "", "response body")
	hookCmd.Flags().StringVar(&hookTaskID, "task-id", "", "task the workflow was serving")
	hookCmd.Flags().BoolVar(&hookJSON, "json", false, "output as JSON")
}

func runHook(cmd *cobra.Command, args []string) error {
	phase, workflow := args[0], args[1]

	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	var statusCode *int
	if hookStatus != 0 {
		statusCode = &hookStatus
	}
	outcome := failure.Outcome{
		StatusCode:   statusCode,
		ResponseBody: hookResponse,
		Duration:     hookDuration,
		WorkflowName: workflow,
		TaskID:       hookTaskID,
	}

	var result hook.Result
	switch phase {
	case "started":
		result, err = client.OnWorkflowStarted(cmd.Context(), workflow)
	case "completed":
		result, err = client.OnWorkflowCompleted(cmd.Context(), outcome)
	case "failed":
		result, err = client.OnWorkflowFailed(cmd.Context(), outcome)
	default:
		return fmt.Errorf("unknown phase %q, expected started, completed, or failed", phase)
	}
	if err != nil {
		return err
	}

	if hookJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("Failure type: %s\n", result.FailureType)
	if result.Routing != nil {
		if result.Routing.Recovered() {
			fmt.Printf("Recovered via %s after %d attempt(s).\n",
				result.Routing.RecoveredVia, len(result.Routing.Attempts))
		} else {
			fmt.Printf("Recovery failed: %s\n", result.Routing.Reason)
		}
	}
	for _, id := range result.EventIDs {
		fmt.Printf("Event: %s\n", id)
	}
	return nil
}

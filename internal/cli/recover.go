package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var (
	recoverFailureType string
	recoverParams      []string
	recoverJSON        bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover <workflow>",
	Short: "Run the fallback chain for a failed workflow",
	Long: `Route a classified failure through the escalating fallback tiers.
Execution stops at the first tier that succeeds; exhausting every tier
is reported but is not a command error.

Examples:
  guardrail recover notion_sync --failure-type GATEWAY_TIMEOUT
  guardrail recover deploy_notify --param channel=ops --param urgency=high`,
	Args: cobra.ExactArgs(1),
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().StringVar(&recoverFailureType, "failure-type", string(failure.UnknownError), "classified failure type")
	recoverCmd.Flags().StringArrayVar(&recoverParams, "param", nil, "task parameter as key=value (repeatable)")
	recoverCmd.Flags().BoolVar(&recoverJSON, "json", false, "output as JSON")
}

func parseParams(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func runRecover(cmd *cobra.Command, args []string) error {
	params, err := parseParams(recoverParams)
	if err != nil {
		return err
	}

	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Recover(cmd.Context(), failure.Type(recoverFailureType), args[0], params)
	if err != nil {
		return err
	}

	if recoverJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result.Recovered() {
		fmt.Printf("Recovered via %s after %d attempt(s).\n", result.RecoveredVia, len(result.Attempts))
	} else {
		fmt.Printf("Recovery failed: %s\n", result.Reason)
	}
	for _, attempt := range result.Attempts {
		status := "failed"
		if attempt.Success {
			status = "ok"
		}
		fmt.Printf("  #%d %-14s %-6s %.2fs", attempt.AttemptNumber, attempt.AttemptMethod, status, attempt.ExecutionSeconds)
		if attempt.ErrorMessage != "" {
			fmt.Printf("  %s", attempt.ErrorMessage)
		}
		fmt.Println()
	}
	if result.EventID != "" {
		fmt.Printf("Event: %s\n", result.EventID)
	}
	return nil
}

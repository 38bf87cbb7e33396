package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/spf13/cobra"
)

var (
	classifyStatus   int
	classifyDuration time.Duration
	classifyJSON     bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [response]",
	Short: "Classify a workflow outcome",
	Long: `Map a workflow outcome (status code, response body, duration) to
exactly one failure type. Reads the response body from stdin when no
argument is given.

Examples:
  guardrail classify --status 504 --duration 2s "upstream timed out"
  guardrail classify --status 200 --duration 35s ""`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyStatus, "status", 0, "HTTP status code (0 for none)")
	classifyCmd.Flags().DurationVar(&classifyDuration, "duration", 0, "workflow execution duration")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	response, err := readInput(args)
	if err != nil {
		return err
	}

	var statusCode *int
	if classifyStatus != 0 {
		statusCode = &classifyStatus
	}

	failureType := failure.Classify(statusCode, response, classifyDuration)

	if classifyJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"failure_type": failureType,
			"is_failure":   failureType.IsFailure(),
		})
	}

	fmt.Println(failureType)
	return nil
}

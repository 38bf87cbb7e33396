package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/guardrail-oss/guardrail/internal/detect"
	"github.com/spf13/cobra"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect [output]",
	Short: "Score tool output for completion signals",
	Long: `Run keyword detection over a block of tool output and print the
highest-confidence match. Reads stdin when no argument is given.

Examples:
  guardrail detect "git commit -m 'fix parser'"
  some-tool 2>&1 | guardrail detect --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "output as JSON")
}

func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	detector := detect.NewDetector()
	result, ok := detector.Detect(input)

	if detectJSON {
		payload := map[string]interface{}{"detected": ok}
		if ok {
			payload["result"] = result
		}
		return json.NewEncoder(os.Stdout).Encode(payload)
	}

	if !ok {
		fmt.Println("No completion signal detected.")
		return nil
	}

	fmt.Printf("Keyword:    %s\n", result.Keyword)
	fmt.Printf("Category:   %s\n", result.Category)
	fmt.Printf("Confidence: %d\n", result.Confidence)
	if result.Context != "" {
		fmt.Printf("Context:    %s\n", result.Context)
	}
	return nil
}

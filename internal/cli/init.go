package cli

import (
	"fmt"

	"github.com/guardrail-oss/guardrail/internal/config"
	"github.com/spf13/cobra"
)

var initName string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new guardrail project",
	Long: `Scaffold a guardrail.yaml with sensible defaults.

Examples:
  guardrail init                 # Use the directory name as project name
  guardrail init --name autopilot`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "project name")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.Init(".", initName)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit guardrail.yaml mappings to point workflows at recovery tasks")
	fmt.Println("  2. Pipe tool output through 'guardrail route' to detect completions")
	fmt.Println("  3. Report workflow outcomes with 'guardrail hook completed|failed'")
	return nil
}

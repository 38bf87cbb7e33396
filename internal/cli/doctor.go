package cli

import (
	"fmt"
	"runtime"
	"time"

	"github.com/guardrail-oss/guardrail/internal/config"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and configuration",
	Long:  "Validate that the configuration, event store, and fallback tiers are properly set up.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("guardrail doctor — checking your setup")
	fmt.Println()
	allOK := true

	// 1. Go version
	fmt.Printf("  Go version: %s", runtime.Version())
	fmt.Println(" ✓")

	// 2. OS/Arch
	fmt.Printf("  Platform:   %s/%s", runtime.GOOS, runtime.GOARCH)
	fmt.Println(" ✓")

	// 3. Configuration
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Printf("  Config:     INVALID ✗\n    → %v\n", err)
		allOK = false
	} else {
		fmt.Printf("  Config:     %s v%s", cfg.Name, cfg.Version)
		fmt.Println(" ✓")
	}

	// 4. Event store
	if cfg != nil {
		client, err := guardrail.OpenWithConfig(".", cfg)
		if err != nil {
			fmt.Printf("  Store:      FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			if _, err := client.Events(event.Filter{Limit: 1}); err != nil {
				fmt.Printf("  Store:      QUERY FAILED (%s) ✗\n", err)
				allOK = false
			} else {
				fmt.Printf("  Store:      %s (%s)", cfg.Store.Driver, cfg.Store.Path)
				fmt.Println(" ✓")
			}
			client.Close()
		}

		// 5. Fallback tiers
		if len(cfg.Tiers) == 0 {
			fmt.Println("  Tiers:      NONE CONFIGURED ✗")
			fmt.Println("    → Add at least one tier to guardrail.yaml")
			allOK = false
		} else {
			fmt.Printf("  Tiers:      %d configured", len(cfg.Tiers))
			fmt.Println(" ✓")
			for _, tier := range cfg.Tiers {
				timeout := tier.Timeout
				if d, err := time.ParseDuration(tier.Timeout); err == nil {
					timeout = d.String()
				}
				fmt.Printf("    %-14s %-9s timeout %s\n", tier.Name, tier.Kind, timeout)
			}
		}

		// 6. Workflow mappings
		if len(cfg.Mappings) == 0 {
			fmt.Println("  Mappings:   none (recoveries will fail as unmapped)")
		} else {
			fmt.Printf("  Mappings:   %d workflow(s)", len(cfg.Mappings))
			fmt.Println(" ✓")
			for _, name := range cfg.MappingList() {
				fmt.Printf("    %-14s -> %s\n", name, cfg.Mappings[name])
			}
		}
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}

	return nil
}

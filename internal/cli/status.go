package cli

import (
	"fmt"
	"time"

	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent reliability activity",
	Long: `Summarize the audit trail: recent failures, recovery outcomes, and
completion routing decisions.

Examples:
  guardrail status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	events, err := client.Events(event.Filter{Limit: 200})
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	byType := map[event.Type]int{}
	unresolved := 0
	for _, ev := range events {
		byType[ev.Type]++
		if ev.Type == event.FailureDetected && ev.ResolvedAt == nil {
			unresolved++
		}
	}

	fmt.Printf("Project: %s\n", client.Config().Name)
	fmt.Println()
	fmt.Println("Recent activity:")
	for _, t := range []event.Type{
		event.WorkflowStarted,
		event.CompletionDetected,
		event.CompletionPendingReview,
		event.CompletionSkipped,
		event.FailureDetected,
		event.RecoveryAttempted,
	} {
		if byType[t] > 0 {
			fmt.Printf("  %-26s %d\n", t, byType[t])
		}
	}
	if unresolved > 0 {
		fmt.Printf("\n%d unresolved failure(s). Inspect with 'guardrail events list --type failure-detected'\n", unresolved)
	}

	fmt.Println()
	fmt.Println("Latest events:")
	limit := 5
	if len(events) < limit {
		limit = len(events)
	}
	for _, ev := range events[:limit] {
		fmt.Printf("  %s  %-26s %-14s %s\n",
			ev.ID[:8], ev.Type, ev.Status, ev.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

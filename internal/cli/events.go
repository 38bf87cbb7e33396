package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var (
	eventsType   string
	eventsStatus string
	eventsSince  time.Duration
	eventsLimit  int
	eventsJSON   bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the audit trail",
	Long: `List, show, and resolve automation events. Events are append-only:
resolving an event is the only permitted mutation, and only once.

Examples:
  guardrail events list --type failure-detected --since 24h
  guardrail events show 4f1c...
  guardrail events resolve 4f1c...`,
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent events, newest first",
	RunE:  runEventsList,
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one event in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsShow,
}

var eventsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark an event as resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsResolve,
}

func init() {
	eventsListCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type")
	eventsListCmd.Flags().StringVar(&eventsStatus, "status", "", "filter by status")
	eventsListCmd.Flags().DurationVar(&eventsSince, "since", 0, "only events newer than this (e.g. 24h)")
	eventsListCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "maximum events to show")
	eventsListCmd.Flags().BoolVar(&eventsJSON, "json", false, "output as JSON")
	eventsShowCmd.Flags().BoolVar(&eventsJSON, "json", false, "output as JSON")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsResolveCmd)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	filter := event.Filter{
		Type:   event.Type(eventsType),
		Status: event.Status(eventsStatus),
		Limit:  eventsLimit,
	}
	if eventsSince > 0 {
		filter.Since = time.Now().UTC().Add(-eventsSince)
	}

	events, err := client.Events(filter)
	if err != nil {
		return err
	}

	if eventsJSON {
		return json.NewEncoder(os.Stdout).Encode(events)
	}

	if len(events) == 0 {
		fmt.Println("No events found.")
		return nil
	}

	for _, ev := range events {
		resolved := " "
		if ev.ResolvedAt != nil {
			resolved = "✓"
		}
		fmt.Printf("%s %s  %-26s %-14s %s\n",
			resolved,
			ev.ID[:8],
			ev.Type,
			ev.Status,
			ev.CreatedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runEventsShow(cmd *cobra.Command, args []string) error {
	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	ev, err := client.Event(args[0])
	if err != nil {
		return err
	}

	if eventsJSON {
		return json.NewEncoder(os.Stdout).Encode(ev)
	}

	fmt.Printf("ID:         %s\n", ev.ID)
	fmt.Printf("Type:       %s\n", ev.Type)
	fmt.Printf("Project:    %s\n", ev.ProjectID)
	fmt.Printf("Status:     %s\n", ev.Status)
	fmt.Printf("Source:     %s\n", ev.DetectedFrom)
	fmt.Printf("Created:    %s\n", ev.CreatedAt.Format(time.RFC3339))
	if ev.ResolvedAt != nil {
		fmt.Printf("Resolved:   %s\n", ev.ResolvedAt.Format(time.RFC3339))
	}
	if len(ev.Evidence) > 0 {
		evidence, _ := json.MarshalIndent(ev.Evidence, "  ", "  ")
		fmt.Printf("Evidence:   %s\n", evidence)
	}
	if correlated := ev.CorrelatedWith(); len(correlated) > 0 {
		fmt.Printf("Correlated: %v\n", correlated)
	}
	return nil
}

func runEventsResolve(cmd *cobra.Command, args []string) error {
	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.ResolveEvent(args[0]); err != nil {
		return err
	}
	fmt.Printf("Resolved %s\n", args[0])
	return nil
}

package testutil

import (
	"testing"
	"time"

	"github.com/guardrail-oss/guardrail/internal/detect"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/fallback"
	"github.com/guardrail-oss/guardrail/internal/hook"
	"github.com/guardrail-oss/guardrail/internal/route"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// TestHarness provides everything needed for integration tests:
// an in-memory store, recorder, detector, routers, and orchestrator.
type TestHarness struct {
	T            *testing.T
	Store        *event.MemoryStore
	Recorder     *event.Recorder
	Detector     *detect.Detector
	Tracker      *route.MemoryTracker
	Router       *route.Router
	Fallback     *fallback.Router
	Orchestrator *hook.Orchestrator
	Logger       *telemetry.Logger
	Metrics      *telemetry.Metrics
	Tiers        []*MockTier
}

// HarnessOptions tunes harness construction.
type HarnessOptions struct {
	ProjectID string
	Mappings  map[string]string
	Tiers     []*MockTier
}

// NewTestHarness wires the full reliability stack against in-memory fakes.
func NewTestHarness(t *testing.T, opts HarnessOptions) *TestHarness {
	t.Helper()

	if opts.ProjectID == "" {
		opts.ProjectID = "test-project"
	}
	if opts.Mappings == nil {
		opts.Mappings = map[string]string{"test_workflow": "test_task"}
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = []*MockTier{{TierName: "direct", TierBudget: time.Second}}
	}

	logger := TestLogger()
	metrics := telemetry.NewMetrics()
	store := event.NewMemoryStore()
	recorder := event.NewRecorder(store, logger, metrics)
	detector := detect.NewDetector()
	tracker := route.NewMemoryTracker()

	router := route.NewRouter(detector, tracker, recorder, logger, metrics, route.Options{
		ProjectID: opts.ProjectID,
	})

	executors := make([]fallback.Executor, len(opts.Tiers))
	for i, tier := range opts.Tiers {
		executors[i] = tier
	}
	fb := fallback.NewRouter(opts.Mappings, executors, recorder, logger, metrics, opts.ProjectID)
	orchestrator := hook.NewOrchestrator(fb, recorder, logger, metrics, opts.ProjectID)

	return &TestHarness{
		T:            t,
		Store:        store,
		Recorder:     recorder,
		Detector:     detector,
		Tracker:      tracker,
		Router:       router,
		Fallback:     fb,
		Orchestrator: orchestrator,
		Logger:       logger,
		Metrics:      metrics,
		Tiers:        opts.Tiers,
	}
}

// EventsOfType returns captured events of one type, newest first.
func (h *TestHarness) EventsOfType(t event.Type) []*event.AutomationEvent {
	h.T.Helper()
	events, err := h.Store.Query(event.Filter{Type: t})
	if err != nil {
		h.T.Fatalf("query events: %v", err)
	}
	return events
}

// AssertEventCount fails the test unless exactly n events of the type exist.
func (h *TestHarness) AssertEventCount(t event.Type, n int) {
	h.T.Helper()
	events := h.EventsOfType(t)
	if len(events) != n {
		h.T.Fatalf("got %d %s events, want %d", len(events), t, n)
	}
}

// TestLogger returns a quiet logger for tests.
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(false)
}

// Package guardrail provides a public API for the automation reliability layer.
//
// Example usage:
//
//	import "github.com/guardrail-oss/guardrail/pkg/guardrail"
//
//	client, err := guardrail.Open(".")
//	defer client.Close()
//
//	// Route a block of tool output through completion detection
//	result, err := client.RouteCompletion(ctx, "bash", output)
//
//	// Report a workflow outcome; failures enter the fallback chain
//	res, err := client.OnWorkflowCompleted(ctx, outcome)
package guardrail

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guardrail-oss/guardrail/internal/config"
	"github.com/guardrail-oss/guardrail/internal/detect"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/guardrail-oss/guardrail/internal/fallback"
	"github.com/guardrail-oss/guardrail/internal/hook"
	"github.com/guardrail-oss/guardrail/internal/route"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// Client bundles the reliability components wired from one configuration.
type Client struct {
	cfg          *config.Config
	logger       *telemetry.Logger
	metrics      *telemetry.Metrics
	store        event.Store
	recorder     *event.Recorder
	detector     *detect.Detector
	tracker      *route.MemoryTracker
	router       *route.Router
	fallback     *fallback.Router
	orchestrator *hook.Orchestrator
}

// Open loads guardrail.yaml from dir and wires all components.
func Open(dir string) (*Client, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return OpenWithConfig(dir, cfg)
}

// OpenWithConfig wires all components from an already-loaded configuration.
func OpenWithConfig(dir string, cfg *config.Config) (*Client, error) {
	logger := telemetry.NewLoggerWithFormat(cfg.Logging.Level == "debug", cfg.Logging.Format)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(filepath.Join(dir, cfg.Logging.File)); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	metrics := telemetry.NewMetrics()
	if cfg.Metrics.Enabled {
		exporter, err := telemetry.NewJSONFileExporter(filepath.Join(dir, cfg.Metrics.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to open metrics file: %w", err)
		}
		metrics.SetExporter(exporter)
	}

	store, err := openStore(dir, cfg)
	if err != nil {
		return nil, err
	}

	recorder := event.NewRecorder(store, logger, metrics)
	detector := detect.NewDetector()
	tracker := route.NewMemoryTracker()

	router := route.NewRouter(detector, tracker, recorder, logger, metrics, route.Options{
		ProjectID:             cfg.Name,
		AllowedTools:          cfg.Router.AllowedTools,
		AutoCompleteThreshold: cfg.Router.AutoCompleteThreshold,
		ReviewThreshold:       cfg.Router.ReviewThreshold,
	})

	tiers, err := buildTiers(cfg.Tiers)
	if err != nil {
		store.Close()
		return nil, err
	}

	fb := fallback.NewRouter(cfg.Mappings, tiers, recorder, logger, metrics, cfg.Name)
	orchestrator := hook.NewOrchestrator(fb, recorder, logger, metrics, cfg.Name)

	return &Client{
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
		store:        store,
		recorder:     recorder,
		detector:     detector,
		tracker:      tracker,
		router:       router,
		fallback:     fb,
		orchestrator: orchestrator,
	}, nil
}

func openStore(dir string, cfg *config.Config) (event.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return event.NewMemoryStore(), nil
	default:
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		store, err := event.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %w", err)
		}
		return store, nil
	}
}

func buildTiers(specs []config.TierConfig) ([]fallback.Executor, error) {
	tiers := make([]fallback.Executor, 0, len(specs))
	for _, spec := range specs {
		var exec fallback.Executor
		switch spec.Kind {
		case "inprocess":
			exec = fallback.NewInProcessExecutor()
		case "http":
			exec = fallback.NewHTTPExecutor(spec.URL, spec.Headers)
		case "process":
			exec = fallback.NewProcessExecutor(spec.Command)
		default:
			return nil, fmt.Errorf("unknown tier kind %q", spec.Kind)
		}
		if spec.Timeout != "" {
			d, err := time.ParseDuration(spec.Timeout)
			if err != nil {
				return nil, fmt.Errorf("tier %s: invalid timeout %q", spec.Name, spec.Timeout)
			}
			if t, ok := exec.(interface{ SetTimeout(time.Duration) }); ok {
				t.SetTimeout(d)
			}
		}
		if spec.Name != "" && spec.Name != exec.Name() {
			exec = namedTier{Executor: exec, name: spec.Name}
		}
		tiers = append(tiers, exec)
	}
	return tiers, nil
}

// namedTier overrides an executor's name so attempt records carry the
// tier name from guardrail.yaml.
type namedTier struct {
	fallback.Executor
	name string
}

func (t namedTier) Name() string { return t.name }

// Config returns the loaded configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Tracker returns the in-memory task tracker consulted by the completion router.
func (c *Client) Tracker() *route.MemoryTracker { return c.tracker }

// Detect scores a block of tool output for completion signals.
func (c *Client) Detect(output string) (detect.Result, bool) {
	return c.detector.Detect(output)
}

// RouteCompletion runs detection on tool output and applies the
// three-way confidence routing, recording an audit event.
func (c *Client) RouteCompletion(ctx context.Context, toolName, output string) (route.RouteResult, error) {
	return c.router.Route(ctx, toolName, output)
}

// Classify maps a workflow outcome to a failure type without side effects.
func (c *Client) Classify(statusCode *int, response string, duration time.Duration) failure.Type {
	return failure.Classify(statusCode, response, duration)
}

// Recover runs the fallback chain directly for an already-classified failure.
func (c *Client) Recover(ctx context.Context, failureType failure.Type, workflowName string,
	params map[string]interface{}) (fallback.RoutingResult, error) {
	return c.fallback.Recover(ctx, failureType, workflowName, params)
}

// OnWorkflowStarted records the start of a workflow run.
func (c *Client) OnWorkflowStarted(ctx context.Context, workflowName string) (hook.Result, error) {
	return c.orchestrator.OnStarted(ctx, workflowName)
}

// OnWorkflowCompleted classifies a nominally successful outcome and enters
// recovery when the classifier disagrees with the status code.
func (c *Client) OnWorkflowCompleted(ctx context.Context, outcome failure.Outcome) (hook.Result, error) {
	return c.orchestrator.OnCompleted(ctx, outcome)
}

// OnWorkflowFailed classifies a failed outcome and runs the fallback chain.
func (c *Client) OnWorkflowFailed(ctx context.Context, outcome failure.Outcome) (hook.Result, error) {
	return c.orchestrator.OnFailed(ctx, outcome)
}

// Events queries the audit trail.
func (c *Client) Events(filter event.Filter) ([]*event.AutomationEvent, error) {
	return c.store.Query(filter)
}

// Event fetches a single audit event by ID.
func (c *Client) Event(id string) (*event.AutomationEvent, error) {
	return c.store.Get(id)
}

// ResolveEvent marks an audit event as resolved. Resolution is the only
// mutation the store permits, and only once per event.
func (c *Client) ResolveEvent(id string) error {
	return c.store.Resolve(id, time.Now().UTC())
}

// Metrics returns a point-in-time summary of counters.
func (c *Client) Metrics() map[string]interface{} {
	return c.metrics.GetSummary()
}

// Close flushes metrics and releases the event store.
func (c *Client) Close() error {
	c.metrics.Flush("shutdown", nil)
	return c.store.Close()
}

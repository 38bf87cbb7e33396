// Package route turns detector output into bounded-risk tracker actions.
package route

import (
	"context"

	"github.com/guardrail-oss/guardrail/internal/detect"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// Default confidence thresholds. The tri-state split converts a continuous
// score into auto-act / flag-for-human / ignore.
const (
	DefaultAutoCompleteThreshold = 80
	DefaultReviewThreshold       = 60
)

// defaultAllowedTools are the tool categories eligible as completion sources.
var defaultAllowedTools = []string{"bash", "edit", "write", "task"}

// Options configures a Router.
type Options struct {
	ProjectID             string
	AllowedTools          []string
	AutoCompleteThreshold int
	ReviewThreshold       int
}

// RouteResult describes the action taken for one block of tool output.
type RouteResult struct {
	ActionTaken bool   `json:"action_taken"`
	TodoUpdated bool   `json:"todo_updated"`
	NewStatus   string `json:"new_status,omitempty"`
	Confidence  int    `json:"confidence"`
	EventID     string `json:"event_id,omitempty"`
	Reason      string `json:"reason"`
}

// Router consumes detector output and applies the confidence thresholds.
type Router struct {
	detector  *detect.Detector
	tracker   Tracker
	recorder  *event.Recorder
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	projectID string
	allowed   map[string]bool
	autoAt    int
	reviewAt  int
}

// NewRouter creates a completion router. All collaborators are injected;
// recorder, logger and metrics may be nil.
func NewRouter(detector *detect.Detector, tracker Tracker, recorder *event.Recorder,
	logger *telemetry.Logger, metrics *telemetry.Metrics, opts Options) *Router {

	tools := opts.AllowedTools
	if len(tools) == 0 {
		tools = defaultAllowedTools
	}
	allowed := make(map[string]bool, len(tools))
	for _, tool := range tools {
		allowed[tool] = true
	}

	autoAt := opts.AutoCompleteThreshold
	if autoAt == 0 {
		autoAt = DefaultAutoCompleteThreshold
	}
	reviewAt := opts.ReviewThreshold
	if reviewAt == 0 {
		reviewAt = DefaultReviewThreshold
	}

	return &Router{
		detector:  detector,
		tracker:   tracker,
		recorder:  recorder,
		logger:    logger,
		metrics:   metrics,
		projectID: opts.ProjectID,
		allowed:   allowed,
		autoAt:    autoAt,
		reviewAt:  reviewAt,
	}
}

// Route inspects one block of tool output and updates the external task
// tracker according to the confidence thresholds:
//
//	confidence >= auto    -> mark task complete
//	review <= c < auto    -> mark task pending_review
//	confidence < review   -> no action
//
// Every branch except an ineligible tool emits exactly one audit event.
func (r *Router) Route(ctx context.Context, toolName, output string) (RouteResult, error) {
	if !r.allowed[toolName] {
		r.debug("tool not eligible for completion signals", "tool", toolName)
		return RouteResult{Reason: "tool not in allow-list"}, nil
	}

	res, ok := r.detector.Detect(output)
	if !ok {
		id, err := r.record(event.New(event.CompletionSkipped, r.projectID, event.StatusSkipped,
			event.SourceRouter, map[string]interface{}{
				"tool":   toolName,
				"reason": "no keyword detected",
			}))
		if err != nil {
			return RouteResult{}, err
		}
		r.incSkips()
		return RouteResult{EventID: id, Reason: "no keyword detected"}, nil
	}

	if r.metrics != nil {
		r.metrics.IncDetections()
	}

	switch {
	case res.Confidence >= r.autoAt:
		return r.autoComplete(ctx, toolName, res)
	case res.Confidence >= r.reviewAt:
		return r.flagForReview(ctx, toolName, res)
	default:
		id, err := r.record(event.New(event.CompletionSkipped, r.projectID, event.StatusSkipped,
			event.SourceRouter, map[string]interface{}{
				"tool":       toolName,
				"keyword":    res.Keyword,
				"category":   string(res.Category),
				"confidence": res.Confidence,
				"reason":     "confidence too low",
			}))
		if err != nil {
			return RouteResult{}, err
		}
		r.incSkips()
		return RouteResult{Confidence: res.Confidence, EventID: id, Reason: "confidence too low"}, nil
	}
}

func (r *Router) autoComplete(ctx context.Context, toolName string, res detect.Result) (RouteResult, error) {
	task, err := r.tracker.FindTask(ctx, Criteria{Keyword: res.Keyword, Category: string(res.Category)})
	if err != nil {
		r.warn("task lookup failed", "error", err)
		task = nil
	}

	evidence := map[string]interface{}{
		"tool":            toolName,
		"keyword":         res.Keyword,
		"category":        string(res.Category),
		"confidence":      res.Confidence,
		"context_snippet": res.Context,
	}

	if task == nil {
		// Detection succeeded but there was nothing to update. Not an error.
		evidence["reason"] = "no matching task found"
		evidence["todo_updated"] = false

		id, err := r.record(event.New(event.CompletionDetected, r.projectID, event.StatusSuccess,
			event.SourceRouter, evidence))
		if err != nil {
			return RouteResult{}, err
		}
		return RouteResult{
			ActionTaken: true,
			Confidence:  res.Confidence,
			EventID:     id,
			Reason:      "no matching task found",
		}, nil
	}

	oldStatus := task.Status
	updated := true
	if err := r.tracker.UpdateStatus(ctx, task.ID, "completed"); err != nil {
		r.warn("task update failed", "task_id", task.ID, "error", err)
		updated = false
	}

	evidence["task_id"] = task.ID
	evidence["old_status"] = oldStatus
	evidence["new_status"] = "completed"
	evidence["todo_updated"] = updated

	id, err := r.record(event.New(event.CompletionDetected, r.projectID, event.StatusSuccess,
		event.SourceRouter, evidence))
	if err != nil {
		return RouteResult{}, err
	}

	if r.metrics != nil && updated {
		r.metrics.IncCompletionsRouted()
	}

	return RouteResult{
		ActionTaken: true,
		TodoUpdated: updated,
		NewStatus:   "completed",
		Confidence:  res.Confidence,
		EventID:     id,
		Reason:      "auto-completed",
	}, nil
}

func (r *Router) flagForReview(ctx context.Context, toolName string, res detect.Result) (RouteResult, error) {
	task, err := r.tracker.FindTask(ctx, Criteria{Keyword: res.Keyword, Category: string(res.Category)})
	if err != nil {
		r.warn("task lookup failed", "error", err)
		task = nil
	}

	evidence := map[string]interface{}{
		"tool":            toolName,
		"keyword":         res.Keyword,
		"category":        string(res.Category),
		"confidence":      res.Confidence,
		"context_snippet": res.Context,
	}

	updated := false
	if task != nil {
		if err := r.tracker.UpdateStatus(ctx, task.ID, "pending_review"); err != nil {
			r.warn("task update failed", "task_id", task.ID, "error", err)
		} else {
			updated = true
		}
		evidence["task_id"] = task.ID
	}
	evidence["todo_updated"] = updated

	id, err := r.record(event.New(event.CompletionPendingReview, r.projectID, event.StatusPendingReview,
		event.SourceRouter, evidence))
	if err != nil {
		return RouteResult{}, err
	}

	if r.metrics != nil {
		r.metrics.IncPendingReviews()
	}

	return RouteResult{
		ActionTaken: true,
		TodoUpdated: updated,
		NewStatus:   "pending_review",
		Confidence:  res.Confidence,
		EventID:     id,
		Reason:      "flagged for review",
	}, nil
}

func (r *Router) record(ev *event.AutomationEvent) (string, error) {
	return r.recorder.Record(ev)
}

func (r *Router) incSkips() {
	if r.metrics != nil {
		r.metrics.IncSkips()
	}
}

func (r *Router) warn(msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, keyvals...)
	}
}

func (r *Router) debug(msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, keyvals...)
	}
}

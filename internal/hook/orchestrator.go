// Package hook wires failure classification and tiered recovery around an
// external workflow's lifecycle.
package hook

import (
	"context"

	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/guardrail-oss/guardrail/internal/fallback"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// Result is the outcome of handling one workflow lifecycle signal.
type Result struct {
	FailureType failure.Type            `json:"failure_type"`
	Routing     *fallback.RoutingResult `json:"routing,omitempty"`
	EventIDs    []string                `json:"event_ids"`
}

// Orchestrator is a stateless state machine over the workflow lifecycle
// STARTED -> (COMPLETED | FAILED). It holds no state between invocations;
// persisted events are the only record of history, so independent
// workflows can be handled concurrently.
type Orchestrator struct {
	fallback  *fallback.Router
	recorder  *event.Recorder
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	projectID string
}

// NewOrchestrator creates a reliability orchestrator. Recorder, logger and
// metrics may be nil.
func NewOrchestrator(fb *fallback.Router, recorder *event.Recorder,
	logger *telemetry.Logger, metrics *telemetry.Metrics, projectID string) *Orchestrator {
	return &Orchestrator{
		fallback:  fb,
		recorder:  recorder,
		logger:    logger,
		metrics:   metrics,
		projectID: projectID,
	}
}

// OnStarted records the start of a workflow run.
func (o *Orchestrator) OnStarted(ctx context.Context, workflowName string) (Result, error) {
	id, err := o.recorder.Record(event.New(event.WorkflowStarted, o.projectID,
		event.StatusPending, event.SourceHook, map[string]interface{}{
			"workflow": workflowName,
		}))
	if err != nil {
		return Result{}, err
	}
	return Result{FailureType: failure.NoFailure, EventIDs: []string{id}}, nil
}

// OnCompleted handles a completion payload. The outcome is still run
// through the classifier: a success that blew the execution budget is
// operationally a failure and enters the recovery path.
func (o *Orchestrator) OnCompleted(ctx context.Context, outcome failure.Outcome) (Result, error) {
	failureType := failure.ClassifyOutcome(outcome)
	if failureType.IsFailure() {
		return o.recover(ctx, failureType, outcome)
	}

	id, err := o.recorder.Record(event.New(event.WorkflowCompleted, o.projectID,
		event.StatusSuccess, event.SourceHook, map[string]interface{}{
			"workflow":         outcome.WorkflowName,
			"task_id":          outcome.TaskID,
			"duration_seconds": outcome.Duration.Seconds(),
		}))
	if err != nil {
		return Result{}, err
	}
	return Result{FailureType: failure.NoFailure, EventIDs: []string{id}}, nil
}

// OnFailed classifies the outcome and, for an actual failure, runs the
// full fallback chain synchronously. The caller awaits the chain; worst
// case is bounded by the sum of tier timeouts.
func (o *Orchestrator) OnFailed(ctx context.Context, outcome failure.Outcome) (Result, error) {
	failureType := failure.ClassifyOutcome(outcome)
	if !failureType.IsFailure() {
		// Classifier found nothing actionable; record the completion.
		return o.OnCompleted(ctx, outcome)
	}
	return o.recover(ctx, failureType, outcome)
}

func (o *Orchestrator) recover(ctx context.Context, failureType failure.Type, outcome failure.Outcome) (Result, error) {
	if telemetry.TraceFromContext(ctx) == nil {
		tc := telemetry.NewTraceContext(o.projectID).WithWorkflow(outcome.WorkflowName)
		ctx = telemetry.ContextWithTrace(ctx, tc)
	}

	evidence := map[string]interface{}{
		"workflow":         outcome.WorkflowName,
		"task_id":          outcome.TaskID,
		"failure_type":     string(failureType),
		"duration_seconds": outcome.Duration.Seconds(),
		"response_snippet": snippet(outcome.ResponseBody),
	}
	if outcome.StatusCode != nil {
		evidence["status_code"] = *outcome.StatusCode
	}

	failureID, err := o.recorder.Record(event.New(event.FailureDetected, o.projectID,
		event.StatusFailed, event.SourceHook, evidence))
	if err != nil {
		return Result{}, err
	}

	if o.metrics != nil {
		o.metrics.IncFailuresDetected()
	}
	if o.logger != nil {
		o.logger.WithTrace(ctx).Info("workflow failure detected",
			"workflow", outcome.WorkflowName,
			"failure_type", string(failureType),
		)
	}

	params := map[string]interface{}{
		"task_id":      outcome.TaskID,
		"failure_type": string(failureType),
	}

	routing, recoverErr := o.fallback.Recover(ctx, failureType, outcome.WorkflowName, params, failureID)

	ids := []string{failureID}
	if routing.EventID != "" {
		ids = append(ids, routing.EventID)
	}

	result := Result{
		FailureType: failureType,
		Routing:     &routing,
		EventIDs:    ids,
	}
	if recoverErr != nil {
		return result, recoverErr
	}
	return result, nil
}

// snippet bounds response bodies stored as evidence.
func snippet(s string) string {
	const max = 500
	if len(s) > max {
		return s[:max]
	}
	return s
}

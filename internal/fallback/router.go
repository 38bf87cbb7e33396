package fallback

import (
	"context"
	"fmt"
	"time"

	guardrailErrors "github.com/guardrail-oss/guardrail/internal/errors"
	"github.com/guardrail-oss/guardrail/internal/event"
	"github.com/guardrail-oss/guardrail/internal/failure"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// RoutingResult is the outcome of one recovery.
//
// Routed=false means routing itself failed (a configuration bug: no
// workflow mapping). Routed=true with an empty RecoveredVia means routing
// succeeded but every tier failed (an operational incident). Downstream
// alerting depends on this distinction.
type RoutingResult struct {
	Routed       bool              `json:"routed"`
	RecoveredVia string            `json:"recovered_via,omitempty"`
	Attempts     []ExecutionResult `json:"attempts"`
	EventID      string            `json:"event_id,omitempty"`
	Reason       string            `json:"reason,omitempty"`
}

// Recovered reports whether any tier succeeded.
func (r RoutingResult) Recovered() bool {
	return r.Routed && r.RecoveredVia != ""
}

// Router attempts recovery through an ordered chain of tier executors,
// stopping at the first success.
type Router struct {
	mapping   map[string]string // workflow name -> internal task name
	tiers     []Executor
	recorder  *event.Recorder
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	projectID string
}

// NewRouter creates a fallback router. Tiers execute in slice order.
func NewRouter(mapping map[string]string, tiers []Executor, recorder *event.Recorder,
	logger *telemetry.Logger, metrics *telemetry.Metrics, projectID string) *Router {
	return &Router{
		mapping:   mapping,
		tiers:     tiers,
		recorder:  recorder,
		logger:    logger,
		metrics:   metrics,
		projectID: projectID,
	}
}

// Recover runs the fallback chain for a classified failure.
//
// Tiers execute sequentially, never in parallel: the chain fails fast on
// cheap tiers before escalating cost. A tier that exceeds its timeout is
// abandoned and counts as that tier's failure only. Exactly one summary
// event is emitted per recovery, carrying every attempt.
//
// An unmapped workflow is a hard error and runs no tiers. All tiers
// failing is not a Go error; the result carries the exhausted outcome.
func (r *Router) Recover(ctx context.Context, failureType failure.Type, workflowName string,
	params map[string]interface{}, correlate ...string) (RoutingResult, error) {

	start := time.Now()
	if r.metrics != nil {
		r.metrics.IncRecoveriesStarted()
	}

	taskName, ok := r.mapping[workflowName]
	if !ok {
		evidence := map[string]interface{}{
			"workflow":     workflowName,
			"failure_type": string(failureType),
			"routed":       false,
			"reason":       "no mapping",
		}
		ev := event.New(event.RecoveryAttempted, r.projectID,
			event.StatusFailed, event.SourceHook, evidence).CorrelateWith(correlate...)
		id, recErr := r.recorder.Record(ev)
		if recErr != nil {
			return RoutingResult{}, recErr
		}

		r.warn(ctx, "no task mapping for workflow", "workflow", workflowName)
		if r.metrics != nil {
			r.metrics.IncRecoveriesFailed()
		}

		result := RoutingResult{Routed: false, EventID: id, Reason: "no mapping"}
		return result, guardrailErrors.New(guardrailErrors.CodeWorkflowUnmapped,
			fmt.Sprintf("no task mapping for workflow: %s", workflowName)).
			WithSuggestion("Add the workflow under mappings: in guardrail.yaml")
	}

	attempts := make([]ExecutionResult, 0, len(r.tiers))
	recoveredVia := ""

	for i, tier := range r.tiers {
		if ctx.Err() != nil {
			break
		}

		attempt := r.attempt(ctx, tier, i+1, taskName, params)
		attempts = append(attempts, attempt)

		if attempt.Success {
			recoveredVia = tier.Name()
			break
		}

		r.debug(ctx, "tier failed, escalating",
			"workflow", workflowName,
			"tier", tier.Name(),
			"attempt", i+1,
			"error", attempt.ErrorMessage,
		)
	}

	elapsed := time.Since(start)

	status := event.StatusSuccess
	reason := "recovered"
	if recoveredVia == "" {
		status = event.StatusFailed
		reason = "all tiers exhausted"
	}

	evidence := map[string]interface{}{
		"workflow":           workflowName,
		"task":               taskName,
		"failure_type":       string(failureType),
		"routed":             true,
		"recovered_via":      recoveredVia,
		"attempts":           attemptsEvidence(attempts),
		"total_time_seconds": elapsed.Seconds(),
	}

	summary := event.New(event.RecoveryAttempted, r.projectID,
		status, event.SourceHook, evidence).CorrelateWith(correlate...)
	id, recErr := r.recorder.Record(summary)
	if recErr != nil {
		return RoutingResult{}, recErr
	}

	if r.metrics != nil {
		r.metrics.RecordRecoveryDuration(elapsed)
		if recoveredVia != "" {
			r.metrics.IncRecoveriesOK()
		} else {
			r.metrics.IncRecoveriesFailed()
		}
	}

	return RoutingResult{
		Routed:       true,
		RecoveredVia: recoveredVia,
		Attempts:     attempts,
		EventID:      id,
		Reason:       reason,
	}, nil
}

// attempt runs a single tier under its own timeout. An attempt that
// exceeds the timeout is abandoned: its goroutine result is discarded and
// the chain moves on.
func (r *Router) attempt(ctx context.Context, tier Executor, number int, taskName string,
	params map[string]interface{}) ExecutionResult {

	start := time.Now()
	tierCtx, cancel := context.WithTimeout(ctx, tier.Timeout())
	defer cancel()

	type outcome struct {
		summary string
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := tier.Execute(tierCtx, taskName, params)
		done <- outcome{summary: summary, err: err}
	}()

	result := ExecutionResult{
		AttemptMethod: tier.Name(),
		AttemptNumber: number,
	}

	select {
	case out := <-done:
		result.ExecutionSeconds = time.Since(start).Seconds()
		if out.err != nil {
			result.ErrorMessage = out.err.Error()
		} else {
			result.Success = true
			result.ResultSummary = out.summary
		}
	case <-tierCtx.Done():
		result.ExecutionSeconds = time.Since(start).Seconds()
		result.ErrorMessage = fmt.Sprintf("tier timed out after %s", tier.Timeout())
	}

	return result
}

// attemptsEvidence converts attempts into plain JSON-friendly maps for
// the audit payload.
func attemptsEvidence(attempts []ExecutionResult) []interface{} {
	out := make([]interface{}, 0, len(attempts))
	for _, a := range attempts {
		m := map[string]interface{}{
			"success":                a.Success,
			"attempt_method":         a.AttemptMethod,
			"attempt_number":         a.AttemptNumber,
			"execution_time_seconds": a.ExecutionSeconds,
		}
		if a.ResultSummary != "" {
			m["result_summary"] = a.ResultSummary
		}
		if a.ErrorMessage != "" {
			m["error_message"] = a.ErrorMessage
		}
		out = append(out, m)
	}
	return out
}

func (r *Router) warn(ctx context.Context, msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.WithTrace(ctx).Warn(msg, keyvals...)
	}
}

func (r *Router) debug(ctx context.Context, msg string, keyvals ...interface{}) {
	if r.logger != nil {
		r.logger.WithTrace(ctx).Debug(msg, keyvals...)
	}
}

package event

import (
	"github.com/guardrail-oss/guardrail/internal/telemetry"
)

// Recorder writes audit events on behalf of decision components.
//
// Recording is best-effort: a store outage must never abort the decision
// that produced the event, so Append failures are logged as warnings and
// the caller still receives the event ID. Validation failures, by contrast,
// are surfaced synchronously: an invalid event is a caller bug.
//
// A nil Recorder is safe to use; Record returns the event ID without
// persisting anything.
type Recorder struct {
	store   Store
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewRecorder creates a recorder over the given store. Logger may be nil
// for silent operation; metrics may be nil.
func NewRecorder(store Store, logger *telemetry.Logger, metrics *telemetry.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: metrics}
}

// Record validates and appends an event, returning its ID.
//
// The returned error is non-nil only for validation failures. Store
// failures degrade to a warning: the ID is returned so callers can still
// correlate follow-up events against it.
func (r *Recorder) Record(ev *AutomationEvent) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}

	if r == nil || r.store == nil {
		return ev.ID, nil
	}

	if err := r.store.Append(ev); err != nil {
		if r.logger != nil {
			r.logger.Warn("audit append failed, decision unaffected",
				"event_id", ev.ID,
				"event_type", string(ev.Type),
				"error", err,
			)
		}
		if r.metrics != nil {
			r.metrics.IncEventsDropped()
		}
	}

	return ev.ID, nil
}

// Store exposes the underlying store for query paths (CLI, dashboards).
func (r *Recorder) Store() Store {
	if r == nil {
		return nil
	}
	return r.store
}

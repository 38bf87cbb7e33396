package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	guardrailErrors "github.com/guardrail-oss/guardrail/internal/errors"
)

// Type identifies the decision that produced an event.
type Type string

const (
	WorkflowStarted         Type = "workflow-started"
	WorkflowCompleted       Type = "workflow-completed"
	CompletionDetected      Type = "completion-detected"
	CompletionPendingReview Type = "completion-pending-review"
	CompletionSkipped       Type = "completion-skipped"
	FailureDetected         Type = "failure-detected"
	RecoveryAttempted       Type = "recovery-attempted"
)

// Status is the outcome recorded on an event.
type Status string

const (
	StatusPending       Status = "pending"
	StatusSuccess       Status = "success"
	StatusFailed        Status = "failed"
	StatusWarning       Status = "warning"
	StatusPendingReview Status = "pending_review"
	StatusSkipped       Status = "skipped"
)

// Source is the provenance tag of an event.
type Source string

const (
	SourceHook    Source = "hook"
	SourceMonitor Source = "monitor"
	SourceRouter  Source = "router"
	SourceSkill   Source = "skill"
	SourceManual  Source = "manual"
)

var validTypes = map[Type]bool{
	WorkflowStarted:         true,
	WorkflowCompleted:       true,
	CompletionDetected:      true,
	CompletionPendingReview: true,
	CompletionSkipped:       true,
	FailureDetected:         true,
	RecoveryAttempted:       true,
}

var validStatuses = map[Status]bool{
	StatusPending:       true,
	StatusSuccess:       true,
	StatusFailed:        true,
	StatusWarning:       true,
	StatusPendingReview: true,
	StatusSkipped:       true,
}

var validSources = map[Source]bool{
	SourceHook:    true,
	SourceMonitor: true,
	SourceRouter:  true,
	SourceSkill:   true,
	SourceManual:  true,
}

// AutomationEvent is the append-only audit record for every automation decision.
// Immutable once created except for ResolvedAt.
type AutomationEvent struct {
	ID           string                 `json:"id"`
	Type         Type                   `json:"event_type"`
	ProjectID    string                 `json:"project_id"`
	Status       Status                 `json:"status"`
	Evidence     map[string]interface{} `json:"evidence,omitempty"`
	DetectedFrom Source                 `json:"detected_from"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	ResolvedAt   *time.Time             `json:"resolved_at,omitempty"`
}

// New creates an event with a fresh ID and the current timestamp.
func New(t Type, projectID string, status Status, source Source, evidence map[string]interface{}) *AutomationEvent {
	return &AutomationEvent{
		ID:           uuid.New().String(),
		Type:         t,
		ProjectID:    projectID,
		Status:       status,
		Evidence:     evidence,
		DetectedFrom: source,
		CreatedAt:    time.Now(),
	}
}

// CorrelateWith links this event to others via metadata, not foreign keys.
func (e *AutomationEvent) CorrelateWith(eventIDs ...string) *AutomationEvent {
	if len(eventIDs) == 0 {
		return e
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	existing, _ := e.Metadata["correlated_with"].([]string)
	e.Metadata["correlated_with"] = append(existing, eventIDs...)
	return e
}

// CorrelatedWith returns the IDs this event is linked to.
func (e *AutomationEvent) CorrelatedWith() []string {
	if e.Metadata == nil {
		return nil
	}
	switch v := e.Metadata["correlated_with"].(type) {
	case []string:
		return v
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, id := range v {
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	}
	return nil
}

// Validate rejects events with unknown enum values or non-serializable payloads.
// Runs before every persistence attempt; never coerces.
func (e *AutomationEvent) Validate() error {
	if e.ID == "" {
		return guardrailErrors.New(guardrailErrors.CodeEventInvalid, "event id is required")
	}
	if !validTypes[e.Type] {
		return guardrailErrors.New(guardrailErrors.CodeEventInvalid,
			fmt.Sprintf("unknown event type: %s", e.Type))
	}
	if !validStatuses[e.Status] {
		return guardrailErrors.New(guardrailErrors.CodeEventInvalid,
			fmt.Sprintf("unknown status: %s", e.Status))
	}
	if !validSources[e.DetectedFrom] {
		return guardrailErrors.New(guardrailErrors.CodeEventInvalid,
			fmt.Sprintf("unknown detected_from: %s", e.DetectedFrom))
	}
	if e.Evidence != nil {
		if _, err := json.Marshal(e.Evidence); err != nil {
			return guardrailErrors.Wrap(guardrailErrors.CodeEvidenceInvalid,
				"evidence is not JSON-serializable", err)
		}
	}
	if e.Metadata != nil {
		if _, err := json.Marshal(e.Metadata); err != nil {
			return guardrailErrors.Wrap(guardrailErrors.CodeEvidenceInvalid,
				"metadata is not JSON-serializable", err)
		}
	}
	return nil
}

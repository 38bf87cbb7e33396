package event

import (
	"math"
	"testing"

	guardrailErrors "github.com/guardrail-oss/guardrail/internal/errors"
)

func TestNew(t *testing.T) {
	ev := New(CompletionDetected, "my-repo", StatusSuccess, SourceRouter,
		map[string]interface{}{"keyword": "git commit", "confidence": 95})

	if ev.ID == "" {
		t.Fatal("expected event ID to be set")
	}
	if ev.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if ev.ResolvedAt != nil {
		t.Fatal("expected resolved_at to be nil at creation")
	}
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_UnknownType(t *testing.T) {
	ev := New(Type("something-else"), "repo", StatusSuccess, SourceRouter, nil)
	err := ev.Validate()
	if err == nil {
		t.Fatal("expected validation error for unknown type")
	}
	if guardrailErrors.AsCode(err) != guardrailErrors.CodeEventInvalid {
		t.Errorf("expected EVENT_INVALID, got %s", guardrailErrors.AsCode(err))
	}
}

func TestValidate_UnknownStatus(t *testing.T) {
	ev := New(CompletionDetected, "repo", Status("in_progress"), SourceRouter, nil)
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestValidate_UnknownSource(t *testing.T) {
	ev := New(CompletionDetected, "repo", StatusSuccess, Source("cron"), nil)
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for unknown detected_from")
	}
}

func TestValidate_NonSerializableEvidence(t *testing.T) {
	ev := New(FailureDetected, "repo", StatusFailed, SourceHook,
		map[string]interface{}{"bad": math.Inf(1)})

	err := ev.Validate()
	if err == nil {
		t.Fatal("expected validation error for non-serializable evidence")
	}
	if guardrailErrors.AsCode(err) != guardrailErrors.CodeEvidenceInvalid {
		t.Errorf("expected EVIDENCE_INVALID, got %s", guardrailErrors.AsCode(err))
	}
}

func TestValidate_NonSerializableMetadata(t *testing.T) {
	ev := New(RecoveryAttempted, "repo", StatusSuccess, SourceHook, nil)
	ev.Metadata = map[string]interface{}{"ch": make(chan int)}

	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for non-serializable metadata")
	}
}

func TestCorrelateWith(t *testing.T) {
	ev := New(RecoveryAttempted, "repo", StatusSuccess, SourceHook, nil)
	ev.CorrelateWith("ev-1").CorrelateWith("ev-2", "ev-3")

	ids := ev.CorrelatedWith()
	if len(ids) != 3 {
		t.Fatalf("expected 3 correlated IDs, got %d", len(ids))
	}
	if ids[0] != "ev-1" || ids[2] != "ev-3" {
		t.Errorf("unexpected correlation order: %v", ids)
	}

	if err := ev.Validate(); err != nil {
		t.Fatalf("correlated event should validate: %v", err)
	}
}

func TestCorrelatedWith_AfterJSONRoundTrip(t *testing.T) {
	// Metadata read back from a store arrives as []interface{}.
	ev := New(RecoveryAttempted, "repo", StatusSuccess, SourceHook, nil)
	ev.Metadata = map[string]interface{}{
		"correlated_with": []interface{}{"ev-a", "ev-b"},
	}

	ids := ev.CorrelatedWith()
	if len(ids) != 2 || ids[0] != "ev-a" || ids[1] != "ev-b" {
		t.Errorf("unexpected IDs: %v", ids)
	}
}

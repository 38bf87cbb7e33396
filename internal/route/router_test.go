package route

import (
	"context"
	"testing"

	"github.com/guardrail-oss/guardrail/internal/detect"
	"github.com/guardrail-oss/guardrail/internal/event"
)

func newTestRouter(t *testing.T, tracker Tracker) (*Router, *event.MemoryStore) {
	t.Helper()
	store := event.NewMemoryStore()
	rec := event.NewRecorder(store, nil, nil)
	router := NewRouter(detect.NewDetector(), tracker, rec, nil, nil, Options{ProjectID: "repo"})
	return router, store
}

func TestRoute_AutoComplete(t *testing.T) {
	tracker := NewMemoryTracker()
	tracker.Add(&Task{ID: "t1", Content: "run git commit for the fix"})
	router, store := newTestRouter(t, tracker)

	res, err := router.Route(context.Background(), "bash", "git commit -m 'fix bug'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.ActionTaken {
		t.Error("expected action taken")
	}
	if !res.TodoUpdated {
		t.Error("expected todo updated")
	}
	if res.NewStatus != "completed" {
		t.Errorf("expected status completed, got %q", res.NewStatus)
	}
	if res.Confidence != 95 {
		t.Errorf("expected confidence 95, got %d", res.Confidence)
	}
	if tracker.Get("t1").Status != "completed" {
		t.Errorf("tracker task not completed: %s", tracker.Get("t1").Status)
	}

	ev, err := store.Get(res.EventID)
	if err != nil {
		t.Fatalf("expected event persisted: %v", err)
	}
	if ev.Type != event.CompletionDetected {
		t.Errorf("expected completion-detected event, got %s", ev.Type)
	}
	if ev.Status != event.StatusSuccess {
		t.Errorf("expected success status, got %s", ev.Status)
	}
	if ev.Evidence["old_status"] != "pending" || ev.Evidence["new_status"] != "completed" {
		t.Errorf("expected old/new status in evidence, got %v", ev.Evidence)
	}
}

func TestRoute_PendingReviewBand(t *testing.T) {
	tracker := NewMemoryTracker()
	tracker.Add(&Task{ID: "t1", Content: "create the report file"})
	router, store := newTestRouter(t, tracker)

	// file-created base 75, short input so no bonus: lands in [60,80).
	res, err := router.Route(context.Background(), "write", "file created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.NewStatus != "pending_review" {
		t.Errorf("expected pending_review, got %q", res.NewStatus)
	}
	if res.Confidence != 75 {
		t.Errorf("expected confidence 75, got %d", res.Confidence)
	}
	if tracker.Get("t1").Status != "pending_review" {
		t.Errorf("task should be pending_review, got %s", tracker.Get("t1").Status)
	}

	ev, err := store.Get(res.EventID)
	if err != nil {
		t.Fatalf("expected event persisted: %v", err)
	}
	if ev.Type != event.CompletionPendingReview {
		t.Errorf("expected completion-pending-review event, got %s", ev.Type)
	}
	if ev.Status != event.StatusPendingReview {
		t.Errorf("expected pending_review status, got %s", ev.Status)
	}
}

func TestRoute_LowConfidenceSkipped(t *testing.T) {
	tracker := NewMemoryTracker()
	tracker.Add(&Task{ID: "t1", Content: "create the config file"})
	router, store := newTestRouter(t, tracker)

	// file-created 75 minus the failure penalty: 45 < 60.
	res, err := router.Route(context.Background(), "bash", "file created but connection timeout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ActionTaken {
		t.Error("expected no action for low confidence")
	}
	if res.Reason != "confidence too low" {
		t.Errorf("expected reason 'confidence too low', got %q", res.Reason)
	}
	if tracker.Get("t1").Status != "pending" {
		t.Error("task must not be touched for low-confidence signals")
	}

	ev, err := store.Get(res.EventID)
	if err != nil {
		t.Fatalf("expected event persisted: %v", err)
	}
	if ev.Type != event.CompletionSkipped {
		t.Errorf("expected completion-skipped event, got %s", ev.Type)
	}
}

func TestRoute_NoKeywordDetected(t *testing.T) {
	router, store := newTestRouter(t, NewMemoryTracker())

	res, err := router.Route(context.Background(), "bash", "listing directory contents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ActionTaken {
		t.Error("expected no action")
	}
	if res.Reason != "no keyword detected" {
		t.Errorf("expected reason 'no keyword detected', got %q", res.Reason)
	}

	ev, err := store.Get(res.EventID)
	if err != nil {
		t.Fatalf("expected skipped event persisted: %v", err)
	}
	if ev.Evidence["reason"] != "no keyword detected" {
		t.Errorf("unexpected evidence: %v", ev.Evidence)
	}
}

func TestRoute_ToolNotInAllowList(t *testing.T) {
	router, store := newTestRouter(t, NewMemoryTracker())

	res, err := router.Route(context.Background(), "webfetch", "git commit done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ActionTaken || res.EventID != "" {
		t.Errorf("ineligible tool must be ignored without an event: %+v", res)
	}

	all, _ := store.Query(event.Filter{})
	if len(all) != 0 {
		t.Errorf("expected no events, got %d", len(all))
	}
}

func TestRoute_NoMatchingTask(t *testing.T) {
	router, store := newTestRouter(t, NewMemoryTracker())

	res, err := router.Route(context.Background(), "bash", "git commit -m 'fix bug'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Detection succeeded but there was nothing to update; not an error.
	if !res.ActionTaken {
		t.Error("expected action taken")
	}
	if res.TodoUpdated {
		t.Error("expected todo_updated=false")
	}
	if res.Reason != "no matching task found" {
		t.Errorf("expected reason 'no matching task found', got %q", res.Reason)
	}

	ev, err := store.Get(res.EventID)
	if err != nil {
		t.Fatalf("expected event persisted: %v", err)
	}
	if ev.Status != event.StatusSuccess {
		t.Errorf("expected success-adjacent event, got %s", ev.Status)
	}
	if ev.Evidence["reason"] != "no matching task found" {
		t.Errorf("unexpected evidence: %v", ev.Evidence)
	}
	if ev.Evidence["todo_updated"] != false {
		t.Errorf("expected todo_updated=false in evidence, got %v", ev.Evidence)
	}
}

func TestRoute_ThresholdsExhaustiveNoGaps(t *testing.T) {
	// For every confidence 0..100 exactly one band applies.
	for c := 0; c <= 100; c++ {
		auto := c >= DefaultAutoCompleteThreshold
		review := c >= DefaultReviewThreshold && c < DefaultAutoCompleteThreshold
		skip := c < DefaultReviewThreshold

		count := 0
		for _, b := range []bool{auto, review, skip} {
			if b {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("confidence %d matched %d bands", c, count)
		}
	}
}

func TestRoute_StoreOutageDoesNotChangeDecision(t *testing.T) {
	tracker := NewMemoryTracker()
	tracker.Add(&Task{ID: "t1", Content: "run git commit for the fix"})

	// Recorder with no store still returns event IDs.
	router := NewRouter(detect.NewDetector(), tracker, nil, nil, nil, Options{ProjectID: "repo"})

	res, err := router.Route(context.Background(), "bash", "git commit -m 'fix bug'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.ActionTaken || !res.TodoUpdated {
		t.Errorf("decision must not depend on audit store health: %+v", res)
	}
	if res.EventID == "" {
		t.Error("expected an event ID even without a store")
	}
}

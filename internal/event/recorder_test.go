package event

import (
	"fmt"
	"testing"
	"time"
)

// failingStore always fails Append, simulating an audit-store outage.
type failingStore struct{}

func (f *failingStore) Append(ev *AutomationEvent) error {
	return fmt.Errorf("database is locked")
}
func (f *failingStore) Get(id string) (*AutomationEvent, error) {
	return nil, fmt.Errorf("unavailable")
}
func (f *failingStore) Query(filter Filter) ([]*AutomationEvent, error) {
	return nil, fmt.Errorf("unavailable")
}
func (f *failingStore) Resolve(id string, at time.Time) error {
	return fmt.Errorf("unavailable")
}
func (f *failingStore) Close() error { return nil }

func TestRecorder_Record(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, nil)

	ev := New(CompletionDetected, "repo", StatusSuccess, SourceRouter, nil)
	id, err := rec.Record(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != ev.ID {
		t.Errorf("expected ID %s, got %s", ev.ID, id)
	}

	if _, err := store.Get(id); err != nil {
		t.Fatalf("event not persisted: %v", err)
	}
}

func TestRecorder_ValidationErrorsAreSurfaced(t *testing.T) {
	rec := NewRecorder(NewMemoryStore(), nil, nil)

	ev := New(Type("bogus"), "repo", StatusSuccess, SourceRouter, nil)
	if _, err := rec.Record(ev); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRecorder_StoreOutageDoesNotFailCaller(t *testing.T) {
	rec := NewRecorder(&failingStore{}, nil, nil)

	ev := New(FailureDetected, "repo", StatusFailed, SourceHook, nil)
	id, err := rec.Record(ev)
	if err != nil {
		t.Fatalf("store outage must not surface as an error: %v", err)
	}
	if id != ev.ID {
		t.Errorf("expected event ID even when append fails, got %q", id)
	}
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var rec *Recorder

	ev := New(CompletionSkipped, "repo", StatusSkipped, SourceRouter, nil)
	id, err := rec.Record(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != ev.ID {
		t.Errorf("expected event ID from nil recorder, got %q", id)
	}
	if rec.Store() != nil {
		t.Error("expected nil store from nil recorder")
	}
}

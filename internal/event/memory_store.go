package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	guardrailErrors "github.com/guardrail-oss/guardrail/internal/errors"
)

// MemoryStore implements an in-memory audit log. Used for tests and
// throwaway runs; safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*AutomationEvent
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]*AutomationEvent),
	}
}

// Append adds an event to the log.
func (s *MemoryStore) Append(ev *AutomationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[ev.ID]; exists {
		return fmt.Errorf("event already exists: %s", ev.ID)
	}

	s.events[ev.ID] = cloneEvent(ev)
	return nil
}

// Get retrieves an event by ID.
func (s *MemoryStore) Get(id string) (*AutomationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ev, ok := s.events[id]; ok {
		return cloneEvent(ev), nil
	}
	return nil, guardrailErrors.New(guardrailErrors.CodeEventNotFound,
		fmt.Sprintf("event not found: %s", id))
}

// Query returns events matching the filter, newest first.
func (s *MemoryStore) Query(f Filter) ([]*AutomationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*AutomationEvent, 0)
	for _, ev := range s.events {
		if f.ProjectID != "" && ev.ProjectID != f.ProjectID {
			continue
		}
		if f.Type != "" && ev.Type != f.Type {
			continue
		}
		if f.Status != "" && ev.Status != f.Status {
			continue
		}
		if !f.Since.IsZero() && ev.CreatedAt.Before(f.Since) {
			continue
		}
		matches = append(matches, cloneEvent(ev))
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if f.Limit > 0 && len(matches) > f.Limit {
		matches = matches[:f.Limit]
	}

	return matches, nil
}

// Resolve sets resolved_at on an event. Setting it twice is an error.
func (s *MemoryStore) Resolve(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return guardrailErrors.New(guardrailErrors.CodeEventNotFound,
			fmt.Sprintf("event not found: %s", id))
	}
	if ev.ResolvedAt != nil {
		return guardrailErrors.New(guardrailErrors.CodeEventResolved,
			fmt.Sprintf("event already resolved: %s", id))
	}
	ev.ResolvedAt = &at
	return nil
}

// cloneEvent isolates stored events from caller mutation. Payload maps are
// round-tripped through JSON, the same isolation the sqlite store gets from
// serializing them; Validate has already guaranteed they marshal.
func cloneEvent(ev *AutomationEvent) *AutomationEvent {
	cp := *ev
	cp.Evidence = cloneMap(ev.Evidence)
	cp.Metadata = cloneMap(ev.Metadata)
	if ev.ResolvedAt != nil {
		at := *ev.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	json.Unmarshal(data, &out)
	return out
}

// Close closes the store (no-op for memory).
func (s *MemoryStore) Close() error {
	return nil
}

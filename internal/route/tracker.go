package route

import (
	"context"
	"strings"
	"sync"
)

// Task is the router's view of an external tracker item.
type Task struct {
	ID      string
	Content string
	Status  string // pending, in_progress, completed, pending_review
}

// Criteria narrows a task lookup.
type Criteria struct {
	Keyword  string
	Category string
}

// Tracker is the outbound boundary to the external task tracker. The core
// depends on this capability but does not implement the real one.
//
// FindTask returns (nil, nil) when no task matches; that is a first-class
// outcome, not an error.
type Tracker interface {
	FindTask(ctx context.Context, c Criteria) (*Task, error)
	UpdateStatus(ctx context.Context, taskID, status string) error
}

// MemoryTracker is an in-memory Tracker for tests and local runs.
type MemoryTracker struct {
	mu    sync.Mutex
	tasks []*Task
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

// Add registers a task.
func (m *MemoryTracker) Add(task *Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.Status == "" {
		task.Status = "pending"
	}
	m.tasks = append(m.tasks, task)
}

// FindTask returns the first open task whose content mentions the keyword
// or category. Matching is word-level: "git commit" matches a task that
// says "run the commit step".
func (m *MemoryTracker) FindTask(ctx context.Context, c Criteria) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	terms := matchTerms(c)

	for _, task := range m.tasks {
		if task.Status == "completed" {
			continue
		}
		content := strings.ToLower(task.Content)
		for _, term := range terms {
			if strings.Contains(content, term) {
				return task, nil
			}
		}
	}
	return nil, nil
}

// matchTerms extracts lookup terms from the criteria: the full keyword plus
// its individual words (skipping short noise words) and the category words.
func matchTerms(c Criteria) []string {
	var terms []string
	if c.Keyword != "" {
		terms = append(terms, strings.ToLower(c.Keyword))
		for _, w := range strings.Fields(strings.ToLower(c.Keyword)) {
			if len(w) >= 4 {
				terms = append(terms, w)
			}
		}
	}
	if c.Category != "" {
		for _, w := range strings.Split(strings.ToLower(c.Category), "-") {
			if len(w) >= 4 {
				terms = append(terms, w)
			}
		}
	}
	return terms
}

// UpdateStatus sets a task's status.
func (m *MemoryTracker) UpdateStatus(ctx context.Context, taskID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.ID == taskID {
			task.Status = status
			return nil
		}
	}
	return nil
}

// Get returns a task by ID, for test assertions.
func (m *MemoryTracker) Get(taskID string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.ID == taskID {
			return task
		}
	}
	return nil
}

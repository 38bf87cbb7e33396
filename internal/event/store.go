package event

import "time"

// Filter narrows a store query. Zero values mean "any".
type Filter struct {
	ProjectID string
	Type      Type
	Status    Status
	Since     time.Time
	Limit     int
}

// Store defines the interface for audit log backends.
//
// The log is append-only: no update or delete operations exist beyond
// Resolve, which sets resolved_at exactly once.
type Store interface {
	Append(ev *AutomationEvent) error
	Get(id string) (*AutomationEvent, error)
	Query(f Filter) ([]*AutomationEvent, error)
	Resolve(id string, at time.Time) error
	Close() error
}

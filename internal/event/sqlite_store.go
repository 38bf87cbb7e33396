package event

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	guardrailErrors "github.com/guardrail-oss/guardrail/internal/errors"
)

// SQLiteStore implements the audit log using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS automation_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		project_id TEXT NOT NULL,
		status TEXT NOT NULL,
		detected_from TEXT NOT NULL,
		evidence JSON,
		metadata JSON,
		created_at DATETIME NOT NULL,
		resolved_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_events_project ON automation_events(project_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON automation_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_events_status ON automation_events(status);
	CREATE INDEX IF NOT EXISTS idx_events_created_at ON automation_events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Append inserts an event. Existing rows are never overwritten.
func (s *SQLiteStore) Append(ev *AutomationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	evidence, err := marshalPayload(ev.Evidence)
	if err != nil {
		return guardrailErrors.Wrap(guardrailErrors.CodeEvidenceInvalid,
			"failed to marshal evidence", err)
	}
	metadata, err := marshalPayload(ev.Metadata)
	if err != nil {
		return guardrailErrors.Wrap(guardrailErrors.CodeEvidenceInvalid,
			"failed to marshal metadata", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO automation_events (id, event_type, project_id, status, detected_from, evidence, metadata, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, string(ev.Type), ev.ProjectID, string(ev.Status), string(ev.DetectedFrom),
		evidence, metadata, ev.CreatedAt, ev.ResolvedAt)

	return err
}

// Get retrieves an event by ID.
func (s *SQLiteStore) Get(id string) (*AutomationEvent, error) {
	row := s.db.QueryRow(`
		SELECT id, event_type, project_id, status, detected_from, evidence, metadata, created_at, resolved_at
		FROM automation_events WHERE id = ?
	`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, guardrailErrors.New(guardrailErrors.CodeEventNotFound,
			fmt.Sprintf("event not found: %s", id))
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Query returns events matching the filter, newest first.
func (s *SQLiteStore) Query(f Filter) ([]*AutomationEvent, error) {
	var conditions []string
	var args []interface{}

	if f.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Type != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, f.Since)
	}

	query := `
		SELECT id, event_type, project_id, status, detected_from, evidence, metadata, created_at, resolved_at
		FROM automation_events
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AutomationEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// Resolve sets resolved_at on an event, exactly once.
func (s *SQLiteStore) Resolve(id string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE automation_events SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL
	`, at, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish missing from already-resolved.
		if _, getErr := s.Get(id); getErr != nil {
			return getErr
		}
		return guardrailErrors.New(guardrailErrors.CodeEventResolved,
			fmt.Sprintf("event already resolved: %s", id))
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*AutomationEvent, error) {
	var ev AutomationEvent
	var evType, status, source string
	var evidence, metadata sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(&ev.ID, &evType, &ev.ProjectID, &status, &source,
		&evidence, &metadata, &ev.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	ev.Type = Type(evType)
	ev.Status = Status(status)
	ev.DetectedFrom = Source(source)

	if evidence.Valid && evidence.String != "" {
		if err := json.Unmarshal([]byte(evidence.String), &ev.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &ev.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		ev.ResolvedAt = &t
	}

	return &ev, nil
}

func marshalPayload(payload map[string]interface{}) (interface{}, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

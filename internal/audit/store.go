package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SahilWadhwani/threathunt-console/internal/db"
)

// Store persists activity entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new entry. If entry.ID is empty a UUID is generated;
// an empty outcome defaults to ok.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeOK
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_entries (id, actor, action, subject, detail, outcome)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Actor, string(entry.Action), entry.Subject, entry.Detail, string(entry.Outcome),
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, actor, action, subject, detail, outcome
		FROM activity_entries
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var action, outcome string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &action, &e.Subject, &e.Detail, &outcome); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ByActor returns entries for one actor, newest first.
func (s *Store) ByActor(ctx context.Context, actor string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, actor, action, subject, detail, outcome
		FROM activity_entries
		WHERE actor = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity for %s: %w", actor, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var action, outcome string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &action, &e.Subject, &e.Detail, &outcome); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	return out, rows.Err()
}

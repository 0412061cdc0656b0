package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// eventSink implements driven.EventSink.
type eventSink struct {
	store *Store
}

var _ driven.EventSink = (*eventSink)(nil)

// Record stores an event, assigning an ID and timestamp when missing.
func (s *eventSink) Record(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO events (id, task_id, result_id, action, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.TaskID, event.ResultID, string(event.Action), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Events returns the events recorded for a task in insertion order.
func (s *Store) Events(ctx context.Context, taskID string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, result_id, action, created_at
		FROM events WHERE task_id = ? ORDER BY rowid
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Event
		var action string
		var createdAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.TaskID, &e.ResultID, &action, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Action = domain.EventAction(action)
		e.CreatedAt = createdAt.Time
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

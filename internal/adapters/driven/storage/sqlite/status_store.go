package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// statusStore implements driven.StatusStore.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

const statusColumns = "id, name, closed, is_default"

// List returns all statuses ordered by ID.
func (s *statusStore) List(ctx context.Context) ([]domain.Status, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+statusColumns+" FROM statuses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.Status //nolint:prealloc // size unknown from query
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}
	return statuses, nil
}

// Get retrieves a status by ID.
func (s *statusStore) Get(ctx context.Context, id int64) (*domain.Status, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+statusColumns+" FROM statuses WHERE id = ?", id)
	return scanStatus(row)
}

// Default returns the status flagged as default.
func (s *statusStore) Default(ctx context.Context) (*domain.Status, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM statuses WHERE is_default = 1 ORDER BY id LIMIT 1")
	st, err := scanStatus(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoDefaultStatus
	}
	return st, err
}

func scanStatus(row rowScanner) (*domain.Status, error) {
	var st domain.Status
	var closed, isDefault sql.NullBool
	if err := row.Scan(&st.ID, &st.Name, &closed, &isDefault); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}
	st.Closed = closed.Bool
	st.IsDefault = isDefault.Bool
	return &st, nil
}

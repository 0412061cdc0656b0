package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// resultStore implements driven.ResultStore.
type resultStore struct {
	store *Store
}

var _ driven.ResultStore = (*resultStore)(nil)

const resultColumns = `r.id, r.title, r.url, r.domain, r.status_id, r.user_id,
	r.content, r.metadata, r.created_at, r.updated_at`

// sortColumns maps sort fields to SQL. Only these are ever interpolated.
var sortColumns = map[domain.SortField]string{
	domain.SortByID:        "r.id",
	domain.SortByCreatedAt: "r.created_at",
	domain.SortByUpdatedAt: "r.updated_at",
	domain.SortByTitle:     "r.title",
}

// Save inserts a result when its ID is zero, otherwise updates it.
func (s *resultStore) Save(ctx context.Context, r *domain.Result) error {
	now := time.Now().UTC()
	if r.ID == 0 {
		return s.insert(ctx, r, now)
	}
	return s.update(ctx, r, now)
}

func (s *resultStore) insert(ctx context.Context, r *domain.Result, now time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO results (title, url, domain, status_id, user_id, content, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Title, r.URL, r.Domain, nullInt64(r.StatusID), nullInt64(r.UserID),
		r.Content, nullText(r.Metadata), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("inserting result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading result id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

func (s *resultStore) update(ctx context.Context, r *domain.Result, now time.Time) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE results SET
			title = ?, url = ?, domain = ?, status_id = ?, user_id = ?,
			content = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, r.Title, r.URL, r.Domain, nullInt64(r.StatusID), nullInt64(r.UserID),
		r.Content, nullText(r.Metadata), now, r.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("updating result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	var createdAt sql.NullTime
	row := s.store.db.QueryRowContext(ctx, "SELECT created_at FROM results WHERE id = ?", r.ID)
	if err := row.Scan(&createdAt); err != nil {
		return fmt.Errorf("reading created_at: %w", err)
	}
	r.CreatedAt = createdAt.Time
	r.UpdatedAt = now
	return nil
}

// Get retrieves a result by ID.
func (s *resultStore) Get(ctx context.Context, id int64) (*domain.Result, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+resultColumns+" FROM results r WHERE r.id = ?", id)
	return scanResult(row)
}

// GetByURL retrieves the result with the given URL.
func (s *resultStore) GetByURL(ctx context.Context, url string) (*domain.Result, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+resultColumns+" FROM results r WHERE r.url = ?", url)
	return scanResult(row)
}

// Delete removes a result. Taggings and events cascade.
func (s *resultStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting result: %w", err)
	}
	return nil
}

// FetchCandidates returns every result passing the structured filter.
func (s *resultStore) FetchCandidates(ctx context.Context, filter domain.ResultFilter) ([]domain.Result, error) {
	query, args, err := buildCandidateQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result //nolint:prealloc // size unknown from query
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return results, nil
}

// buildCandidateQuery renders the structured filter as SQL. Values are
// always bound; only whitelisted column names are interpolated.
func buildCandidateQuery(f domain.ResultFilter) (string, []any, error) {
	orderBy, ok := sortColumns[f.Sort.OrDefault()]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidInput, f.Sort)
	}

	var where []string
	var args []any

	if len(f.StatusIDs) > 0 {
		where = append(where, "r.status_id IN ("+placeholders(len(f.StatusIDs))+")")
		for _, id := range f.StatusIDs {
			args = append(args, id)
		}
	} else if !f.IncludeClosed {
		where = append(where, "(r.status_id IS NULL OR COALESCE(s.closed, 0) = 0)")
	}
	if len(f.TagIDs) > 0 {
		where = append(where,
			"EXISTS (SELECT 1 FROM taggings t WHERE t.result_id = r.id AND t.tag_id IN ("+placeholders(len(f.TagIDs))+"))")
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}
	if f.UserID != nil {
		where = append(where, "r.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.URLContains != "" {
		where = append(where, `LOWER(r.url) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.URLContains))
	}
	if f.TitleContains != "" {
		where = append(where, `LOWER(r.title) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.TitleContains))
	}

	var b strings.Builder
	b.WriteString("SELECT " + resultColumns + " FROM results r LEFT JOIN statuses s ON s.id = r.status_id")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	b.WriteString(" ORDER BY " + orderBy + " " + dir)
	if orderBy != "r.id" {
		b.WriteString(", r.id " + dir)
	}
	return b.String(), args, nil
}

// likePattern builds a case-insensitive substring pattern with LIKE
// wildcards in the input escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*domain.Result, error) {
	var r domain.Result
	var statusID, userID sql.NullInt64
	var metadata sql.NullString
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.Title, &r.URL, &r.Domain, &statusID, &userID,
		&r.Content, &metadata, &createdAt, &updatedAt); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning result: %w", err)
	}

	r.StatusID = int64Ptr(statusID)
	r.UserID = int64Ptr(userID)
	if metadata.Valid {
		r.Metadata = []byte(metadata.String)
	}
	if createdAt.Valid {
		r.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		r.UpdatedAt = updatedAt.Time
	}
	return &r, nil
}

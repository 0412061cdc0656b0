package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
)

// tagStore implements driven.TagStore.
type tagStore struct {
	store *Store
}

var _ driven.TagStore = (*tagStore)(nil)

// SetResultTags replaces the tags on a result in one transaction.
func (s *tagStore) SetResultTags(ctx context.Context, resultID int64, names []string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM taggings WHERE result_id = ?", resultID); err != nil {
		return fmt.Errorf("clearing taggings: %w", err)
	}

	for pos, name := range names {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("creating tag %q: %w", name, err)
		}
		var tagID int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ?", name).Scan(&tagID); err != nil {
			return fmt.Errorf("reading tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO taggings (result_id, tag_id, position) VALUES (?, ?, ?)",
			resultID, tagID, pos); err != nil {
			return fmt.Errorf("tagging result %d: %w", resultID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tags: %w", err)
	}
	return nil
}

// ResultTags returns the tag names on a result in attachment order.
func (s *tagStore) ResultTags(ctx context.Context, resultID int64) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT t.name FROM taggings g JOIN tags t ON t.id = g.tag_id
		WHERE g.result_id = ? ORDER BY g.position
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return names, nil
}

// List returns all known tags ordered by name.
func (s *tagStore) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT id, name FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

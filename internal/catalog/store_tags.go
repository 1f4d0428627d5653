package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyTag reports tag text that normalizes to nothing.
var ErrEmptyTag = errors.New("tag text is empty")

// UpsertTag returns the tag for the normalized form of text, creating it if
// needed. Concurrent callers always converge on one row.
func (s *Store) UpsertTag(ctx context.Context, text string) (Tag, error) {
	ctx = ensureContext(ctx)
	normalized := NormalizeTag(text)
	if normalized == "" {
		return Tag{}, ErrEmptyTag
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO tags (text) VALUES (?) ON CONFLICT(text) DO NOTHING`,
		normalized,
	); err != nil {
		return Tag{}, fmt.Errorf("upsert tag %q: %w", normalized, err)
	}
	tag := Tag{Text: normalized}
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE text = ?`, normalized).Scan(&tag.ID); err != nil {
		return Tag{}, fmt.Errorf("fetch tag %q: %w", normalized, err)
	}
	return tag, nil
}

// AttachTags associates tags with an entry. Existing associations are left
// alone, so repeating a call adds nothing.
func (s *Store) AttachTags(ctx context.Context, entryID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tag tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO entry_tags (entry_id, tag_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare tag association: %w", err)
		}
		defer stmt.Close()

		for _, tagID := range tagIDs {
			if _, err := stmt.ExecContext(ctx, entryID, tagID); err != nil {
				return fmt.Errorf("attach tag %d to entry %d: %w", tagID, entryID, err)
			}
		}
		return tx.Commit()
	})
}

// ListTags returns all tags ordered by text.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id, text FROM tags ORDER BY text`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Text); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

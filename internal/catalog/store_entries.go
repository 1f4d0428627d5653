package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// tagLoadBatch bounds the IN list used when hydrating entry tags.
const tagLoadBatch = 500

// EntryByNumber returns the entry with the given song number, or nil when the
// catalog has none.
func (s *Store) EntryByNumber(ctx context.Context, songNumber int) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE song_number = ?`, songNumber)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", songNumber, err)
	}
	entries := []Entry{*entry}
	if err := s.loadTags(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// SaveEntry inserts the entry when it has no ID and updates it in place
// otherwise. Tags are not written; use AttachTags.
func (s *Store) SaveEntry(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	if entry.SongNumber <= 0 {
		return fmt.Errorf("entry song number %d must be positive", entry.SongNumber)
	}
	now := time.Now().UTC()
	entry.UpdatedAt = now

	if entry.ID == 0 {
		entry.CreatedAt = now
		res, err := s.execWithRetry(ctx,
			`INSERT INTO entries (
                song_number, title, description, url, download_url,
                view_count, like_count, dislike_count, thumbnail_url, release_date,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.SongNumber,
			entry.Title,
			entry.Description,
			entry.URL,
			entry.DownloadURL,
			int64Value(entry.ViewCount),
			int64Value(entry.LikeCount),
			int64Value(entry.DislikeCount),
			nullableString(entry.ThumbnailURL),
			dateValue(entry.ReleaseDate),
			formatTime(now),
			formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", entry.SongNumber, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read entry id: %w", err)
		}
		entry.ID = id
		return nil
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE entries
         SET song_number = ?, title = ?, description = ?, url = ?, download_url = ?,
             view_count = ?, like_count = ?, dislike_count = ?, thumbnail_url = ?,
             release_date = ?, updated_at = ?
         WHERE id = ?`,
		entry.SongNumber,
		entry.Title,
		entry.Description,
		entry.URL,
		entry.DownloadURL,
		int64Value(entry.ViewCount),
		int64Value(entry.LikeCount),
		int64Value(entry.DislikeCount),
		nullableString(entry.ThumbnailURL),
		dateValue(entry.ReleaseDate),
		formatTime(now),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", entry.SongNumber, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update entry %d: no row with id %d", entry.SongNumber, entry.ID)
	}
	return nil
}

// EntriesByDate returns entries released on the calendar day of date.
func (s *Store) EntriesByDate(ctx context.Context, date time.Time) ([]Entry, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE release_date = ? ORDER BY song_number`,
		day.Format(DateLayout),
	)
}

// EntriesByTag returns entries associated with the normalized form of text.
func (s *Store) EntriesByTag(ctx context.Context, text string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT e.id, e.song_number, e.title, e.description, e.url, e.download_url,
                e.view_count, e.like_count, e.dislike_count, e.thumbnail_url, e.release_date,
                e.created_at, e.updated_at
         FROM entries e
         JOIN entry_tags et ON et.entry_id = e.id
         JOIN tags t ON t.id = et.tag_id
         WHERE t.text = ?
         ORDER BY e.song_number`,
		NormalizeTag(text),
	)
}

// EntriesByNumbers returns the entries for songNumbers in the order given.
// Unknown numbers are skipped.
func (s *Store) EntriesByNumbers(ctx context.Context, songNumbers []int) ([]Entry, error) {
	if len(songNumbers) == 0 {
		return nil, nil
	}
	args := make([]any, len(songNumbers))
	for i, n := range songNumbers {
		args[i] = n
	}
	found, err := s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE song_number IN (`+placeholders(len(args))+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]Entry, len(found))
	for _, entry := range found {
		byNumber[entry.SongNumber] = entry
	}
	ordered := make([]Entry, 0, len(found))
	for _, n := range songNumbers {
		if entry, ok := byNumber[n]; ok {
			ordered = append(ordered, entry)
			delete(byNumber, n)
		}
	}
	return ordered, nil
}

// ListEntries returns every entry ordered by song number.
func (s *Store) ListEntries(ctx context.Context) ([]Entry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY song_number`)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	rows.Close()

	if err := s.loadTags(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// loadTags fills Tags on each entry, ordered by tag text.
func (s *Store) loadTags(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	index := make(map[int64]int, len(entries))
	for i := range entries {
		index[entries[i].ID] = i
		entries[i].Tags = nil
	}

	for start := 0; start < len(entries); start += tagLoadBatch {
		end := min(start+tagLoadBatch, len(entries))
		args := make([]any, 0, end-start)
		for _, entry := range entries[start:end] {
			args = append(args, entry.ID)
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT et.entry_id, t.id, t.text
             FROM entry_tags et
             JOIN tags t ON t.id = et.tag_id
             WHERE et.entry_id IN (`+placeholders(len(args))+`)
             ORDER BY et.entry_id, t.text`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("query entry tags: %w", err)
		}
		for rows.Next() {
			var (
				entryID int64
				tag     Tag
			)
			if err := rows.Scan(&entryID, &tag.ID, &tag.Text); err != nil {
				rows.Close()
				return fmt.Errorf("scan entry tag: %w", err)
			}
			if i, ok := index[entryID]; ok {
				entries[i].Tags = append(entries[i].Tags, tag)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate entry tags: %w", err)
		}
		rows.Close()
	}
	return nil
}

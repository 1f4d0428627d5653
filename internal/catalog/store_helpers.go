package catalog

import (
	"database/sql"
	"strings"
	"time"
)

const entryColumns = "id, song_number, title, description, url, download_url, view_count, like_count, dislike_count, thumbnail_url, release_date, created_at, updated_at"

const runColumns = "id, run_id, started_at, finished_at, song_count, date_warnings, stage"

type rowScanner interface{ Scan(dest ...any) error }

func scanEntry(scanner rowScanner) (*Entry, error) {
	var (
		entry        Entry
		viewCount    sql.NullInt64
		likeCount    sql.NullInt64
		dislikeCount sql.NullInt64
		thumbnail    sql.NullString
		releaseRaw   sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.SongNumber,
		&entry.Title,
		&entry.Description,
		&entry.URL,
		&entry.DownloadURL,
		&viewCount,
		&likeCount,
		&dislikeCount,
		&thumbnail,
		&releaseRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	entry.ViewCount = nullableInt64(viewCount)
	entry.LikeCount = nullableInt64(likeCount)
	entry.DislikeCount = nullableInt64(dislikeCount)
	entry.ThumbnailURL = thumbnail.String
	if releaseRaw.Valid {
		if date, err := time.Parse(DateLayout, releaseRaw.String); err == nil {
			entry.ReleaseDate = &date
		}
	}
	entry.CreatedAt = parseTime(createdRaw)
	entry.UpdatedAt = parseTime(updatedRaw)
	return &entry, nil
}

func scanRun(scanner rowScanner) (*RunToken, error) {
	var (
		token       RunToken
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&token.ID,
		&token.RunID,
		&startedRaw,
		&finishedRaw,
		&token.SongCount,
		&token.DateWarnings,
		&token.Stage,
	); err != nil {
		return nil, err
	}
	token.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished := parseTime(finishedRaw.String)
		token.FinishedAt = &finished
	}
	return &token, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func int64Value(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func dateValue(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.Format(DateLayout)
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

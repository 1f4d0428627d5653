package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StartRun records a new token in the started stage.
func (s *Store) StartRun(ctx context.Context, runID string, startedAt time.Time) (*RunToken, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("run id required")
	}
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	startedAt = startedAt.UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO run_tokens (run_id, started_at, stage) VALUES (?, ?, ?)`,
		runID, formatTime(startedAt), StageStarted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read run token id: %w", err)
	}
	return &RunToken{ID: id, RunID: runID, StartedAt: startedAt, Stage: StageStarted}, nil
}

// MarkRunStage records the stage a run has entered. Finished tokens are left
// untouched.
func (s *Store) MarkRunStage(ctx context.Context, id int64, stage string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE run_tokens SET stage = ? WHERE id = ? AND finished_at IS NULL`,
		stage, id,
	); err != nil {
		return fmt.Errorf("mark run %d stage %s: %w", id, stage, err)
	}
	return nil
}

// FinishRun sets the finish time, song count and date warning count on a
// token and moves it to the completed stage.
func (s *Store) FinishRun(ctx context.Context, id int64, finishedAt time.Time, songCount, dateWarnings int) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE run_tokens
         SET finished_at = ?, song_count = ?, date_warnings = ?, stage = ?
         WHERE id = ? AND finished_at IS NULL`,
		formatTime(finishedAt), songCount, dateWarnings, StageCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %d: token missing or already finished", id)
	}
	return nil
}

// RunByID returns the token with the given row ID, or nil.
func (s *Store) RunByID(ctx context.Context, id int64) (*RunToken, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM run_tokens WHERE id = ?`, id)
	token, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return token, nil
}

// LatestRun returns the most recently started token, or nil when no run has
// been recorded.
func (s *Store) LatestRun(ctx context.Context) (*RunToken, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM run_tokens ORDER BY started_at DESC, id DESC LIMIT 1`)
	token, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return token, nil
}

// ListRuns returns up to limit tokens, newest first. A non-positive limit
// returns all of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunToken, error) {
	query := `SELECT ` + runColumns + ` FROM run_tokens ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// UnfinishedRunsBefore returns tokens without a finish time that started
// before cutoff, oldest first.
func (s *Store) UnfinishedRunsBefore(ctx context.Context, cutoff time.Time) ([]RunToken, error) {
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM run_tokens
         WHERE finished_at IS NULL AND started_at < ?
         ORDER BY started_at`,
		formatTime(cutoff),
	)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]RunToken, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var tokens []RunToken
	for rows.Next() {
		token, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		tokens = append(tokens, *token)
	}
	return tokens, rows.Err()
}

// Health counts catalog rows and reports the latest run.
func (s *Store) Health(ctx context.Context) (Health, error) {
	ctx = ensureContext(ctx)
	var health Health
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM entries`, &health.Entries},
		{`SELECT COUNT(1) FROM tags`, &health.Tags},
		{`SELECT COUNT(1) FROM run_tokens`, &health.Runs},
		{`SELECT COUNT(1) FROM run_tokens WHERE finished_at IS NULL`, &health.Unfinished},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Health{}, fmt.Errorf("catalog health: %w", err)
		}
	}
	latest, err := s.LatestRun(ctx)
	if err != nil {
		return Health{}, err
	}
	health.LatestRun = latest
	return health, nil
}

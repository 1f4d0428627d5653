package catalog

import "time"

// DateLayout is the storage format for release dates.
const DateLayout = "2006-01-02"

// Entry is one catalog song keyed by its song number.
type Entry struct {
	ID           int64
	SongNumber   int
	Title        string
	Description  string
	URL          string
	DownloadURL  string
	ViewCount    *int64
	LikeCount    *int64
	DislikeCount *int64
	ThumbnailURL string
	// ReleaseDate is a calendar date at UTC midnight, nil when unknown.
	ReleaseDate *time.Time
	// Tags is populated on reads only. SaveEntry ignores it.
	Tags      []Tag
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagTexts returns the entry's tag texts in stored order.
func (e Entry) TagTexts() []string {
	out := make([]string, 0, len(e.Tags))
	for _, tag := range e.Tags {
		out = append(out, tag.Text)
	}
	return out
}

// Tag is a shared, case-normalized label.
type Tag struct {
	ID   int64
	Text string
}

// Run stages recorded on a token.
const (
	StageStarted   = "started"
	StageFetching  = "fetching"
	StageEnriching = "enriching"
	StageMerging   = "merging"
	StageCompleted = "completed"
)

// RunToken records one pipeline execution. FinishedAt stays nil unless the run
// completed.
type RunToken struct {
	ID           int64
	RunID        string
	StartedAt    time.Time
	FinishedAt   *time.Time
	SongCount    int
	DateWarnings int
	Stage        string
}

// Finished reports whether the run completed.
func (r RunToken) Finished() bool {
	return r.FinishedAt != nil
}

// Duration returns the run's wall time, or zero when unfinished.
func (r RunToken) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stale reports whether an unfinished run started more than after ago.
func (r RunToken) Stale(now time.Time, after time.Duration) bool {
	return r.FinishedAt == nil && now.Sub(r.StartedAt) > after
}

// Health summarizes catalog contents.
type Health struct {
	Entries    int
	Tags       int
	Runs       int
	Unfinished int
	LatestRun  *RunToken
}

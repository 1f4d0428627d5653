package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"songaday/internal/catalog"
)

type entryView struct {
	SongNumber   int      `json:"song_number"`
	Title        string   `json:"title"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	URL          string   `json:"url"`
	DownloadURL  string   `json:"download_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	ViewCount    *int64   `json:"view_count,omitempty"`
	LikeCount    *int64   `json:"like_count,omitempty"`
	DislikeCount *int64   `json:"dislike_count,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags"`
	UpdatedAt    string   `json:"updated_at"`
	Score        float64  `json:"score,omitempty"`
}

func newEntryView(entry catalog.Entry) entryView {
	view := entryView{
		SongNumber:   entry.SongNumber,
		Title:        entry.Title,
		URL:          entry.URL,
		DownloadURL:  entry.DownloadURL,
		Description:  entry.Description,
		ViewCount:    entry.ViewCount,
		LikeCount:    entry.LikeCount,
		DislikeCount: entry.DislikeCount,
		ThumbnailURL: entry.ThumbnailURL,
		Tags:         entry.TagTexts(),
		UpdatedAt:    entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if entry.ReleaseDate != nil {
		view.ReleaseDate = entry.ReleaseDate.Format(catalog.DateLayout)
	}
	return view
}

func newEntryViews(entries []catalog.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newEntryView(entry))
	}
	return views
}

type runView struct {
	ID           int64  `json:"id"`
	RunID        string `json:"run_id"`
	Stage        string `json:"stage"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at,omitempty"`
	SongCount    int    `json:"song_count"`
	DateWarnings int    `json:"date_warnings"`
	Stale        bool   `json:"stale"`
}

func newRunView(token catalog.RunToken, now time.Time, staleAfter time.Duration) runView {
	view := runView{
		ID:           token.ID,
		RunID:        token.RunID,
		Stage:        token.Stage,
		StartedAt:    token.StartedAt.UTC().Format(time.RFC3339),
		SongCount:    token.SongCount,
		DateWarnings: token.DateWarnings,
		Stale:        token.Stale(now, staleAfter),
	}
	if token.FinishedAt != nil {
		view.FinishedAt = token.FinishedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func renderEntries(entries []catalog.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		date := "-"
		if entry.ReleaseDate != nil {
			date = entry.ReleaseDate.Format(catalog.DateLayout)
		}
		rows = append(rows, []string{
			strconv.Itoa(entry.SongNumber),
			date,
			entry.Title,
			formatCount(entry.ViewCount),
			strings.Join(entry.TagTexts(), ", "),
		})
	}
	return renderTable(
		[]string{"#", "Released", "Title", "Views", "Tags"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderEntryDetail(entry catalog.Entry) string {
	view := newEntryView(entry)
	rows := [][]string{
		{"Song", strconv.Itoa(view.SongNumber)},
		{"Title", view.Title},
		{"Released", fallback(view.ReleaseDate, "-")},
		{"URL", view.URL},
		{"Download", fallback(view.DownloadURL, "-")},
		{"Views", formatCount(entry.ViewCount)},
		{"Likes", formatCount(entry.LikeCount)},
		{"Dislikes", formatCount(entry.DislikeCount)},
		{"Thumbnail", fallback(view.ThumbnailURL, "-")},
		{"Tags", fallback(strings.Join(view.Tags, ", "), "-")},
		{"Updated", humanize.Time(entry.UpdatedAt)},
	}
	out := renderTable([]string{"Field", "Value"}, rows, nil)
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		out += "\n\n" + desc
	}
	return out
}

func renderRuns(tokens []catalog.RunToken, now time.Time, staleAfter time.Duration) string {
	rows := make([][]string, 0, len(tokens))
	for _, token := range tokens {
		finished := "-"
		duration := "-"
		if token.FinishedAt != nil {
			finished = humanize.RelTime(*token.FinishedAt, now, "ago", "from now")
			duration = token.Duration().Round(time.Millisecond).String()
		}
		stageLabel := token.Stage
		if token.Stale(now, staleAfter) {
			stageLabel += " (stale)"
		}
		rows = append(rows, []string{
			strconv.FormatInt(token.ID, 10),
			shortID(token.RunID),
			stageLabel,
			humanize.RelTime(token.StartedAt, now, "ago", "from now"),
			finished,
			duration,
			humanize.Comma(int64(token.SongCount)),
			strconv.Itoa(token.DateWarnings),
		})
	}
	return renderTable(
		[]string{"ID", "Run", "Stage", "Started", "Finished", "Took", "Songs", "Date warnings"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func formatCount(v *int64) string {
	if v == nil {
		return "-"
	}
	return humanize.Comma(*v)
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

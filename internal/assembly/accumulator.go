package assembly

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"songaday/internal/feed"
	"songaday/internal/logging"
)

type candidate struct {
	record   Record
	hasTitle bool
	hasURL   bool
}

func (c *candidate) complete() bool {
	return c != nil && c.record.SongNumber > 0 && c.hasTitle && c.hasURL
}

// Accumulator holds the candidate currently being filled. The zero value is
// ready to use and discards diagnostics.
type Accumulator struct {
	logger  *slog.Logger
	pending *candidate
}

// NewAccumulator returns an accumulator that reports dropped cells and
// unrecognized links to logger.
func NewAccumulator(logger *slog.Logger) *Accumulator {
	return &Accumulator{logger: logger}
}

// Step folds one cell into the accumulator. It returns the previous candidate
// when a number cell closes it and that candidate is complete. A data cell
// whose column falls outside the layout fails with feed.ErrInvalidColumn.
func (a *Accumulator) Step(cell feed.Cell) (Record, bool, error) {
	if cell.Row <= 1 {
		return Record{}, false, nil
	}
	col, err := cell.Column()
	if err != nil {
		return Record{}, false, fmt.Errorf("row %d: %w", cell.Row, err)
	}

	if col == feed.ColumnSongNumber {
		closed := a.pending
		a.pending = &candidate{record: Record{SongNumber: parseSongNumber(cell.Value)}}
		if closed.complete() {
			return closed.record, true, nil
		}
		if closed != nil {
			a.log().Debug("candidate discarded",
				logging.SongNumber(closed.record.SongNumber),
				logging.Bool("has_title", closed.hasTitle),
				logging.Bool("has_url", closed.hasURL),
			)
		}
		return Record{}, false, nil
	}

	if a.pending == nil {
		a.log().Debug("cell before first song number dropped",
			logging.Int("row", cell.Row),
			logging.String("column", col.String()),
		)
		return Record{}, false, nil
	}

	rec := &a.pending.record
	switch col {
	case feed.ColumnReleaseDate:
		rec.ReleaseDate = cell.Value
	case feed.ColumnTitle:
		rec.Title = cell.Value
		a.pending.hasTitle = true
	case feed.ColumnURL:
		rec.URL = cell.Value
		a.pending.hasURL = true
		id, err := YouTubeID(cell.Value)
		if err != nil {
			logging.WarnWithContext(a.log(), "video link not recognized", "unrecognized_link",
				logging.SongNumber(rec.SongNumber),
				logging.String("url", cell.Value),
				logging.String(logging.FieldErrorHint, "check the link column in the spreadsheet"),
				logging.String(logging.FieldImpact, "song is stored without video metadata"),
			)
			rec.YouTubeID = ""
		} else {
			rec.YouTubeID = id
		}
	case feed.ColumnDownloadURL:
		rec.DownloadURL = cell.Value
	case feed.ColumnTags:
		rec.Tags = splitTags(cell.Value)
	case feed.ColumnDescription:
		rec.Description = cell.Value
	}
	return Record{}, false, nil
}

// Flush emits the final pending candidate if it is complete and resets the
// accumulator.
func (a *Accumulator) Flush() (Record, bool) {
	closed := a.pending
	a.pending = nil
	if closed.complete() {
		return closed.record, true
	}
	return Record{}, false
}

func (a *Accumulator) log() *slog.Logger {
	if a.logger == nil {
		return logging.NewNop()
	}
	return a.logger
}

// parseSongNumber keeps only the digits of value. Text without digits, or
// digits that overflow, yields zero, which never completes a candidate.
func parseSongNumber(value string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func splitTags(value string) []string {
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

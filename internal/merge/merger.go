package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"songaday/internal/assembly"
	"songaday/internal/catalog"
	"songaday/internal/logging"
	"songaday/internal/services"
)

// ReleaseDateLayout is the feed's release date format.
const ReleaseDateLayout = "1/2/2006"

// Catalog is the store surface the merger writes through.
type Catalog interface {
	EntryByNumber(ctx context.Context, songNumber int) (*catalog.Entry, error)
	SaveEntry(ctx context.Context, entry *catalog.Entry) error
	UpsertTag(ctx context.Context, text string) (catalog.Tag, error)
	AttachTags(ctx context.Context, entryID int64, tagIDs []int64) error
}

// Indexer receives each merged entry.
type Indexer interface {
	IndexEntry(entry catalog.Entry) error
}

// Stats summarizes one merge.
type Stats struct {
	Created      int
	Updated      int
	Tagged       int
	DateWarnings int
}

// Merged is the number of records written.
func (s Stats) Merged() int {
	return s.Created + s.Updated
}

// Merger writes records into a Catalog.
type Merger struct {
	catalog Catalog
	indexer Indexer
	logger  *slog.Logger
}

// Option configures a Merger.
type Option func(*Merger)

// WithIndexer reindexes every merged entry.
func WithIndexer(indexer Indexer) Option {
	return func(m *Merger) {
		m.indexer = indexer
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Merger writing to store.
func New(store Catalog, opts ...Option) *Merger {
	m := &Merger{catalog: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge upserts records in order. It stops at the first failure; entries
// already written stay written.
func (m *Merger) Merge(ctx context.Context, records []assembly.Record) (Stats, error) {
	logger := logging.WithContext(ctx, m.logger)
	var stats Stats
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := m.mergeRecord(ctx, logger, rec, &stats); err != nil {
			return stats, err
		}
	}
	logger.Info("catalog merged",
		logging.Int("created", stats.Created),
		logging.Int("updated", stats.Updated),
		logging.Int("date_warnings", stats.DateWarnings),
	)
	return stats, nil
}

func (m *Merger) mergeRecord(ctx context.Context, logger *slog.Logger, rec assembly.Record, stats *Stats) error {
	if rec.SongNumber <= 0 {
		return services.Wrap(services.ErrValidation, catalog.StageMerging, "merge record",
			fmt.Sprintf("record %q has no song number", rec.Title), nil)
	}

	entry, err := m.catalog.EntryByNumber(ctx, rec.SongNumber)
	if err != nil {
		return fmt.Errorf("look up song %d: %w", rec.SongNumber, err)
	}
	created := entry == nil
	if created {
		entry = &catalog.Entry{SongNumber: rec.SongNumber}
	}

	entry.Title = rec.Title
	entry.Description = rec.Description
	entry.URL = rec.URL
	entry.DownloadURL = rec.DownloadURL
	entry.ViewCount = rec.ViewCount
	entry.LikeCount = rec.LikeCount
	entry.DislikeCount = rec.DislikeCount
	entry.ThumbnailURL = rec.ThumbnailURL

	if date, ok, err := ParseReleaseDate(rec.ReleaseDate); err != nil {
		stats.DateWarnings++
		logging.WarnWithContext(logger, "release date not recognized", "release_date_invalid",
			logging.SongNumber(rec.SongNumber),
			logging.String("release_date", rec.ReleaseDate),
			logging.String(logging.FieldErrorHint, "release dates must be month/day/year"),
			logging.String(logging.FieldImpact, "previous release date kept"),
		)
	} else if ok {
		entry.ReleaseDate = &date
	}

	if err := m.catalog.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("save song %d: %w", rec.SongNumber, err)
	}

	tagIDs, err := m.upsertTags(ctx, rec.Tags)
	if err != nil {
		return fmt.Errorf("tag song %d: %w", rec.SongNumber, err)
	}
	if len(tagIDs) > 0 {
		if err := m.catalog.AttachTags(ctx, entry.ID, tagIDs); err != nil {
			return fmt.Errorf("attach tags to song %d: %w", rec.SongNumber, err)
		}
		stats.Tagged++
	}

	if err := m.catalog.SaveEntry(ctx, entry); err != nil {
		return fmt.Errorf("save song %d after tagging: %w", rec.SongNumber, err)
	}

	if created {
		stats.Created++
	} else {
		stats.Updated++
	}

	if m.indexer != nil {
		m.index(ctx, logger, entry.ID, rec)
	}
	return nil
}

func (m *Merger) upsertTags(ctx context.Context, texts []string) ([]int64, error) {
	seen := make(map[int64]struct{}, len(texts))
	ids := make([]int64, 0, len(texts))
	for _, text := range texts {
		tag, err := m.catalog.UpsertTag(ctx, text)
		if errors.Is(err, catalog.ErrEmptyTag) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// index refreshes the search document from the stored entry so the indexed
// tags include earlier associations. Index failures are logged; the catalog
// stays authoritative.
func (m *Merger) index(ctx context.Context, logger *slog.Logger, entryID int64, rec assembly.Record) {
	stored, err := m.catalog.EntryByNumber(ctx, rec.SongNumber)
	if err != nil || stored == nil {
		stored = &catalog.Entry{ID: entryID, SongNumber: rec.SongNumber, Title: rec.Title, Description: rec.Description}
	}
	if err := m.indexer.IndexEntry(*stored); err != nil {
		logging.WarnWithContext(logger, "search index update failed", "search_index_failed",
			logging.SongNumber(rec.SongNumber),
			logging.Error(err),
			logging.String(logging.FieldImpact, "song missing from search until reindex"),
			logging.String(logging.FieldErrorHint, "run songaday catalog reindex"),
		)
	}
}

// ParseReleaseDate parses month/day/year release text. Blank text reports
// ok=false with no error.
func ParseReleaseDate(text string) (time.Time, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false, nil
	}
	date, err := time.Parse(ReleaseDateLayout, text)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse release date %q: %w", text, err)
	}
	return date, true, nil
}

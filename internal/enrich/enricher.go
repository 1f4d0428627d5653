package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"songaday/internal/assembly"
	"songaday/internal/logging"
	"songaday/internal/youtube"
)

// ErrMetadataQuery reports a failed metadata chunk. Enrichment stops at the
// first one.
var ErrMetadataQuery = errors.New("unable to query youtube api, possibly over quota")

// Enricher attaches video metadata to records.
type Enricher struct {
	lister    youtube.Lister
	chunkSize int
	logger    *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithChunkSize lowers the number of IDs per query. Values outside
// 1..youtube.MaxIDsPerQuery are ignored.
func WithChunkSize(size int) Option {
	return func(e *Enricher) {
		if size >= 1 && size <= youtube.MaxIDsPerQuery {
			e.chunkSize = size
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Enricher backed by lister.
func New(lister youtube.Lister, opts ...Option) *Enricher {
	e := &Enricher{
		lister:    lister,
		chunkSize: youtube.MaxIDsPerQuery,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a new slice holding every input record exactly once. The
// input slice and its records are never modified. On error no records are
// returned.
func (e *Enricher) Enrich(ctx context.Context, records []assembly.Record) ([]assembly.Record, error) {
	logger := logging.WithContext(ctx, e.logger)

	chunks := Chunk(DistinctIDs(records), e.chunkSize)
	var bundles []Metadata
	for i, ids := range chunks {
		videos, err := e.lister.ListVideos(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %w", ErrMetadataQuery, i+1, len(chunks), err)
		}
		for _, video := range videos {
			bundle, err := BundleFromVideo(video)
			if err != nil {
				return nil, fmt.Errorf("%w: chunk %d/%d: %w", ErrMetadataQuery, i+1, len(chunks), err)
			}
			bundles = append(bundles, bundle)
		}
		logger.Debug("metadata chunk fetched",
			logging.Int("chunk", i+1),
			logging.Int("ids", len(ids)),
			logging.Int("videos", len(videos)),
		)
	}

	waiting := make(map[string][]int, len(records))
	for idx, rec := range records {
		if rec.HasYouTubeID() {
			waiting[rec.YouTubeID] = append(waiting[rec.YouTubeID], idx)
		}
	}

	out := make([]assembly.Record, 0, len(records))
	matched := make([]bool, len(records))
	for _, bundle := range bundles {
		queue := waiting[bundle.YouTubeID]
		if len(queue) == 0 {
			logger.Debug("metadata for unknown video skipped", logging.String("youtube_id", bundle.YouTubeID))
			continue
		}
		idx := queue[0]
		waiting[bundle.YouTubeID] = queue[1:]
		matched[idx] = true
		out = append(out, Apply(records[idx], bundle))
	}
	for idx, rec := range records {
		if !matched[idx] {
			out = append(out, rec.Clone())
		}
	}

	logger.Info("metadata merged",
		logging.Int("records", len(records)),
		logging.Int("queries", len(chunks)),
		logging.Int("enriched", len(out)-countFalse(matched)),
	)
	return out, nil
}

// DistinctIDs lists the video IDs of records in first-seen order.
func DistinctIDs(records []assembly.Record) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if !rec.HasYouTubeID() {
			continue
		}
		if _, ok := seen[rec.YouTubeID]; ok {
			continue
		}
		seen[rec.YouTubeID] = struct{}{}
		ids = append(ids, rec.YouTubeID)
	}
	return ids
}

// Chunk splits ids into consecutive groups of at most size. A size outside
// 1..youtube.MaxIDsPerQuery falls back to youtube.MaxIDsPerQuery.
func Chunk(ids []string, size int) [][]string {
	if size < 1 || size > youtube.MaxIDsPerQuery {
		size = youtube.MaxIDsPerQuery
	}
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}

func countFalse(values []bool) int {
	n := 0
	for _, v := range values {
		if !v {
			n++
		}
	}
	return n
}

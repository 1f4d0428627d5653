package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"songaday/internal/catalog"
	"songaday/internal/logging"
)

const batchSize = 500

// Index wraps a Bleve index of catalog entries. All methods are safe for
// concurrent use.
type Index struct {
	mu       sync.RWMutex
	index    bleve.Index
	path     string
	minScore float64
	logger   *slog.Logger
}

// Options configures the index.
type Options struct {
	// Path is the index directory. Empty keeps the index in memory.
	Path string
	// MinScore drops hits scoring below it.
	MinScore float64
	Logger   *slog.Logger
}

// Hit is one ranked search result.
type Hit struct {
	SongNumber int
	Score      float64
}

// Open creates or opens the index. An on-disk index written with a different
// mapping version, or one that fails to open, is discarded and recreated
// empty.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	idx := &Index{path: opts.Path, minScore: opts.MinScore, logger: logger}

	if opts.Path == "" {
		mem, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		idx.index = mem
		return idx, nil
	}

	bi, err := openOrCreate(opts.Path, logger)
	if err != nil {
		return nil, err
	}
	idx.index = bi
	return idx, nil
}

func versionPath(indexPath string) string {
	return strings.TrimSuffix(indexPath, filepath.Ext(indexPath)) + ".version"
}

func openOrCreate(indexPath string, logger *slog.Logger) (bleve.Index, error) {
	needsRebuild := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath(indexPath))
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, recreating", logging.String("new_version", mappingVersion))
			needsRebuild = true
		case strings.TrimSpace(string(existing)) != mappingVersion:
			logger.Info("search index mapping changed, recreating",
				logging.String("old_version", strings.TrimSpace(string(existing))),
				logging.String("new_version", mappingVersion),
			)
			needsRebuild = true
		default:
			bi, err := bleve.Open(indexPath)
			if err == nil {
				logger.Debug("opened search index", logging.String("path", indexPath))
				return bi, nil
			}
			logging.WarnWithContext(logger, "search index unreadable, recreating", "search_index_corrupt",
				logging.String("path", indexPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "search returns nothing until the index is rebuilt"),
				logging.String(logging.FieldErrorHint, "run songaday catalog reindex"),
			)
			needsRebuild = true
		}
	}
	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}
	return create(indexPath, logger)
}

func create(indexPath string, logger *slog.Logger) (bleve.Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index parent: %w", err)
	}
	bi, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(versionPath(indexPath), []byte(mappingVersion), 0o644); err != nil {
		logger.Warn("failed to write search version file", logging.Error(err))
	}
	logger.Info("created search index", logging.String("path", indexPath), logging.String("mapping_version", mappingVersion))
	return bi, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.index == nil {
		return nil
	}
	err := i.index.Close()
	i.index = nil
	return err
}

// IndexEntry adds or replaces the document for entry.
func (i *Index) IndexEntry(entry catalog.Entry) error {
	doc := DocumentFromEntry(entry)
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return errors.New("search index closed")
	}
	return i.index.Index(doc.ID(), doc.toMap())
}

// IndexEntries adds or replaces documents in batches.
func (i *Index) IndexEntries(entries []catalog.Entry) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return errors.New("search index closed")
	}
	return indexBatches(i.index, entries)
}

func indexBatches(bi bleve.Index, entries []catalog.Entry) error {
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		batch := bi.NewBatch()
		for _, entry := range entries[start:end] {
			doc := DocumentFromEntry(entry)
			if err := batch.Index(doc.ID(), doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID(), err)
			}
		}
		if err := bi.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Rebuild discards every document and indexes entries from scratch.
func (i *Index) Rebuild(entries []catalog.Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.index != nil {
		if err := i.index.Close(); err != nil {
			return fmt.Errorf("close index: %w", err)
		}
		i.index = nil
	}

	var (
		fresh bleve.Index
		err   error
	)
	if i.path == "" {
		fresh, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(i.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		fresh, err = create(i.path, i.logger)
	}
	if err != nil {
		return fmt.Errorf("recreate index: %w", err)
	}
	i.index = fresh

	if err := indexBatches(fresh, entries); err != nil {
		return err
	}
	i.logger.Info("search index rebuilt", logging.Int("documents", len(entries)))
	return nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return 0, errors.New("search index closed")
	}
	return i.index.DocCount()
}

// Search ranks entries by how well text matches their title and description.
// Hits scoring below the configured minimum are dropped. Blank text returns
// no hits.
func (i *Index) Search(ctx context.Context, text string, limit int) ([]Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 25
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.index == nil {
		return nil, errors.New("search index closed")
	}

	request := bleve.NewSearchRequestOptions(similarityQuery(text), limit, 0, false)
	request.Fields = []string{fieldSongNumber}
	result, err := i.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		if match.Score < i.minScore {
			continue
		}
		number, err := strconv.Atoi(match.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{SongNumber: number, Score: match.Score})
	}
	return hits, nil
}

// similarityQuery sums title and description relevance. The fuzzy title
// clause tolerates one-letter typos.
func similarityQuery(text string) query.Query {
	title := bleve.NewMatchQuery(text)
	title.SetField(fieldTitle)

	fuzzyTitle := bleve.NewMatchQuery(text)
	fuzzyTitle.SetField(fieldTitle)
	fuzzyTitle.SetFuzziness(1)
	fuzzyTitle.SetBoost(0.5)

	description := bleve.NewMatchQuery(text)
	description.SetField(fieldDescription)

	return bleve.NewDisjunctionQuery(title, fuzzyTitle, description)
}

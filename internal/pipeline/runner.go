package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"songaday/internal/assembly"
	"songaday/internal/catalog"
	"songaday/internal/enrich"
	"songaday/internal/feed"
	"songaday/internal/logging"
	"songaday/internal/merge"
	"songaday/internal/services"
	"songaday/internal/stage"
	"songaday/internal/youtube"
)

// Store is the catalog surface a run writes to.
type Store interface {
	merge.Catalog
	StartRun(ctx context.Context, runID string, startedAt time.Time) (*catalog.RunToken, error)
	MarkRunStage(ctx context.Context, id int64, stage string) error
	FinishRun(ctx context.Context, id int64, finishedAt time.Time, songCount, dateWarnings int) error
}

// Options wires a Runner.
type Options struct {
	Feed     feed.Source
	Metadata youtube.Lister
	Store    Store
	// Indexer, when set, receives every merged entry.
	Indexer   merge.Indexer
	ChunkSize int
	Logger    *slog.Logger
	// StoreHealth backs the merge stage health check.
	StoreHealth func(context.Context) error
	Clock       func() time.Time
	NewRunID    func() string
}

// Runner executes pipeline runs one at a time.
type Runner struct {
	store    Store
	stages   []stage.Handler
	logger   *slog.Logger
	clock    func() time.Time
	newRunID func() string
}

// New builds a Runner with the fetch, enrich and merge stages.
func New(opts Options) (*Runner, error) {
	if opts.Feed == nil {
		return nil, errors.New("pipeline requires a feed source")
	}
	if opts.Metadata == nil {
		return nil, errors.New("pipeline requires a metadata client")
	}
	if opts.Store == nil {
		return nil, errors.New("pipeline requires a catalog store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	newRunID := opts.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	mergeOpts := []merge.Option{merge.WithLogger(logging.NewComponentLogger(logger, "merge"))}
	if opts.Indexer != nil {
		mergeOpts = append(mergeOpts, merge.WithIndexer(opts.Indexer))
	}

	return &Runner{
		store: opts.Store,
		stages: []stage.Handler{
			&fetchStage{
				source:    opts.Feed,
				assembler: assembly.New(logging.NewComponentLogger(logger, "assembly")),
			},
			&enrichStage{
				enricher: enrich.New(opts.Metadata,
					enrich.WithChunkSize(opts.ChunkSize),
					enrich.WithLogger(logging.NewComponentLogger(logger, "enrich")),
				),
			},
			&mergeStage{
				merger: merge.New(opts.Store, mergeOpts...),
				health: opts.StoreHealth,
			},
		},
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		clock:    clock,
		newRunID: newRunID,
	}, nil
}

// Run executes one full pipeline pass. The returned run context is non-nil
// whenever a token was created, including on failure.
func (r *Runner) Run(ctx context.Context) (*stage.Run, error) {
	run := &stage.Run{ID: r.newRunID(), StartedAt: r.clock().UTC(), Stage: catalog.StageStarted}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, r.logger)

	token, err := r.store.StartRun(ctx, run.ID, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create run token: %w", err)
	}
	run.TokenID = token.ID
	logger.Info("run started", logging.String(logging.FieldEventType, "run_start"))

	for _, handler := range r.stages {
		name := handler.Name()
		stageCtx := services.WithStage(ctx, name)
		stageLogger := logging.WithContext(stageCtx, r.logger)

		if err := r.store.MarkRunStage(stageCtx, token.ID, name); err != nil {
			return run, fmt.Errorf("record stage %s: %w", name, err)
		}
		run.Stage = name

		stageStart := r.clock()
		stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
		if err := handler.Execute(stageCtx, run); err != nil {
			logStageFailure(stageLogger, err)
			return run, err
		}
		stageLogger.Info("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Int("records", len(run.Records)),
			logging.Duration("duration", r.clock().Sub(stageStart)),
		)
	}

	finishedAt := r.clock().UTC()
	if err := r.store.FinishRun(ctx, token.ID, finishedAt, run.SongCount(), run.Stats.DateWarnings); err != nil {
		return run, fmt.Errorf("finish run token: %w", err)
	}
	run.Stage = catalog.StageCompleted
	run.FinishedAt = finishedAt

	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("cells", run.Cells),
		logging.Int("songs", run.SongCount()),
		logging.Int("created", run.Stats.Created),
		logging.Int("updated", run.Stats.Updated),
		logging.Int("date_warnings", run.Stats.DateWarnings),
		logging.Duration("duration", finishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// Health reports readiness of each stage in execution order.
func (r *Runner) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(r.stages))
	for _, handler := range r.stages {
		out = append(out, handler.HealthCheck(ctx))
	}
	return out
}

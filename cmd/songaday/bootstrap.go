package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"songaday/internal/catalog"
	"songaday/internal/config"
	"songaday/internal/daemon"
	"songaday/internal/feed"
	"songaday/internal/logging"
	"songaday/internal/pipeline"
	"songaday/internal/stage"
	"songaday/internal/youtube"
)

// catalogRunner builds a fresh pipeline per run so the search index is only
// held open while a run writes to it.
type catalogRunner struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger
}

func (r *catalogRunner) Run(ctx context.Context) (*stage.Run, error) {
	opts, err := pipelineOptions(r.cfg, r.store, r.logger)
	if err != nil {
		return nil, err
	}

	idx, err := openIndex(r.cfg, r.logger)
	if err != nil {
		logging.WarnWithContext(r.logger, "search index unavailable", "search_index_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "merged songs are not indexed this run"),
			logging.String(logging.FieldErrorHint, "run songaday catalog reindex once the index opens"),
		)
	}
	if idx != nil {
		defer idx.Close()
		opts.Indexer = idx
	}

	runner, err := pipeline.New(opts)
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx)
}

func pipelineOptions(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (pipeline.Options, error) {
	source, err := feed.NewClient(cfg.Feed.URL, feed.WithTimeout(cfg.FeedTimeout()))
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("feed client: %w", err)
	}
	lister, err := youtube.New(cfg.YouTube.APIKey, cfg.YouTube.BaseURL,
		youtube.WithHTTPClient(&http.Client{Timeout: cfg.YouTubeTimeout()}),
		youtube.WithRateLimit(cfg.YouTube.RequestsPerSecond, cfg.YouTube.Burst),
	)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("youtube client: %w", err)
	}
	return pipeline.Options{
		Feed:      source,
		Metadata:  lister,
		Store:     store,
		ChunkSize: cfg.YouTube.ChunkSize,
		Logger:    logger,
		StoreHealth: func(ctx context.Context) error {
			_, err := store.Health(ctx)
			return err
		},
	}, nil
}

func newScheduler(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*daemon.Daemon, error) {
	return daemon.New(daemon.Options{
		Runner:     &catalogRunner{cfg: cfg, store: store, logger: logger},
		Tokens:     store,
		Lock:       daemon.NewRunLock(cfg.LockPath()),
		Interval:   cfg.RunInterval(),
		StaleAfter: cfg.StaleAfter(),
		Logger:     logger,
	})
}

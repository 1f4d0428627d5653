package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"songaday/internal/assembly"
	"songaday/internal/catalog"
	"songaday/internal/enrich"
	"songaday/internal/feed"
	"songaday/internal/logging"
	"songaday/internal/merge"
	"songaday/internal/services"
	"songaday/internal/stage"
)

type fetchStage struct {
	source    feed.Source
	assembler *assembly.Assembler
}

func (s *fetchStage) Name() string { return catalog.StageFetching }

func (s *fetchStage) Execute(ctx context.Context, run *stage.Run) error {
	body, err := s.source.Fetch(ctx)
	if err != nil {
		return classify(s.Name(), "fetch feed", "feed unavailable", err)
	}
	payload, err := feed.Parse(body)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "parse feed", "feed payload unreadable", err)
	}
	cells, err := payload.Cells()
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "parse feed", "feed cell positions unreadable", err)
	}
	records, err := s.assembler.Assemble(cells)
	if err != nil {
		return services.Wrap(services.ErrValidation, s.Name(), "assemble records", "feed layout changed", err)
	}
	run.Cells = len(cells)
	run.Records = records
	return nil
}

func (s *fetchStage) HealthCheck(context.Context) stage.Health {
	if s.source == nil {
		return stage.Unhealthy(s.Name(), "feed source not configured")
	}
	return stage.Healthy(s.Name())
}

type enrichStage struct {
	enricher *enrich.Enricher
}

func (s *enrichStage) Name() string { return catalog.StageEnriching }

func (s *enrichStage) Execute(ctx context.Context, run *stage.Run) error {
	enriched, err := s.enricher.Enrich(ctx, run.Records)
	if err != nil {
		return classify(s.Name(), "query metadata", "youtube metadata unavailable", err)
	}
	run.Records = enriched
	return nil
}

func (s *enrichStage) HealthCheck(context.Context) stage.Health {
	if s.enricher == nil {
		return stage.Unhealthy(s.Name(), "youtube client not configured")
	}
	return stage.Healthy(s.Name())
}

type mergeStage struct {
	merger *merge.Merger
	health func(context.Context) error
}

func (s *mergeStage) Name() string { return catalog.StageMerging }

func (s *mergeStage) Execute(ctx context.Context, run *stage.Run) error {
	stats, err := s.merger.Merge(ctx, run.Records)
	run.Stats = stats
	if err != nil {
		return classify(s.Name(), "merge catalog", "catalog write failed", err)
	}
	return nil
}

func (s *mergeStage) HealthCheck(ctx context.Context) stage.Health {
	if s.health == nil {
		return stage.Healthy(s.Name())
	}
	if err := s.health(ctx); err != nil {
		return stage.Unhealthy(s.Name(), err.Error())
	}
	return stage.Healthy(s.Name())
}

// classify tags err with a services marker unless it already carries one.
func classify(stageName, operation, message string, err error) error {
	for _, marker := range []error{
		services.ErrValidation,
		services.ErrConfiguration,
		services.ErrNotFound,
		services.ErrExternalService,
		services.ErrTimeout,
		services.ErrTransient,
	} {
		if errors.Is(err, marker) {
			return err
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, operation, message, err)
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrTransient, stageName, operation, "run cancelled", err)
	default:
		return services.Wrap(services.ErrExternalService, stageName, operation, message, err)
	}
}

func failureHint(err error) string {
	if services.NeedsIntervention(err) {
		return "fix the feed or configuration; later runs repeat this failure"
	}
	return "the next scheduled run retries from scratch"
}

func logStageFailure(logger *slog.Logger, err error) {
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("failure_kind", services.FailureKind(err)),
		logging.String(logging.FieldErrorHint, failureHint(err)),
		logging.Error(err),
	)
}

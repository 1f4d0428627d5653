package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"songaday/internal/catalog"
	"songaday/internal/config"
	"songaday/internal/logging"
	"songaday/internal/pipeline"
	"songaday/internal/stage"
)

type statusReport struct {
	ConfigPath string         `json:"config_path,omitempty"`
	Catalog    string         `json:"catalog"`
	Entries    int            `json:"entries"`
	Tags       int            `json:"tags"`
	Runs       int            `json:"runs"`
	Unfinished int            `json:"unfinished_runs"`
	LatestRun  *runView       `json:"latest_run,omitempty"`
	Stages     []stage.Health `json:"stages"`
	SearchDocs *uint64        `json:"search_documents,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline readiness and catalog health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				opts, err := pipelineOptions(cfg, store, logging.NewNop())
				if err != nil {
					return err
				}
				runner, err := pipeline.New(opts)
				if err != nil {
					return err
				}

				now := time.Now()
				report := statusReport{
					ConfigPath: ctx.configPath(),
					Catalog:    store.Path(),
					Entries:    health.Entries,
					Tags:       health.Tags,
					Runs:       health.Runs,
					Unfinished: health.Unfinished,
					Stages:     runner.Health(cmd.Context()),
				}
				if health.LatestRun != nil {
					view := newRunView(*health.LatestRun, now, cfg.StaleAfter())
					report.LatestRun = &view
				}
				if idx, err := openIndex(cfg, logging.NewNop()); err == nil && idx != nil {
					if count, err := idx.Count(); err == nil {
						report.SearchDocs = &count
					}
					idx.Close()
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatus(report, health.LatestRun, now, cfg.StaleAfter(), shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func renderStatus(report statusReport, latest *catalog.RunToken, now time.Time, staleAfter time.Duration, colorize bool) string {
	p := &statusPrinter{colorize: colorize}

	p.section("Pipeline")
	for _, h := range report.Stages {
		if h.Ready {
			p.line(h.Name, statusOK, "ready")
		} else {
			p.line(h.Name, statusError, h.Detail)
		}
	}

	p.section("Catalog")
	p.line("Database", statusInfo, report.Catalog)
	p.line("Songs", statusInfo, humanize.Comma(int64(report.Entries)))
	p.line("Tags", statusInfo, humanize.Comma(int64(report.Tags)))
	if report.SearchDocs != nil {
		kind := statusOK
		if *report.SearchDocs != uint64(report.Entries) {
			kind = statusWarn
		}
		p.line("Search index", kind, fmt.Sprintf("%d documents", *report.SearchDocs))
	}

	p.section("Runs")
	p.line("Recorded", statusInfo, fmt.Sprintf("%d (%d unfinished)", report.Runs, report.Unfinished))
	kind, msg := latestRunStatus(latest, now, staleAfter)
	p.line("Latest", kind, msg)
	return p.String()
}

func latestRunStatus(latest *catalog.RunToken, now time.Time, staleAfter time.Duration) (statusKind, string) {
	ago := func(t time.Time) string { return humanize.RelTime(t, now, "ago", "from now") }
	switch {
	case latest == nil:
		return statusWarn, "no runs yet"
	case latest.Finished():
		return statusOK, fmt.Sprintf("%s finished %s, %d songs", shortID(latest.RunID), ago(*latest.FinishedAt), latest.SongCount)
	case latest.Stale(now, staleAfter):
		return statusError, fmt.Sprintf("%s stuck in %s since %s", shortID(latest.RunID), latest.Stage, ago(latest.StartedAt))
	default:
		return statusInfo, fmt.Sprintf("%s %s, started %s", shortID(latest.RunID), latest.Stage, ago(latest.StartedAt))
	}
}

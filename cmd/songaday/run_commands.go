package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"songaday/internal/catalog"
	"songaday/internal/config"
	"songaday/internal/daemon"
	"songaday/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, enrich, and merge the catalog once",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				scheduler, err := newScheduler(cfg, store, logger)
				if err != nil {
					return err
				}
				run, err := scheduler.RunOnce(cmd.Context())
				if errors.Is(err, daemon.ErrRunInProgress) {
					return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
				}
				if err != nil {
					return fmt.Errorf("run failed (%s): %w", services.FailureKind(err), err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, runSummary{
						RunID:        run.ID,
						Cells:        run.Cells,
						Songs:        run.SongCount(),
						Created:      run.Stats.Created,
						Updated:      run.Stats.Updated,
						DateWarnings: run.Stats.DateWarnings,
						Duration:     run.FinishedAt.Sub(run.StartedAt).String(),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s completed: %d songs (%d new, %d updated), %d date warnings\n",
					run.ID, run.SongCount(), run.Stats.Created, run.Stats.Updated, run.Stats.DateWarnings)
				return nil
			})
		},
	}
}

type runSummary struct {
	RunID        string `json:"run_id"`
	Cells        int    `json:"cells"`
	Songs        int    `json:"songs"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	DateWarnings int    `json:"date_warnings"`
	Duration     string `json:"duration"`
}

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the pipeline on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				scheduler, err := newScheduler(cfg, store, logger)
				if err != nil {
					return err
				}
				if err := scheduler.Start(cmd.Context()); err != nil {
					return err
				}
				scheduler.Wait(cmd.Context())

				status := scheduler.Status()
				fmt.Fprintf(cmd.OutOrStdout(), "Scheduler stopped after %d runs (%d failed, %d skipped)\n",
					status.Runs, status.Failures, status.Skipped)
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"songaday/internal/catalog"
	"songaday/internal/config"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect pipeline run tokens",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsLatestCommand(ctx))
	runsCmd.AddCommand(newRunsStaleCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				tokens, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return writeRuns(cmd, ctx, cfg, tokens)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	return cmd
}

func newRunsLatestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				token, err := store.LatestRun(cmd.Context())
				if err != nil {
					return err
				}
				if token == nil {
					if ctx.jsonOutput() {
						return writeJSON(cmd, nil)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, newRunView(*token, time.Now(), cfg.StaleAfter()))
				}
				return writeRuns(cmd, ctx, cfg, []catalog.RunToken{*token})
			})
		},
	}
}

func newRunsStaleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stale",
		Short: "List unfinished runs older than workflow.stale_after_minutes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				tokens, err := store.UnfinishedRunsBefore(cmd.Context(), time.Now().Add(-cfg.StaleAfter()))
				if err != nil {
					return err
				}
				return writeRuns(cmd, ctx, cfg, tokens)
			})
		},
	}
}

func writeRuns(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, tokens []catalog.RunToken) error {
	now := time.Now()
	if ctx.jsonOutput() {
		views := make([]runView, 0, len(tokens))
		for _, token := range tokens {
			views = append(views, newRunView(token, now, cfg.StaleAfter()))
		}
		return writeJSON(cmd, views)
	}
	if len(tokens) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderRuns(tokens, now, cfg.StaleAfter()))
	return nil
}

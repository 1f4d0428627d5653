package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"songaday/internal/catalog"
	"songaday/internal/config"
	"songaday/internal/merge"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the song catalog",
	}
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	catalogCmd.AddCommand(newCatalogDateCommand(ctx))
	catalogCmd.AddCommand(newCatalogTodayCommand(ctx))
	catalogCmd.AddCommand(newCatalogTagCommand(ctx))
	catalogCmd.AddCommand(newCatalogTagsCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogSearchCommand(ctx))
	catalogCmd.AddCommand(newCatalogReindexCommand(ctx))
	return catalogCmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show one song by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args[0]), "#"))
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid song number %q", args[0])
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entry, err := store.EntryByNumber(cmd.Context(), number)
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("song %d not found", number)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, newEntryView(*entry))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEntryDetail(*entry))
				return nil
			})
		},
	}
}

func newCatalogDateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "date <m/d/yyyy>",
		Short: "List songs released on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, ok, err := merge.ParseReleaseDate(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("date is required")
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entries, err := store.EntriesByDate(cmd.Context(), date)
				if err != nil {
					return err
				}
				return writeEntries(cmd, ctx, entries)
			})
		},
	}
}

func newCatalogTodayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List songs released on this calendar day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entries, err := store.EntriesByDate(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return writeEntries(cmd, ctx, entries)
			})
		},
	}
}

func newCatalogTagCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <text>",
		Short: "List songs carrying a tag",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entries, err := store.EntriesByTag(cmd.Context(), text)
				if err != nil {
					return err
				}
				return writeEntries(cmd, ctx, entries)
			})
		},
	}
}

func newCatalogTagsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				tags, err := store.ListTags(cmd.Context())
				if err != nil {
					return err
				}
				texts := make([]string, 0, len(tags))
				for _, tag := range tags {
					texts = append(texts, tag.Text)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, texts)
				}
				if len(texts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(texts, "\n"))
				return nil
			})
		},
	}
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every song by number",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				entries, err := store.ListEntries(cmd.Context())
				if err != nil {
					return err
				}
				return writeEntries(cmd, ctx, entries)
			})
		},
	}
}

func newCatalogSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find songs with similar titles or descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				idx, err := openIndex(cfg, logger)
				if err != nil {
					return err
				}
				if idx == nil {
					return errors.New("search is disabled (set search.enabled = true)")
				}
				defer idx.Close()

				if limit <= 0 {
					limit = cfg.Search.Limit
				}
				hits, err := idx.Search(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				numbers := make([]int, 0, len(hits))
				scores := make(map[int]float64, len(hits))
				for _, hit := range hits {
					numbers = append(numbers, hit.SongNumber)
					scores[hit.SongNumber] = hit.Score
				}
				entries, err := store.EntriesByNumbers(cmd.Context(), numbers)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := newEntryViews(entries)
					for i := range views {
						views[i].Score = scores[views[i].SongNumber]
					}
					return writeJSON(cmd, views)
				}
				return writeEntries(cmd, ctx, entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (defaults to search.limit)")
	return cmd
}

func newCatalogReindexCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				idx, err := openIndex(cfg, logger)
				if err != nil {
					return err
				}
				if idx == nil {
					return errors.New("search is disabled (set search.enabled = true)")
				}
				defer idx.Close()

				entries, err := store.ListEntries(cmd.Context())
				if err != nil {
					return err
				}
				if err := idx.Rebuild(entries); err != nil {
					return err
				}
				count, err := idx.Count()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d songs\n", count)
				return nil
			})
		},
	}
}

func writeEntries(cmd *cobra.Command, ctx *commandContext, entries []catalog.Entry) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, newEntryViews(entries))
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No songs found")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderEntries(entries))
	return nil
}

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"digidub/internal/cache"
	"digidub/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the analysis cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show cached frame hashes and detector results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			printCacheEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func printCacheEntries(out io.Writer, entries []cache.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached media: none")
		return
	}
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		created := "unknown"
		if !entry.CreatedAt.IsZero() {
			created = entry.CreatedAt.Local().Format(stampLayout)
		}
		params := entry.Params
		if params == "" {
			params = "-"
		}
		rows = append(rows, []string{
			entry.Key.String(),
			entry.Kind,
			params,
			fmt.Sprintf("%d", entry.Items),
			created,
		})
	}
	writeRows(out, "", []string{"Media", "Kind", "Params", "Items", "Created"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "clear [video]",
		Short: "Remove cached results for one media file, or everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.componentLogger(cmd, "cache")
			out := cmd.OutOrStdout()

			if reset {
				if len(args) > 0 {
					return fmt.Errorf("--reset removes the whole database; drop the file name")
				}
				if err := cache.Reset(cfg.Paths.CacheDir); err != nil {
					return err
				}
				logger.Info("cache database removed", logging.String("dir", cfg.Paths.CacheDir))
				fmt.Fprintln(out, "Cache database removed")
				return nil
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			name := ""
			if len(args) > 0 {
				name = filepath.Base(args[0])
			}
			removed, err := store.Remove(cmd.Context(), name)
			if err != nil {
				return err
			}
			logger.Info("cache entries removed", logging.String("name", name), logging.Int64("rows", removed))
			if removed == 0 {
				fmt.Fprintln(out, "No cache entries removed")
				return nil
			}
			fmt.Fprintf(out, "Removed %d cache entries\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the cache database file (needed after a schema change)")
	return cmd
}

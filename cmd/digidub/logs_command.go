package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"digidub/internal/logging"
	"digidub/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the digidub log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("file logging is disabled (paths.log_dir is empty)")
			}
			match, err := filter.Matcher()
			if err != nil {
				return fmt.Errorf("--level: %w", err)
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.FileName)
			out := cmd.OutOrStdout()

			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if !filter.Empty() {
				// filter the whole file, then keep the last matches
				opts = logs.TailOptions{Offset: 0}
			}
			result, err := logs.Tail(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			var kept []string
			for _, line := range result.Lines {
				if match(line) {
					kept = append(kept, line)
				}
			}
			if lines > 0 && len(kept) > lines {
				kept = kept[len(kept)-lines:]
			}
			for _, line := range kept {
				fmt.Fprintln(out, line)
			}

			offset := result.Offset
			for follow {
				result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: time.Second})
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				for _, line := range result.Lines {
					if match(line) {
						fmt.Fprintln(out, line)
					}
				}
				offset = result.Offset
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show records of this run id")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only show records of this component")
	cmd.Flags().StringVar(&filter.Level, "level", "", "Minimum level to show")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only show lines containing this text")
	return cmd
}

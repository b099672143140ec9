package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"digidub/internal/logging"
	"digidub/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, ffmpeg filters, directories and the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.componentLogger(cmd, "preflight")

			results := preflight.RunAll(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, statusLabel(out, r.Passed), r.Detail})
				if !r.Passed {
					logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
						logging.String("check", r.Name),
						logging.String("detail", r.Detail),
					)
				}
			}
			writeRows(out, "", []string{"Check", "Status", "Detail"}, rows, nil)

			if preflight.Failed(results) {
				return errors.New("preflight failed")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

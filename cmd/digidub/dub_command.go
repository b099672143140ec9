package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"digidub/internal/dub"
	"digidub/internal/logging"
	"digidub/internal/media"
	"digidub/internal/textutil"
)

func newDubCommand(ctx *commandContext) *cobra.Command {
	var durationText string
	var output string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dub <match-report.json>",
		Short: "Plan the dubbed audio track from a match report",
		Long: "Read a report written by `digidub match --output` and print the ordered\n" +
			"output segments: matched ranges take the secondary audio, gaps keep the primary.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.componentLogger(cmd, "dub")

			report, err := readMatchReport(args[0])
			if err != nil {
				return err
			}
			duration := report.PrimaryDuration
			if strings.TrimSpace(durationText) != "" {
				if duration, err = media.ParseDuration(durationText); err != nil {
					return fmt.Errorf("--duration: %w", err)
				}
			}
			if duration <= 0 {
				return fmt.Errorf("primary duration unknown: pass --duration")
			}

			if err := dub.CheckMatches(report.Matches); err != nil {
				return err
			}
			segments := dub.Compute(report.Matches, duration)
			if err := dub.Validate(segments, duration); err != nil {
				return err
			}

			var dubbed int64
			for _, s := range segments {
				if s.SourceID == dub.SourceSecondary {
					dubbed += s.Output.Duration()
				}
			}
			logger.Info("dub plan computed",
				logging.String(logging.FieldMedia, report.Primary),
				logging.Int("segments", len(segments)),
				logging.String("dubbed", media.FormatDuration(dubbed)),
				logging.String("duration", media.FormatDuration(duration)),
			)

			plan := dubPlan{
				Primary:   report.Primary,
				Secondary: report.Secondary,
				Duration:  duration,
				Segments:  segments,
			}
			if output != "" {
				if err := writeJSONFile(output, plan); err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, plan)
			}
			writeRows(cmd.OutOrStdout(), textutil.TitleFromPath(report.Primary),
				[]string{"#", "Output", "Source", "Range", "Stretch"},
				segmentRows(segments),
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&durationText, "duration", "", "Primary duration (e.g. 22:03.120); defaults to the report's value")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the plan as JSON to this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan as JSON")
	return cmd
}

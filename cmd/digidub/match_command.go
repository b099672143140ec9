package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"digidub/internal/cache"
	"digidub/internal/config"
	"digidub/internal/detect"
	"digidub/internal/logging"
	"digidub/internal/matchalgo"
	"digidub/internal/media"
	"digidub/internal/metrics"
	"digidub/internal/notifications"
	"digidub/internal/preflight"
	"digidub/internal/textutil"
)

type matchOptions struct {
	framesA     string
	framesB     string
	segmentA    string
	segmentB    string
	exclusions  []string
	output      string
	metricsFile string
	jsonOutput  bool
	noCache     bool
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var opts matchOptions

	cmd := &cobra.Command{
		Use:   "match <primary> <secondary>",
		Short: "Find the footage shared by two videos",
		Long: "Probe both videos, run silence, black-frame and scene-change detection on the\n" +
			"primary one, and print the ordered list of matching time ranges.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runMatch(cmd, ctx, args[0], args[1], opts)
			if err != nil {
				notifyMatchFailure(cmd, ctx, err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.framesA, "frames-a", "", "Frame-hash file for the primary video")
	cmd.Flags().StringVar(&opts.framesB, "frames-b", "", "Frame-hash file for the secondary video")
	cmd.Flags().StringVar(&opts.segmentA, "segment-a", "", "Restrict the primary search to start-end (e.g. 0:30-21:00)")
	cmd.Flags().StringVar(&opts.segmentB, "segment-b", "", "Restrict the secondary search to start-end")
	cmd.Flags().StringArrayVar(&opts.exclusions, "exclude", nil, "Primary range start-end that must not be matched (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the match report as JSON to this file")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Override metrics.textfile_path for this run")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the match report as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the analysis cache")
	return cmd
}

func runMatch(cmd *cobra.Command, ctx *commandContext, primaryArg, secondaryArg string, opts matchOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.componentLogger(cmd, "match")

	primaryPath, err := config.ExpandPath(primaryArg)
	if err != nil {
		return err
	}
	secondaryPath, err := config.ExpandPath(secondaryArg)
	if err != nil {
		return err
	}
	if err := preflight.CheckInputs(map[string]string{
		"primary":   primaryPath,
		"secondary": secondaryPath,
		"frames-a":  opts.framesA,
		"frames-b":  opts.framesB,
	}); err != nil {
		return err
	}

	detectorOpts, err := opts.detectorOptions(cfg)
	if err != nil {
		return err
	}

	var store *cache.Store
	if !opts.noCache {
		if store, err = ctx.openStore(); err != nil {
			return err
		}
		defer store.Close()
	}
	preparer := ctx.newPreparer(store, logger)

	var primary, secondary *media.Source
	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		src, err := preparer.Prepare(gctx, detect.Request{Path: primaryPath, FramesPath: opts.framesA, Detectors: true})
		primary = src
		return err
	})
	g.Go(func() error {
		src, err := preparer.Prepare(gctx, detect.Request{Path: secondaryPath, FramesPath: opts.framesB})
		secondary = src
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	detector, err := matchalgo.NewDetector(primary, secondary,
		append(detectorOpts, matchalgo.WithLogger(logger), matchalgo.WithObserver(recorder))...)
	if err != nil {
		return err
	}

	started := time.Now()
	matches, err := detector.Run()
	if err != nil {
		return err
	}
	elapsed := time.Since(started)
	recorder.ObserveRun(elapsed, matches, primary.Duration)

	logger.Info("match run finished",
		logging.String(logging.FieldEventType, "match_complete"),
		logging.Int("matches", len(matches)),
		logging.Duration("elapsed", elapsed),
	)
	if len(matches) == 0 {
		logging.WarnWithContext(logger, "no matching footage found", "no_matches",
			logging.String(logging.FieldErrorHint, "check that both files show the same program, or widen --segment-b"),
		)
	}

	if path := metricsPath(cfg, opts.metricsFile); path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			return err
		}
		logger.Debug("metrics written", logging.String("path", path))
	}

	report := matchReport{
		RunID:           ctx.runID,
		Primary:         primaryPath,
		Secondary:       secondaryPath,
		PrimaryDuration: primary.Duration,
		Matches:         matches,
	}
	if report.Matches == nil {
		report.Matches = []media.VideoMatch{}
	}
	if opts.output != "" {
		if err := writeJSONFile(opts.output, report); err != nil {
			return err
		}
	}

	if notifier, err := ctx.notifier(); err == nil {
		summary := notifications.MatchSummary{
			Title:        textutil.TitleFromPath(primaryPath),
			Matches:      len(matches),
			MatchedRatio: metrics.MatchedRatio(matches, primary.Duration),
			Elapsed:      elapsed,
			ReportPath:   opts.output,
		}
		if err := notifier.NotifyMatchCompleted(cmd.Context(), summary); err != nil {
			logging.WarnWithContext(logger, "match notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}

	if opts.jsonOutput {
		return writeJSON(cmd, report)
	}

	title := fmt.Sprintf("%s ↔ %s", textutil.TitleFromPath(primaryPath), textutil.TitleFromPath(secondaryPath))
	writeRows(cmd.OutOrStdout(), title,
		[]string{"#", "Primary", "Secondary", "Length", "Speed"},
		matchRows(matches),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
	return nil
}

// notifyMatchFailure pushes err to ntfy. Delivery problems are only logged so
// the original error reaches the caller unchanged.
func notifyMatchFailure(cmd *cobra.Command, ctx *commandContext, err error) {
	notifier, nerr := ctx.notifier()
	if nerr != nil {
		return
	}
	if nerr := notifier.NotifyError(cmd.Context(), err, "match"); nerr != nil {
		logging.WarnWithContext(ctx.componentLogger(cmd, "match"), "error notification failed", "notification_failed",
			logging.Error(nerr),
		)
	}
}

func (o matchOptions) detectorOptions(cfg *config.Config) ([]matchalgo.Option, error) {
	out := []matchalgo.Option{matchalgo.WithParameters(cfg.MatchParameters())}

	segA, err := parseOptionalSegment("--segment-a", o.segmentA)
	if err != nil {
		return nil, err
	}
	segB, err := parseOptionalSegment("--segment-b", o.segmentB)
	if err != nil {
		return nil, err
	}
	out = append(out, matchalgo.WithSearchRanges(segA, segB))

	if len(o.exclusions) > 0 {
		ranges := make([]media.TimeSegment, 0, len(o.exclusions))
		for _, text := range o.exclusions {
			seg, err := parseOptionalSegment("--exclude", text)
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, seg)
		}
		out = append(out, matchalgo.WithExclusions(ranges))
	}
	return out, nil
}

func parseOptionalSegment(flag, text string) (media.TimeSegment, error) {
	if strings.TrimSpace(text) == "" {
		return media.TimeSegment{}, nil
	}
	seg, err := media.ParseTimeSegment(text)
	if err != nil {
		return media.TimeSegment{}, fmt.Errorf("%s: %w", flag, err)
	}
	if seg.End <= seg.Start {
		return media.TimeSegment{}, fmt.Errorf("%s: range %q is empty", flag, text)
	}
	return seg, nil
}

func metricsPath(cfg *config.Config, override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return cfg.Metrics.TextfilePath
}

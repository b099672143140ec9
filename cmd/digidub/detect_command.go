package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"digidub/internal/config"
	"digidub/internal/detect"
	"digidub/internal/media"
	"digidub/internal/preflight"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var framesPath string
	var skipDetectors bool

	cmd := &cobra.Command{
		Use:   "detect <video>...",
		Short: "Analyze videos ahead of time and store the results in the cache",
		Long: "Probe each video and run the silence, black-frame and scene-change detectors,\n" +
			"storing the results so later match runs reuse them.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if framesPath != "" && len(args) != 1 {
				return fmt.Errorf("--frames needs exactly one video")
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			logger := ctx.componentLogger(cmd, "detect")

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			preparer := ctx.newPreparer(store, logger)

			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				if err := preflight.CheckInputs(map[string]string{"video": path, "frames": framesPath}); err != nil {
					return err
				}
				src, err := preparer.Prepare(cmd.Context(), detect.Request{Path: path, FramesPath: framesPath, Detectors: !skipDetectors, FramesOptional: true})
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					path,
					media.FormatDuration(src.Duration),
					src.FrameRate.String(),
					fmt.Sprintf("%d", len(src.Frames)),
					countOrDash(src.HasSilences(), len(src.Silences)),
					countOrDash(src.HasBlackFrames(), len(src.BlackFrames)),
					countOrDash(src.HasSceneChanges(), len(src.SceneChanges)),
				})
			}
			writeRows(cmd.OutOrStdout(), "",
				[]string{"Video", "Duration", "Rate", "Frames", "Silences", "Black", "Scenes"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&framesPath, "frames", "", "Frame-hash file to import for the video")
	cmd.Flags().BoolVar(&skipDetectors, "frames-only", false, "Only import frame hashes; skip the ffmpeg detectors")
	return cmd
}

func countOrDash(present bool, n int) string {
	if !present {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

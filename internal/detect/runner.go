package detect

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"digidub/internal/logging"
	"digidub/internal/media"
)

// Runner executes ffmpeg detector passes.
type Runner struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" from PATH.
	Binary string
	Logger *slog.Logger
}

// Silences runs silencedetect on the first audio stream of path.
func (r Runner) Silences(ctx context.Context, path string, opts SilenceOptions) ([]media.Interval, error) {
	out, err := r.run(ctx, path, "0:a:0", "-af", opts.Filter())
	if err != nil {
		return nil, err
	}
	return ParseSilences(bytes.NewReader(out))
}

// BlackFrames runs blackdetect on the first video stream of path.
func (r Runner) BlackFrames(ctx context.Context, path string, opts BlackOptions) ([]media.Interval, error) {
	out, err := r.run(ctx, path, "0:v:0", "-vf", opts.Filter())
	if err != nil {
		return nil, err
	}
	return ParseBlackFrames(bytes.NewReader(out))
}

// SceneChanges runs scdet on the first video stream of path.
func (r Runner) SceneChanges(ctx context.Context, path string) ([]media.SceneChange, error) {
	out, err := r.run(ctx, path, "0:v:0", "-vf", SceneFilter)
	if err != nil {
		return nil, err
	}
	return ParseSceneChanges(bytes.NewReader(out))
}

// run decodes one stream through a filter and returns ffmpeg's stderr,
// where detector filters report their events.
func (r Runner) run(ctx context.Context, path, stream, filterFlag, filter string) ([]byte, error) {
	binary := strings.TrimSpace(r.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-nostats", "-hide_banner", "-nostdin",
		"-i", path,
		"-map", stream,
		filterFlag, filter,
		"-f", "null", "-",
	}
	logger := logging.NewComponentLogger(r.Logger, "detect")
	logger.Debug("ffmpeg detector started",
		logging.String(logging.FieldMedia, path),
		logging.String("filter", filter),
	)

	started := time.Now()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ffmpeg %s: %w: %s", filter, err, lastLines(stderr.String(), 5))
	}
	logger.Debug("ffmpeg detector finished",
		logging.String(logging.FieldMedia, path),
		logging.String("filter", filter),
		logging.Duration("elapsed", time.Since(started)),
	)
	return stderr.Bytes(), nil
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

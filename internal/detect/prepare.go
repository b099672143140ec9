package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"digidub/internal/cache"
	"digidub/internal/logging"
	"digidub/internal/media"
	"digidub/internal/media/ffprobe"
)

// ErrNoFrames reports that neither a frames file nor the cache supplied
// frame hashes for a video.
var ErrNoFrames = errors.New("no frame hashes available")

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Request describes one video to prepare.
type Request struct {
	Path string
	// FramesPath is an external frame-hash file. When empty, frames come
	// from the cache.
	FramesPath string
	// Detectors runs silence, black-frame and scene-change detection.
	// Only the primary video needs them.
	Detectors bool
	// FramesOptional leaves Source.Frames nil instead of failing when no
	// frame hashes are available.
	FramesOptional bool
}

// Preparer assembles media sources from ffprobe, the cache and ffmpeg.
type Preparer struct {
	FFprobe string
	Probe   ProbeFunc
	Runner  Runner
	// Store caches results. Nil disables caching.
	Store   *cache.Store
	Silence SilenceOptions
	Black   BlackOptions
	Logger  *slog.Logger
}

// Prepare probes req.Path and attaches frame hashes and, when requested,
// detector results.
func (p *Preparer) Prepare(ctx context.Context, req Request) (*media.Source, error) {
	logger := logging.NewComponentLogger(p.Logger, "prepare").With(logging.String(logging.FieldMedia, req.Path))

	probe := p.Probe
	if probe == nil {
		probe = ffprobe.Inspect
	}
	result, err := probe(ctx, p.FFprobe, req.Path)
	if err != nil {
		return nil, err
	}
	src, err := result.Describe(req.Path)
	if err != nil {
		return nil, err
	}
	key := cache.KeyFor(req.Path, src.Packets)
	logger.Debug("media probed",
		logging.Int64("duration_ms", src.Duration),
		logging.String("frame_rate", src.FrameRate.String()),
		logging.Int64("packets", src.Packets),
	)

	if src.Frames, err = p.frames(ctx, key, req.FramesPath, logger); err != nil {
		if !req.FramesOptional || !errors.Is(err, ErrNoFrames) {
			return nil, fmt.Errorf("%s: %w", req.Path, err)
		}
		logger.Debug("no frame hashes available")
	}
	if !req.Detectors {
		return src, nil
	}

	if p.Store != nil {
		lock, err := p.Store.Lock(ctx, key)
		if err != nil {
			return nil, err
		}
		defer lock.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		windows, err := p.intervals(gctx, key, cache.KindSilences, p.Silence.Filter(), logger, func() ([]media.Interval, error) {
			return p.Runner.Silences(gctx, req.Path, p.Silence)
		})
		src.Silences = windows
		return err
	})
	g.Go(func() error {
		windows, err := p.intervals(gctx, key, cache.KindBlackFrames, p.Black.Filter(), logger, func() ([]media.Interval, error) {
			return p.Runner.BlackFrames(gctx, req.Path, p.Black)
		})
		src.BlackFrames = windows
		return err
	})
	g.Go(func() error {
		changes, err := p.sceneChanges(gctx, key, req.Path, logger)
		src.SceneChanges = changes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Path, err)
	}
	logger.Info("media prepared",
		logging.Int("frames", len(src.Frames)),
		logging.Int("silences", len(src.Silences)),
		logging.Int("black_frames", len(src.BlackFrames)),
		logging.Int("scene_changes", len(src.SceneChanges)),
	)
	return src, nil
}

func (p *Preparer) frames(ctx context.Context, key cache.Key, framesPath string, logger *slog.Logger) ([]media.FrameInfo, error) {
	if framesPath != "" {
		frames, err := LoadFramesFile(framesPath)
		if err != nil {
			return nil, err
		}
		if p.Store != nil {
			if err := p.Store.SaveFrames(ctx, key, frames); err != nil {
				logging.WarnWithContext(logger, "frame cache write failed", "cache_write_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "frames will be read from the file again next run"),
				)
			}
		}
		return frames, nil
	}
	if p.Store != nil {
		frames, ok, err := p.Store.LoadFrames(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("frames loaded from cache", logging.Int("frames", len(frames)))
			return frames, nil
		}
	}
	return nil, fmt.Errorf("%w for %s: pass a frames file", ErrNoFrames, key)
}

func (p *Preparer) intervals(ctx context.Context, key cache.Key, kind cache.Kind, params string, logger *slog.Logger, run func() ([]media.Interval, error)) ([]media.Interval, error) {
	if p.Store != nil {
		windows, ok, err := p.Store.LoadIntervals(ctx, key, kind, params)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("detector result loaded from cache", logging.String("filter", params))
			return windows, nil
		}
	}
	windows, err := run()
	if err != nil {
		return nil, err
	}
	if p.Store != nil {
		if err := p.Store.SaveIntervals(ctx, key, kind, params, windows); err != nil {
			return nil, err
		}
	}
	return windows, nil
}

func (p *Preparer) sceneChanges(ctx context.Context, key cache.Key, path string, logger *slog.Logger) ([]media.SceneChange, error) {
	if p.Store != nil {
		changes, ok, err := p.Store.LoadSceneChanges(ctx, key, SceneFilter)
		if err != nil {
			return nil, err
		}
		if ok {
			logger.Debug("detector result loaded from cache", logging.String("filter", SceneFilter))
			return changes, nil
		}
	}
	changes, err := p.Runner.SceneChanges(ctx, path)
	if err != nil {
		return nil, err
	}
	if p.Store != nil {
		if err := p.Store.SaveSceneChanges(ctx, key, SceneFilter, changes); err != nil {
			return nil, err
		}
	}
	return changes, nil
}

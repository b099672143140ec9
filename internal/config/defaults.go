package config

import "digidub/internal/matchalgo"

const (
	defaultLogDir              = "~/.local/share/digidub/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogMaxSizeMB        = 20
	defaultLogMaxBackups       = 5
	defaultLogMaxAgeDays       = 30
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultSilenceNoiseDB      = -35.0
	defaultSilenceMinDuration  = 0.4
	defaultBlackMinDuration    = 0.4
	defaultBlackPixelThreshold = 0.05
	defaultNtfyTimeoutSeconds  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		Matching: Matching{
			FrameUnmatchThreshold:     matchalgo.DefaultFrameUnmatchThreshold,
			FrameRematchThreshold:     matchalgo.DefaultFrameRematchThreshold,
			AreaMatchThreshold:        matchalgo.DefaultAreaMatchThreshold,
			SceneChangeScoreThreshold: matchalgo.DefaultSceneChangeScoreThreshold,
			MinSceneFrameCount:        matchalgo.DefaultMinSceneFrameCount,
			MinSpeedRatio:             matchalgo.DefaultMinSpeedRatio,
			MaxSpeedRatio:             matchalgo.DefaultMaxSpeedRatio,
			BorderSilenceFrames:       matchalgo.DefaultBorderSilenceFrames,
			AnchorWindowFrames:        matchalgo.DefaultAnchorWindowFrames,
			SearchSlackMinFrames:      matchalgo.DefaultSearchSlackMinFrames,
			SearchSlackDivisor:        matchalgo.DefaultSearchSlackDivisor,
			LookaheadFrames:           matchalgo.DefaultLookaheadFrames,
			AnchorSceneCount:          matchalgo.DefaultAnchorSceneCount,
		},
		Detection: Detection{
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
			SilenceNoiseDB:      defaultSilenceNoiseDB,
			SilenceMinDuration:  defaultSilenceMinDuration,
			BlackMinDuration:    defaultBlackMinDuration,
			BlackPixelThreshold: defaultBlackPixelThreshold,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}

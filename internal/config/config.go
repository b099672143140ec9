package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"digidub/internal/matchalgo"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Matching mirrors matchalgo.Parameters with TOML keys.
type Matching struct {
	FrameUnmatchThreshold     int     `toml:"frame_unmatch_threshold"`
	FrameRematchThreshold     int     `toml:"frame_rematch_threshold"`
	AreaMatchThreshold        float64 `toml:"area_match_threshold"`
	SceneChangeScoreThreshold float64 `toml:"scene_change_score_threshold"`
	MinSceneFrameCount        int     `toml:"min_scene_frame_count"`
	MinSpeedRatio             float64 `toml:"min_speed_ratio"`
	MaxSpeedRatio             float64 `toml:"max_speed_ratio"`
	BorderSilenceFrames       int     `toml:"border_silence_frames"`
	AnchorWindowFrames        int     `toml:"anchor_window_frames"`
	SearchSlackMinFrames      int     `toml:"search_slack_min_frames"`
	SearchSlackDivisor        int     `toml:"search_slack_divisor"`
	LookaheadFrames           int     `toml:"lookahead_frames"`
	AnchorSceneCount          int     `toml:"anchor_scene_count"`
}

// Detection configures the ffmpeg detector jobs.
type Detection struct {
	FFmpegBinary        string  `toml:"ffmpeg_binary"`
	FFprobeBinary       string  `toml:"ffprobe_binary"`
	SilenceNoiseDB      float64 `toml:"silence_noise_db"`
	SilenceMinDuration  float64 `toml:"silence_min_duration"`
	BlackMinDuration    float64 `toml:"black_min_duration"`
	BlackPixelThreshold float64 `toml:"black_pixel_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	FileLevel  string `toml:"file_level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Metrics configures the node-exporter textfile written after a match run.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Notifications configures ntfy push messages sent when a match run ends.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for digidub.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Matching  Matching  `toml:"matching"`
	Detection Detection `toml:"detection"`
	Logging   Logging   `toml:"logging"`
	Metrics   Metrics   `toml:"metrics"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path of the per-user configuration file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/digidub/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields defaults. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("digidub.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MatchParameters converts the [matching] section for the matcher.
func (c *Config) MatchParameters() matchalgo.Parameters {
	m := c.Matching
	return matchalgo.Parameters{
		FrameUnmatchThreshold:     m.FrameUnmatchThreshold,
		FrameRematchThreshold:     m.FrameRematchThreshold,
		AreaMatchThreshold:        m.AreaMatchThreshold,
		SceneChangeScoreThreshold: m.SceneChangeScoreThreshold,
		MinSceneFrameCount:        m.MinSceneFrameCount,
		MinSpeedRatio:             m.MinSpeedRatio,
		MaxSpeedRatio:             m.MaxSpeedRatio,
		BorderSilenceFrames:       m.BorderSilenceFrames,
		AnchorWindowFrames:        m.AnchorWindowFrames,
		SearchSlackMinFrames:      m.SearchSlackMinFrames,
		SearchSlackDivisor:        m.SearchSlackDivisor,
		LookaheadFrames:           m.LookaheadFrames,
		AnchorSceneCount:          m.AnchorSceneCount,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if dir, ok := os.LookupEnv("DIGIDUB_CACHE_DIR"); ok && strings.TrimSpace(dir) != "" {
		return strings.TrimSpace(dir)
	}
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "digidub")
	}
	return "~/.cache/digidub"
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

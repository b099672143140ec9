package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"digidub/internal/logging"
	"digidub/internal/matchalgo"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.FrameUnmatchThreshold < 1 || m.FrameUnmatchThreshold > matchalgo.MaxHashDistance {
		return fmt.Errorf("matching.frame_unmatch_threshold must be between 1 and %d", matchalgo.MaxHashDistance)
	}
	if m.FrameRematchThreshold < 1 || m.FrameRematchThreshold > matchalgo.MaxHashDistance {
		return fmt.Errorf("matching.frame_rematch_threshold must be between 1 and %d", matchalgo.MaxHashDistance)
	}
	if m.FrameRematchThreshold > m.FrameUnmatchThreshold {
		return errors.New("matching.frame_rematch_threshold must not exceed matching.frame_unmatch_threshold")
	}
	if !finite(m.AreaMatchThreshold) || m.AreaMatchThreshold < 0 || m.AreaMatchThreshold > matchalgo.MaxHashDistance {
		return fmt.Errorf("matching.area_match_threshold must be between 0 and %d", matchalgo.MaxHashDistance)
	}
	if !finite(m.SceneChangeScoreThreshold) || m.SceneChangeScoreThreshold < 0 {
		return errors.New("matching.scene_change_score_threshold must be non-negative")
	}
	if m.MinSceneFrameCount < 1 {
		return errors.New("matching.min_scene_frame_count must be positive")
	}
	if !finite(m.MinSpeedRatio) || m.MinSpeedRatio <= 0 || m.MinSpeedRatio > 1 {
		return errors.New("matching.min_speed_ratio must be in (0, 1]")
	}
	if !finite(m.MaxSpeedRatio) || m.MaxSpeedRatio < 1 {
		return errors.New("matching.max_speed_ratio must be at least 1")
	}
	if m.BorderSilenceFrames < 0 {
		return errors.New("matching.border_silence_frames must not be negative")
	}
	if m.AnchorWindowFrames < 1 {
		return errors.New("matching.anchor_window_frames must be positive")
	}
	if m.SearchSlackMinFrames < 0 {
		return errors.New("matching.search_slack_min_frames must not be negative")
	}
	if m.SearchSlackDivisor < 1 {
		return errors.New("matching.search_slack_divisor must be positive")
	}
	if m.LookaheadFrames < 1 {
		return errors.New("matching.lookahead_frames must be positive")
	}
	if m.AnchorSceneCount < 2 {
		return errors.New("matching.anchor_scene_count must be at least 2")
	}
	if err := c.MatchParameters().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if !finite(d.SilenceNoiseDB) || d.SilenceNoiseDB >= 0 {
		return errors.New("detection.silence_noise_db must be negative")
	}
	if !finite(d.SilenceMinDuration) || d.SilenceMinDuration <= 0 {
		return errors.New("detection.silence_min_duration must be positive")
	}
	if !finite(d.BlackMinDuration) || d.BlackMinDuration <= 0 {
		return errors.New("detection.black_min_duration must be positive")
	}
	if !finite(d.BlackPixelThreshold) || d.BlackPixelThreshold < 0 || d.BlackPixelThreshold > 1 {
		return errors.New("detection.black_pixel_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := logging.ParseLevel(c.Logging.FileLevel); err != nil {
		return fmt.Errorf("logging.file_level: %w", err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_seconds must be non-negative")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

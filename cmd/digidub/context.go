package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"digidub/internal/cache"
	"digidub/internal/config"
	"digidub/internal/deps"
	"digidub/internal/detect"
	"digidub/internal/logging"
	"digidub/internal/notifications"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	config *config.Config
	logger *logging.Logger
	runID  string
	notify notifications.Service
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// initialize loads the configuration and builds the run logger. Each CLI
// invocation gets a fresh run id that tags every log line it produces.
func (c *commandContext) initialize(cmd *cobra.Command) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = *c.logLevelFlag
	}
	logger, err := logging.New(logging.Options{
		Level:      level,
		FileLevel:  cfg.Logging.FileLevel,
		Format:     cfg.Logging.Format,
		Console:    cmd.ErrOrStderr(),
		Dir:        cfg.Paths.LogDir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.logger = logger
	c.runID = uuid.NewString()
	cmd.SetContext(logging.WithRunID(cmd.Context(), c.runID))
	return nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	var path string
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// componentLogger returns the run logger tagged with run_id and component.
func (c *commandContext) componentLogger(cmd *cobra.Command, component string) *slog.Logger {
	if c.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(logging.WithContext(cmd.Context(), c.logger.Logger), component)
}

func (c *commandContext) openStore() (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(cfg.Paths.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open analysis cache: %w", err)
	}
	return store, nil
}

// ffprobeBinary prefers the ffprobe shipped beside the configured ffmpeg
// when the config leaves ffprobe at its default.
func (c *commandContext) ffprobeBinary() string {
	cfg := c.config
	if cfg.Detection.FFprobeBinary != "ffprobe" {
		return cfg.Detection.FFprobeBinary
	}
	if status := deps.ResolveFFprobe(cfg.Detection.FFmpegBinary); status.Available {
		return status.Command
	}
	return cfg.Detection.FFprobeBinary
}

func (c *commandContext) newPreparer(store *cache.Store, logger *slog.Logger) *detect.Preparer {
	cfg := c.config
	return &detect.Preparer{
		FFprobe: c.ffprobeBinary(),
		Runner:  detect.Runner{Binary: cfg.Detection.FFmpegBinary, Logger: logger},
		Store:   store,
		Silence: detect.SilenceOptions{NoiseDB: cfg.Detection.SilenceNoiseDB, MinDuration: cfg.Detection.SilenceMinDuration},
		Black:   detect.BlackOptions{MinDuration: cfg.Detection.BlackMinDuration, PixelThreshold: cfg.Detection.BlackPixelThreshold},
		Logger:  logger,
	}
}

func (c *commandContext) notifier() (notifications.Service, error) {
	if c.notify != nil {
		return c.notify, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.notify = notifications.NewService(cfg)
	return c.notify, nil
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

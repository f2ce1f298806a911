package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/metrics"
	"reelpipe/internal/pipeline"
	"reelpipe/internal/runlock"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// envFiles lists the .env files consulted before the config is parsed: one
// beside the config file and one in the working directory.
func (c *commandContext) envFiles() []string {
	files := []string{".env"}
	path := c.configPath()
	if path == "" {
		if def, err := config.DefaultConfigPath(); err == nil {
			path = def
		}
	} else if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	if path != "" {
		files = append([]string{filepath.Join(filepath.Dir(path), ".env")}, files...)
	}
	return files
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadEnvFiles(c.envFiles()...); err != nil {
			c.configErr = err
			return
		}
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.PruneDailyLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withPipeline builds the production environment under the run lock and
// hands it to fn.
func (c *commandContext) withPipeline(cmd *cobra.Command, opts pipeline.Options, fn func(context.Context, *pipeline.Env, *pipeline.Pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Paths.LockFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release run lock", logging.Error(err))
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := pipeline.NewEnv(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if opts.Metrics == nil && strings.TrimSpace(cfg.Paths.MetricsFile) != "" {
		opts.Metrics = metrics.New()
	}
	return fn(ctx, env, pipeline.New(env, opts))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Jerry-Ma/nasa-apod-desktop/config"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/apod"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/caption"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/repository"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/slideshow"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/validator"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/wallpaper"
	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

type commandContext struct {
	configFlag   *string
	rootFlag     *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	logger    *slog.Logger
	logCloser io.Closer
}

func newCommandContext(configFlag, rootFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		rootFlag:     rootFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if root := flagValue(c.rootFlag); root != "" {
			expanded, err := config.ExpandPath(root)
			if err != nil {
				c.configErr = fmt.Errorf("--root: %w", err)
				return
			}
			cfg.Repository.Root = expanded
		}
		if level := flagValue(c.logLevelFlag); level != "" {
			if _, err := log.ParseLevel(level); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
			cfg.Logging.Level = level
		}
		c.config, c.configPath, c.configExists = cfg, path, exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger(stderr io.Writer) error {
	if c.logger != nil {
		return nil
	}
	cfg := c.config
	file := cfg.Logging.File
	if file == config.LogFileDefault {
		var err error
		if file, err = log.DefaultFile(config.AppName); err != nil {
			return err
		}
	}
	logger, closer, err := log.New(log.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       file,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.RetentionDays,
		Console:    stderr,
	})
	if err != nil {
		return err
	}
	c.logger, c.logCloser = logger, closer
	return nil
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

func (c *commandContext) newFetcher(progress provider.ProgressReporter) (provider.Fetcher, error) {
	cfg := c.config
	key, source, err := cfg.ResolveAPIKey()
	if err != nil {
		c.logger.Warn("keyring unavailable, using demo key", "error", err)
	}
	if source == config.KeySourceDemo && cfg.API.Strategy == config.StrategyAPI {
		c.logger.Warn("using the rate-limited demo API key; run `apodwall key set` to store your own")
	} else {
		c.logger.Debug("api key resolved", "source", source)
	}

	opts := apod.Options{
		BaseURL:         cfg.API.BaseURL,
		SiteURL:         cfg.API.SiteURL,
		APIKey:          key,
		UserAgent:       cfg.API.UserAgent,
		Timeout:         cfg.RequestTimeout(),
		RequestsPerHour: cfg.API.RequestsPerHour,
		MinFileSize:     cfg.Image.MinFileSize,
		Progress:        progress,
		Logger:          c.logger,
	}
	if cfg.Caption.Enabled {
		opts.Overlay = caption.New(cfg.Caption.FontScale)
	}
	return apod.New(cfg.API.Strategy, opts)
}

func (c *commandContext) newValidator() *validator.Validator {
	img := c.config.Image
	return validator.New(validator.Settings{
		MinFileSize:    img.MinFileSize,
		MinWidth:       img.MinWidth,
		MinHeight:      img.MinHeight,
		MinAspectRatio: img.MinAspectRatio,
		MaxAspectRatio: img.MaxAspectRatio,
	}, c.logger)
}

func (c *commandContext) newComposer() *slideshow.Composer {
	return slideshow.New(slideshow.Options{
		Display:    c.config.DisplayDuration(),
		Transition: c.config.TransitionDuration(),
		Logger:     c.logger,
	}, nil)
}

func (c *commandContext) newRepository(fetcher provider.Fetcher) (*repository.Repository, error) {
	repo := c.config.Repository
	return repository.New(repository.Options{
		Root:            repo.Root,
		OrigDir:         repo.OrigDir,
		ActiveDir:       repo.ActiveDir,
		Descriptor:      repo.Descriptor,
		MaxLookbackDays: repo.MaxLookbackDays,
		Logger:          c.logger,
	}, repository.Deps{
		Fetcher:  fetcher,
		Checker:  c.newValidator(),
		Composer: c.newComposer(),
	})
}

// newOfflineRepository builds a repository for commands that never download.
func (c *commandContext) newOfflineRepository() (*repository.Repository, error) {
	return c.newRepository(offlineFetcher{})
}

func (c *commandContext) newApplier() *wallpaper.Applier {
	return wallpaper.New(wallpaper.Options{
		Command: c.config.Wallpaper.Command,
		Logger:  c.logger,
	})
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Package config provides configuration management for apodwall

//go:embed sample_config.toml
var sampleConfig string

// API contains settings for the picture-of-the-day service.
type API struct {
	BaseURL         string `toml:"base_url"`
	SiteURL         string `toml:"site_url"`
	APIKey          string `toml:"api_key"`
	Strategy        string `toml:"strategy"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	RequestsPerHour int    `toml:"requests_per_hour"`
	UserAgent       string `toml:"user_agent"`
}

// Image contains the wallpaper suitability thresholds.
type Image struct {
	MinFileSize    int64   `toml:"min_file_size"`
	MinWidth       int     `toml:"min_width"`
	MinHeight      int     `toml:"min_height"`
	MinAspectRatio float64 `toml:"min_aspect_ratio"`
	MaxAspectRatio float64 `toml:"max_aspect_ratio"`
}

// Repository contains the on-disk layout and selection settings.
type Repository struct {
	Root            string `toml:"root"`
	Capacity        int    `toml:"capacity"`
	MaxLookbackDays int    `toml:"max_lookback_days"`
	OrigDir         string `toml:"orig_dir"`
	ActiveDir       string `toml:"active_dir"`
	Descriptor      string `toml:"descriptor"`
}

// Slideshow contains the descriptor timing.
type Slideshow struct {
	DisplaySeconds    int `toml:"display_seconds"`
	TransitionSeconds int `toml:"transition_seconds"`
}

// Caption contains settings for the optional title overlay.
type Caption struct {
	Enabled   bool `toml:"enabled"`
	FontScale int  `toml:"font_scale"`
}

// Wallpaper contains settings for applying the descriptor to the desktop.
type Wallpaper struct {
	// Command overrides desktop detection. "{file}" is replaced with the descriptor path.
	Command []string `toml:"command"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	File          string `toml:"file"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for apodwall.
type Config struct {
	API        API        `toml:"api"`
	Image      Image      `toml:"image"`
	Repository Repository `toml:"repository"`
	Slideshow  Slideshow  `toml:"slideshow"`
	Caption    Caption    `toml:"caption"`
	Wallpaper  Wallpaper  `toml:"wallpaper"`
	Logging    Logging    `toml:"logging"`
}

// Default returns a configuration populated with the built-in defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:         DefaultAPIBaseURL,
			SiteURL:         DefaultSiteURL,
			Strategy:        StrategyAPI,
			TimeoutSeconds:  DefaultTimeoutSeconds,
			RequestsPerHour: DefaultRequestsPerHour,
			UserAgent:       DefaultUserAgent,
		},
		Image: Image{
			MinFileSize:    DefaultMinFileSize,
			MinWidth:       DefaultMinWidth,
			MinHeight:      DefaultMinHeight,
			MinAspectRatio: DefaultMinAspectRatio,
			MaxAspectRatio: DefaultMaxAspectRatio,
		},
		Repository: Repository{
			Root:            "~/Pictures/apod",
			Capacity:        DefaultCapacity,
			MaxLookbackDays: DefaultMaxLookbackDays,
			OrigDir:         DefaultOrigDir,
			ActiveDir:       DefaultActiveDir,
			Descriptor:      DefaultDescriptor,
		},
		Slideshow: Slideshow{
			DisplaySeconds:    DefaultDisplaySeconds,
			TransitionSeconds: DefaultTransitionSeconds,
		},
		Caption: Caption{
			FontScale: DefaultCaptionFontScale,
		},
		Logging: Logging{
			Level:         "info",
			Format:        "text",
			MaxSizeMB:     10,
			MaxBackups:    2,
			RetentionDays: DefaultLogRetentionDays,
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/" + AppName + "/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is not an
// error; the defaults are returned and exists is false.
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
		_, err = os.Stat(expanded)
		if err != nil {
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

	projectPath, err := filepath.Abs(AppName + ".toml")
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

func (c *Config) normalize() error {
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	c.API.SiteURL = strings.TrimSpace(c.API.SiteURL)
	if c.API.SiteURL != "" && !strings.HasSuffix(c.API.SiteURL, "/") {
		c.API.SiteURL += "/"
	}
	c.API.APIKey = strings.TrimSpace(c.API.APIKey)
	c.API.Strategy = strings.ToLower(strings.TrimSpace(c.API.Strategy))
	if c.API.Strategy == "" {
		c.API.Strategy = StrategyAPI
	}
	if strings.TrimSpace(c.API.UserAgent) == "" {
		c.API.UserAgent = DefaultUserAgent
	}

	root, err := expandPath(c.Repository.Root)
	if err != nil {
		return fmt.Errorf("repository.root: %w", err)
	}
	c.Repository.Root = root

	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" && c.Logging.File != LogFileDefault {
		logFile, err := expandPath(c.Logging.File)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = logFile
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// Validate reports the first invalid setting, naming its key.
func (c *Config) Validate() error {
	switch {
	case c.API.Strategy != StrategyAPI && c.API.Strategy != StrategyHTML:
		return fmt.Errorf("api.strategy: unsupported value %q", c.API.Strategy)
	case c.API.Strategy == StrategyAPI && c.API.BaseURL == "":
		return errors.New("api.base_url: must be set")
	case c.API.Strategy == StrategyHTML && c.API.SiteURL == "":
		return errors.New("api.site_url: must be set")
	case c.API.TimeoutSeconds <= 0:
		return fmt.Errorf("api.timeout_seconds: must be positive, got %d", c.API.TimeoutSeconds)
	case c.API.RequestsPerHour < 0:
		return fmt.Errorf("api.requests_per_hour: must not be negative, got %d", c.API.RequestsPerHour)
	case c.Image.MinFileSize < 0:
		return fmt.Errorf("image.min_file_size: must not be negative, got %d", c.Image.MinFileSize)
	case c.Image.MinWidth < 0 || c.Image.MinHeight < 0:
		return errors.New("image.min_width/min_height: must not be negative")
	case c.Image.MinAspectRatio <= 0:
		return fmt.Errorf("image.min_aspect_ratio: must be positive, got %g", c.Image.MinAspectRatio)
	case c.Image.MaxAspectRatio < c.Image.MinAspectRatio:
		return fmt.Errorf("image.max_aspect_ratio: %g is below min_aspect_ratio %g", c.Image.MaxAspectRatio, c.Image.MinAspectRatio)
	case c.Repository.Root == "":
		return errors.New("repository.root: must be set")
	case c.Repository.Capacity < 1:
		return fmt.Errorf("repository.capacity: must be at least 1, got %d", c.Repository.Capacity)
	case c.Repository.MaxLookbackDays < 1:
		return fmt.Errorf("repository.max_lookback_days: must be at least 1, got %d", c.Repository.MaxLookbackDays)
	case !isPlainName(c.Repository.OrigDir):
		return fmt.Errorf("repository.orig_dir: invalid directory name %q", c.Repository.OrigDir)
	case !isPlainName(c.Repository.ActiveDir):
		return fmt.Errorf("repository.active_dir: invalid directory name %q", c.Repository.ActiveDir)
	case c.Repository.OrigDir == c.Repository.ActiveDir:
		return errors.New("repository.active_dir: must differ from orig_dir")
	case !isPlainName(c.Repository.Descriptor):
		return fmt.Errorf("repository.descriptor: invalid file name %q", c.Repository.Descriptor)
	case c.Slideshow.DisplaySeconds <= 0:
		return fmt.Errorf("slideshow.display_seconds: must be positive, got %d", c.Slideshow.DisplaySeconds)
	case c.Slideshow.TransitionSeconds < 0:
		return fmt.Errorf("slideshow.transition_seconds: must not be negative, got %d", c.Slideshow.TransitionSeconds)
	case c.Caption.Enabled && c.Caption.FontScale < 1:
		return fmt.Errorf("caption.font_scale: must be at least 1, got %d", c.Caption.FontScale)
	case len(c.Wallpaper.Command) > 0 && strings.TrimSpace(c.Wallpaper.Command[0]) == "":
		return errors.New("wallpaper.command: program name must not be empty")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DisplayDuration returns how long each slideshow image stays on screen.
func (c *Config) DisplayDuration() time.Duration {
	return time.Duration(c.Slideshow.DisplaySeconds) * time.Second
}

// TransitionDuration returns the slideshow cross-fade length.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.Slideshow.TransitionSeconds) * time.Second
}

// isPlainName reports whether name is a single path element.
func isPlainName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
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
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML with the API key masked.
func (c *Config) Encode() (string, error) {
	masked := *c
	if masked.API.APIKey != "" {
		masked.API.APIKey = "********"
	}
	data, err := toml.Marshal(masked)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

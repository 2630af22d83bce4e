// Package validator decides whether a file on disk is usable as a desktop background.
package validator

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

// Rejection reasons returned by Check.
var (
	ErrNotDecodable = errors.New("not a decodable image")
	ErrTooSmallFile = errors.New("file below minimum size")
	ErrTooNarrow    = errors.New("image narrower than minimum width")
	ErrTooShort     = errors.New("image shorter than minimum height")
	ErrAspect       = errors.New("aspect ratio out of range")
)

// Settings are the acceptance thresholds. All bounds are inclusive.
type Settings struct {
	MinFileSize    int64
	MinWidth       int
	MinHeight      int
	MinAspectRatio float64
	MaxAspectRatio float64
}

// Validator checks candidate images against Settings.
type Validator struct {
	settings Settings
	logger   *slog.Logger
}

// New creates a Validator. A nil logger discards output.
func New(settings Settings, logger *slog.Logger) *Validator {
	return &Validator{settings: settings, logger: log.OrDiscard(logger)}
}

// Settings returns the thresholds in use.
func (v *Validator) Settings() Settings {
	return v.settings
}

// IsUsable reports whether path passes every check. Failures are logged at debug level.
func (v *Validator) IsUsable(path string) bool {
	err := v.Check(path)
	if err != nil {
		v.logger.Debug("image rejected", "file", filepath.Base(path), "reason", err)
		return false
	}
	return true
}

// Check returns nil for a usable image, or an error wrapping one of the rejection reasons.
func (v *Validator) Check(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrNotDecodable)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotDecodable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotDecodable, path)
	}
	if info.Size() < v.settings.MinFileSize {
		return fmt.Errorf("%w: %d bytes, need %d", ErrTooSmallFile, info.Size(), v.settings.MinFileSize)
	}

	w, h, err := Dimensions(path)
	if err != nil {
		return err
	}
	if w < v.settings.MinWidth {
		return fmt.Errorf("%w: %d < %d", ErrTooNarrow, w, v.settings.MinWidth)
	}
	if h < v.settings.MinHeight {
		return fmt.Errorf("%w: %d < %d", ErrTooShort, h, v.settings.MinHeight)
	}
	aspect := float64(w) / float64(h)
	if aspect < v.settings.MinAspectRatio || aspect > v.settings.MaxAspectRatio {
		return fmt.Errorf("%w: %.3f not in [%.3f, %.3f]", ErrAspect, aspect, v.settings.MinAspectRatio, v.settings.MaxAspectRatio)
	}
	return nil
}

// Dimensions returns the width and height of an image file without decoding pixels.
func Dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotDecodable, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotDecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: empty image", ErrNotDecodable)
	}
	return cfg.Width, cfg.Height, nil
}

// IsImage reports whether path (following symlinks) decodes as an image.
func IsImage(path string) bool {
	_, _, err := Dimensions(path)
	return err == nil
}

// ListImages returns the sorted paths of entries in dir that decode as images.
// Symlinks are followed; subdirectories and dangling links are ignored.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		if IsImage(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

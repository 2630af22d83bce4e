// Package provider defines the fetch capability the repository depends on and the
// image entity it produces.
package provider

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the date format used in request parameters and stored file names.
const DateLayout = "2006-01-02"

// Failure reasons a Fetcher reports. All of them mean "skip this date".
var (
	// ErrNoResource means the service has no picture for the requested date.
	ErrNoResource = errors.New("no resource for this date")
	// ErrNotImage means the picture of the day is not an image (e.g. a video).
	ErrNotImage = errors.New("media is not an image")
	// ErrTooSmall means the payload is below the configured minimum size.
	ErrTooSmall = errors.New("payload below minimum size")
	// ErrDownload means the asset could not be retrieved completely.
	ErrDownload = errors.New("download failed")
)

// Image represents one downloaded picture of the day.
type Image struct {
	Date      time.Time // Source date
	URL       string    // Asset URL the file was downloaded from
	FilePath  string    // Local path in the originals store
	Size      int64     // Bytes on disk
	Width     int       // Pixel width, 0 if unknown
	Height    int       // Pixel height, 0 if unknown
	Title     string    // Caption
	MediaType string    // "image", "video", ...
	Cached    bool      // True when the file already existed and no download happened
}

// DateString returns the image date formatted with DateLayout.
func (i Image) DateString() string {
	return i.Date.Format(DateLayout)
}

// Fetcher resolves and downloads the picture of the day for a date into destDir.
// Implementations must never leave a partially written file behind on error.
type Fetcher interface {
	// Name returns the strategy name, used in logs.
	Name() string
	// Fetch returns the downloaded (or already present) image, or an error wrapping one
	// of the package sentinels, a context error, or an I/O error.
	Fetch(ctx context.Context, destDir string, date time.Time) (Image, error)
}

// CaptionOverlay is an optional post-processing step that draws the title onto a
// downloaded file. Failures must not fail the fetch.
type CaptionOverlay interface {
	Overlay(ctx context.Context, path, text string) error
}

// ProgressFunc receives download progress. total is -1 when unknown.
type ProgressFunc func(written, total int64)

// ProgressReporter creates a ProgressFunc for one download and is told when it ends.
type ProgressReporter interface {
	Start(name string, total int64) ProgressFunc
	Finish()
}

// IsSkippable reports whether err is a per-date failure that a scan may step over.
// Context cancellation is not skippable.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

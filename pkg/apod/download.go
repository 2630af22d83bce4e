package apod

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

// Options configures both fetch strategies.
type Options struct {
	BaseURL string // JSON API endpoint
	SiteURL string // HTML archive root, must end with "/"
	APIKey  string

	// UserAgent and Timeout are used to build a client when HTTPClient is nil.
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client

	// RequestsPerHour limits metadata requests. Zero disables limiting.
	RequestsPerHour int
	// MinFileSize rejects smaller assets, by Content-Length before download and by
	// received size after.
	MinFileSize int64

	Progress provider.ProgressReporter
	Overlay  provider.CaptionOverlay
	Logger   *slog.Logger
}

// downloader is the asset retrieval pipeline shared by the API and scrape strategies.
type downloader struct {
	client   *http.Client
	limiter  *rate.Limiter
	minSize  int64
	progress provider.ProgressReporter
	overlay  provider.CaptionOverlay
	logger   *slog.Logger
}

func newDownloader(opts Options) *downloader {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = NewHTTPClient(timeout, opts.UserAgent)
	}
	return &downloader{
		client:   client,
		limiter:  newLimiter(opts.RequestsPerHour),
		minSize:  opts.MinFileSize,
		progress: opts.Progress,
		overlay:  opts.Overlay,
		logger:   log.OrDiscard(opts.Logger),
	}
}

func newLimiter(perHour int) *rate.Limiter {
	if perHour <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(math.Max(1, float64(perHour)/60))
	return rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), burst)
}

// query performs a rate limited GET for service metadata.
func (d *downloader) query(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return d.get(ctx, rawURL)
}

func (d *downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return d.client.Do(req)
}

// save downloads assetURL into destDir under "<date>_<basename>". An existing file of
// that name is returned as is.
func (d *downloader) save(ctx context.Context, destDir string, date time.Time, assetURL, title string) (provider.Image, error) {
	name, err := destinationName(date, assetURL)
	if err != nil {
		return provider.Image{}, err
	}
	dest := filepath.Join(destDir, name)

	img := provider.Image{
		Date:      date,
		URL:       assetURL,
		FilePath:  dest,
		Title:     title,
		MediaType: mediaTypeImage,
	}

	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		d.logger.Info("image already in store", "date", img.DateString(), "file", name)
		img.Cached = true
		describe(&img)
		return img, nil
	}

	resp, err := d.get(ctx, assetURL)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Image{}, ctx.Err()
		}
		return provider.Image{}, fmt.Errorf("%w: %v", provider.ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Image{}, fmt.Errorf("%w: %s returned status %d", provider.ErrDownload, assetURL, resp.StatusCode)
	}

	if resp.ContentLength >= 0 && resp.ContentLength < d.minSize {
		return provider.Image{}, fmt.Errorf("%w: declared %d bytes, need %d", provider.ErrTooSmall, resp.ContentLength, d.minSize)
	}

	d.logger.Info("retrieving image", "date", img.DateString(), "url", assetURL, "size", sizeString(resp.ContentLength))
	written, err := d.stream(ctx, resp.Body, dest, resp.ContentLength, name)
	if err != nil {
		return provider.Image{}, err
	}
	d.logger.Info("image grabbed", "date", img.DateString(), "file", name, "size", humanize.Bytes(uint64(written)))

	// the caption replaces the stored original; the returned size and
	// dimensions describe what ends up on disk
	if d.overlay != nil && title != "" {
		if err := d.overlay.Overlay(ctx, dest, title); err != nil {
			d.logger.Warn("caption overlay failed, keeping original", "file", name, "error", err)
		}
	}

	describe(&img)
	return img, nil
}

// stream copies body to dest through a ".part" file. Any failure, cancellation
// included, removes the partial file so nothing half written is ever left behind.
func (d *downloader) stream(ctx context.Context, body io.Reader, dest string, total int64, name string) (written int64, err error) {
	part := dest + partSuffix
	file, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", part, err)
	}

	defer func() {
		if err != nil {
			file.Close()
			if rmErr := os.Remove(part); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				d.logger.Warn("failed to clean up partial download", "file", part, "error", rmErr)
			} else {
				d.logger.Warn("download aborted, partial file removed", "file", name, "error", err)
			}
		}
	}()

	var report provider.ProgressFunc
	if d.progress != nil {
		report = d.progress.Start(name, total)
		defer d.progress.Finish()
	}

	buf := make([]byte, chunkSize)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return written, ctxErr
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write %s: %w", part, werr)
			}
			written += int64(n)
			if report != nil {
				report(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, ctxErr
			}
			return written, fmt.Errorf("%w: reading body: %v", provider.ErrDownload, readErr)
		}
	}

	if total >= 0 && written != total {
		return written, fmt.Errorf("%w: received %d of %d bytes", provider.ErrDownload, written, total)
	}
	if written < d.minSize {
		return written, fmt.Errorf("%w: received %d bytes, need %d", provider.ErrTooSmall, written, d.minSize)
	}

	if err = file.Sync(); err != nil {
		return written, fmt.Errorf("sync %s: %w", part, err)
	}
	if err = file.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", part, err)
	}
	if err = os.Rename(part, dest); err != nil {
		return written, fmt.Errorf("finalize %s: %w", dest, err)
	}
	return written, nil
}

// destinationName builds "<YYYY-MM-DD>_<basename of the URL path>".
func destinationName(date time.Time, assetURL string) (string, error) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid asset url %q: %v", provider.ErrDownload, assetURL, err)
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" || strings.ContainsAny(base, `\`) || base == ".." {
		return "", fmt.Errorf("%w: no file name in asset url %q", provider.ErrDownload, assetURL)
	}
	return date.Format(provider.DateLayout) + "_" + base, nil
}

// describe fills size and dimensions from disk. Dimensions stay zero for undecodable files.
func describe(img *provider.Image) {
	if info, err := os.Stat(img.FilePath); err == nil {
		img.Size = info.Size()
	}
	f, err := os.Open(img.FilePath)
	if err != nil {
		return
	}
	defer f.Close()
	if cfg, _, err := image.DecodeConfig(f); err == nil {
		img.Width, img.Height = cfg.Width, cfg.Height
	}
}

func sizeString(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(n))
}

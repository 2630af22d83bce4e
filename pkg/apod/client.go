// Package apod fetches the Astronomy Picture of the Day, either through the JSON API
// (Client) or by scraping the legacy HTML archive (Scraper).
package apod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

// Client implements provider.Fetcher on top of the APOD JSON API.
type Client struct {
	*downloader
	baseURL string
	apiKey  string
}

var _ provider.Fetcher = (*Client)(nil)

// NewClient creates an API backed fetcher.
func NewClient(opts Options) *Client {
	return &Client{
		downloader: newDownloader(opts),
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
	}
}

// Name returns the strategy name.
func (c *Client) Name() string {
	return "api"
}

// apodResponse is the subset of the API document we use. Errors come back as
// {"code": 500, "msg": "..."} or {"code": 404, "msg": "No data available for date: ..."}.
type apodResponse struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	MediaType string `json:"media_type"`
	URL       string `json:"url"`
	HDURL     string `json:"hdurl"`
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
}

// assetURL prefers the high resolution link.
func (r apodResponse) assetURL() string {
	if u := strings.TrimSpace(r.HDURL); u != "" {
		return u
	}
	return strings.TrimSpace(r.URL)
}

// Fetch resolves the picture for date and downloads it into destDir.
func (c *Client) Fetch(ctx context.Context, destDir string, date time.Time) (provider.Image, error) {
	meta, err := c.lookup(ctx, date)
	if err != nil {
		return provider.Image{}, err
	}

	if !strings.EqualFold(meta.MediaType, mediaTypeImage) {
		return provider.Image{}, fmt.Errorf("%w: media_type %q on %s", provider.ErrNotImage, meta.MediaType, date.Format(provider.DateLayout))
	}

	asset := meta.assetURL()
	if asset == "" {
		return provider.Image{}, fmt.Errorf("%w: no url for %s", provider.ErrNoResource, date.Format(provider.DateLayout))
	}
	if meta.HDURL == "" {
		c.logger.Info("no hd url found, using regular url", "date", date.Format(provider.DateLayout))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return provider.Image{}, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	return c.save(ctx, destDir, date, asset, meta.Title)
}

// lookup queries the API for one date.
func (c *Client) lookup(ctx context.Context, date time.Time) (apodResponse, error) {
	params := url.Values{}
	params.Set("hd", "true")
	params.Set("api_key", c.apiKey)
	params.Set("date", date.Format(provider.DateLayout))
	fullURL := c.baseURL + "?" + params.Encode()

	resp, err := c.query(ctx, fullURL)
	if err != nil {
		if ctx.Err() != nil {
			return apodResponse{}, ctx.Err()
		}
		return apodResponse{}, fmt.Errorf("%w: query apod: %v", provider.ErrDownload, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apodResponse{}, fmt.Errorf("%w: read apod response: %v", provider.ErrDownload, err)
	}

	var meta apodResponse
	decodeErr := json.Unmarshal(body, &meta)

	switch {
	case meta.Code == codeNoResource,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusBadRequest && decodeErr == nil && meta.Code != 0:
		msg := meta.Msg
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apodResponse{}, fmt.Errorf("%w: %s", provider.ErrNoResource, msg)
	case resp.StatusCode != http.StatusOK:
		return apodResponse{}, fmt.Errorf("%w: apod api returned status %d", provider.ErrDownload, resp.StatusCode)
	case decodeErr != nil:
		return apodResponse{}, fmt.Errorf("%w: decode apod response: %v", provider.ErrDownload, decodeErr)
	}
	return meta, nil
}

// ErrUnknownStrategy is returned by New for an unsupported strategy name.
var ErrUnknownStrategy = errors.New("unknown fetch strategy")

// New returns the fetcher for strategy ("api" or "html").
func New(strategy string, opts Options) (provider.Fetcher, error) {
	switch strategy {
	case "", "api":
		return NewClient(opts), nil
	case "html":
		return NewScraper(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

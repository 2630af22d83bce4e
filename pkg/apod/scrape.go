package apod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

// Scraper implements provider.Fetcher by reading the dated archive pages
// (apYYMMDD.html) and following the image link found there.
type Scraper struct {
	*downloader
	siteURL string
}

var _ provider.Fetcher = (*Scraper)(nil)

// NewScraper creates an HTML backed fetcher.
func NewScraper(opts Options) *Scraper {
	site := opts.SiteURL
	if site != "" && !strings.HasSuffix(site, "/") {
		site += "/"
	}
	return &Scraper{
		downloader: newDownloader(opts),
		siteURL:    site,
	}
}

// Name returns the strategy name.
func (s *Scraper) Name() string {
	return "html"
}

// PageURL returns the archive page for date.
func (s *Scraper) PageURL(date time.Time) string {
	return s.siteURL + "ap" + date.Format(pageDateLayout) + ".html"
}

// Fetch resolves the picture for date from its archive page and downloads it.
func (s *Scraper) Fetch(ctx context.Context, destDir string, date time.Time) (provider.Image, error) {
	pageURL := s.PageURL(date)
	resp, err := s.query(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return provider.Image{}, ctx.Err()
		}
		return provider.Image{}, fmt.Errorf("%w: get %s: %v", provider.ErrDownload, pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return provider.Image{}, fmt.Errorf("%w: %s", provider.ErrNoResource, pageURL)
	case resp.StatusCode != http.StatusOK:
		return provider.Image{}, fmt.Errorf("%w: %s returned status %d", provider.ErrDownload, pageURL, resp.StatusCode)
	}

	page, err := parsePage(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return provider.Image{}, fmt.Errorf("%w: parse %s: %v", provider.ErrDownload, pageURL, err)
	}

	var links []string
	for _, l := range []string{page.anchor, page.img} {
		if l != "" && (len(links) == 0 || links[0] != l) {
			links = append(links, l)
		}
	}
	if len(links) == 0 {
		return provider.Image{}, fmt.Errorf("%w: no image link on %s (may be a video today)", provider.ErrNotImage, pageURL)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return provider.Image{}, fmt.Errorf("create destination %s: %w", destDir, err)
	}

	// the linked asset may be a small preview; the inline image is tried next
	var lastErr error
	for i, link := range links {
		asset, err := resolve(pageURL, link)
		if err != nil {
			return provider.Image{}, fmt.Errorf("%w: bad image link %q: %v", provider.ErrDownload, link, err)
		}
		img, err := s.save(ctx, destDir, date, asset, page.title)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !errors.Is(err, provider.ErrTooSmall) || i == len(links)-1 {
			break
		}
		s.logger.Info("linked asset too small, trying inline image", "date", date.Format(provider.DateLayout), "url", asset)
	}
	return provider.Image{}, lastErr
}

// archivePage holds what we extract from an archive page.
type archivePage struct {
	title  string
	anchor string // first <a href="image/...">
	img    string // first <img src="image/...">
}

func parsePage(r io.Reader) (archivePage, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return archivePage{}, err
	}

	var page archivePage
	var crawler func(*html.Node)
	crawler = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.title == "" && n.FirstChild != nil {
					page.title = cleanTitle(n.FirstChild.Data)
				}
			case "a":
				if page.anchor == "" {
					page.anchor = imageAttr(n, "href")
				}
			case "img":
				if page.img == "" {
					page.img = imageAttr(n, "src")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			crawler(c)
		}
	}
	crawler(doc)
	return page, nil
}

// imageAttr returns the attribute value when it points into the archive image tree.
func imageAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			continue
		}
		val := strings.TrimSpace(a.Val)
		lower := strings.ToLower(val)
		if strings.HasPrefix(lower, "image/") || strings.Contains(lower, "/apod/image/") {
			return val
		}
	}
	return ""
}

// cleanTitle turns "APOD: 2024 January 1 - Foo" into "Foo".
func cleanTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if i := strings.Index(title, " - "); i >= 0 && strings.HasPrefix(strings.ToUpper(title), "APOD") {
		title = strings.TrimSpace(title[i+3:])
	}
	return title
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

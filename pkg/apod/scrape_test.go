package apod

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

const archivePageHTML = `<html>
<head><title> APOD: 2024 January 2 - Orion
 Deep Field </title></head>
<body>
<center>
<a href="archivepix.html">Archive</a>
<a href="image/2401/orion_big.png">
<img src="image/2401/orion_small.png" alt="Orion"></a>
</center>
</body></html>`

func newArchiveServer(t *testing.T, pages map[string]string, images map[string][]byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range pages {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(body))
		})
	}
	for path, data := range images {
		mux.HandleFunc(path, serveBytes(data, nil))
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestScraperFetchFollowsAnchor(t *testing.T) {
	data := pngBytes(t, 20, 10)
	srv := newArchiveServer(t,
		map[string]string{"/apod/ap240102.html": archivePageHTML},
		map[string][]byte{"/apod/image/2401/orion_big.png": data},
	)
	s := NewScraper(Options{SiteURL: srv.URL + "/apod", HTTPClient: srv.Client(), MinFileSize: 10})
	dest := t.TempDir()

	img, err := s.Fetch(context.Background(), dest, testDate)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "2024-01-02_orion_big.png"), img.FilePath)
	assert.Equal(t, "Orion Deep Field", img.Title)
	assert.Equal(t, srv.URL+"/apod/image/2401/orion_big.png", img.URL)
	assert.Equal(t, 20, img.Width)
}

func TestScraperFallsBackToImgTag(t *testing.T) {
	page := strings.Replace(archivePageHTML, `<a href="image/2401/orion_big.png">`, `<a href="https://example.test/">`, 1)
	data := pngBytes(t, 12, 12)
	srv := newArchiveServer(t,
		map[string]string{"/apod/ap240102.html": page},
		map[string][]byte{"/apod/image/2401/orion_small.png": data},
	)
	s := NewScraper(Options{SiteURL: srv.URL + "/apod/", HTTPClient: srv.Client(), MinFileSize: 10})

	img, err := s.Fetch(context.Background(), t.TempDir(), testDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02_orion_small.png", filepath.Base(img.FilePath))
}

func TestScraperTriesImgWhenAnchorTooSmall(t *testing.T) {
	small := pngBytes(t, 2, 2)
	large := pngBytes(t, 24, 16)
	srv := newArchiveServer(t,
		map[string]string{"/apod/ap240102.html": archivePageHTML},
		map[string][]byte{
			"/apod/image/2401/orion_big.png":   small,
			"/apod/image/2401/orion_small.png": large,
		},
	)
	s := NewScraper(Options{SiteURL: srv.URL + "/apod/", HTTPClient: srv.Client(), MinFileSize: int64(len(small)) + 1})
	dest := t.TempDir()

	img, err := s.Fetch(context.Background(), dest, testDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02_orion_small.png", filepath.Base(img.FilePath))
	assert.Equal(t, 24, img.Width)
	assert.Equal(t, []string{"2024-01-02_orion_small.png"}, dirEntries(t, dest))
}

func TestScraperBothAssetsTooSmall(t *testing.T) {
	small := pngBytes(t, 2, 2)
	srv := newArchiveServer(t,
		map[string]string{"/apod/ap240102.html": archivePageHTML},
		map[string][]byte{
			"/apod/image/2401/orion_big.png":   small,
			"/apod/image/2401/orion_small.png": small,
		},
	)
	s := NewScraper(Options{SiteURL: srv.URL + "/apod/", HTTPClient: srv.Client(), MinFileSize: 1 << 20})
	dest := t.TempDir()

	_, err := s.Fetch(context.Background(), dest, testDate)
	assert.ErrorIs(t, err, provider.ErrTooSmall)
	assert.Empty(t, dirEntries(t, dest))
}

func TestScraperFailures(t *testing.T) {
	videoPage := `<html><head><title>APOD: 2024 January 2 - A Video</title></head>
<body><iframe src="https://www.youtube.com/embed/abc"></iframe></body></html>`
	srv := newArchiveServer(t, map[string]string{"/apod/ap240102.html": videoPage}, nil)
	s := NewScraper(Options{SiteURL: srv.URL + "/apod/", HTTPClient: srv.Client()})
	dest := t.TempDir()

	_, err := s.Fetch(context.Background(), dest, testDate)
	assert.ErrorIs(t, err, provider.ErrNotImage)

	_, err = s.Fetch(context.Background(), dest, testDate.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, provider.ErrNoResource)
	assert.Empty(t, dirEntries(t, dest))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Orion Deep Field", cleanTitle("APOD: 2024 January 2 - Orion Deep Field"))
	assert.Equal(t, "Plain - Title", cleanTitle("Plain - Title"))
}

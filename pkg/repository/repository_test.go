package repository

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/slideshow"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/validator"
)

var now = time.Date(2024, time.January, 10, 15, 30, 0, 0, time.UTC)

// day describes what the fake service returns for a date.
type day struct {
	w, h int
	err  error
}

type fakeFetcher struct {
	mu    sync.Mutex
	days  map[string]day
	calls []string
	hook  func(date string)
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, destDir string, date time.Time) (provider.Image, error) {
	key := date.Format(provider.DateLayout)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.hook != nil {
		f.hook(key)
	}

	d, ok := f.days[key]
	if !ok {
		return provider.Image{}, provider.ErrNoResource
	}
	if d.err != nil {
		return provider.Image{}, d.err
	}

	path := filepath.Join(destDir, key+"_apod.png")
	if _, err := os.Stat(path); err != nil {
		file, err := os.Create(path)
		if err != nil {
			return provider.Image{}, err
		}
		defer file.Close()
		if err := png.Encode(file, image.NewGray(image.Rect(0, 0, d.w, d.h))); err != nil {
			return provider.Image{}, err
		}
	}
	return provider.Image{Date: date, FilePath: path, Width: d.w, Height: d.h}, nil
}

func dateKey(offset int) string {
	return now.AddDate(0, 0, -offset).Format(provider.DateLayout)
}

func newTestRepo(t *testing.T, root string, f *fakeFetcher, lookback int) *Repository {
	t.Helper()
	r, err := New(Options{
		Root:            root,
		OrigDir:         "image_orig",
		ActiveDir:       "image_use_as_bg",
		Descriptor:      "apod_backgrounds.xml",
		MaxLookbackDays: lookback,
		Now:             func() time.Time { return now },
	}, Deps{
		Fetcher: f,
		Checker: validator.New(validator.Settings{
			MinWidth: 40, MinHeight: 20, MinAspectRatio: 1.0, MaxAspectRatio: 2.0,
		}, nil),
		Composer: slideshow.New(slideshow.Options{Display: time.Minute, Transition: time.Second}, rand.New(rand.NewPCG(1, 2))),
	})
	require.NoError(t, err)
	return r
}

func linkTargets(t *testing.T, r *Repository) []string {
	t.Helper()
	links, err := r.ActiveLinks()
	require.NoError(t, err)
	var targets []string
	for _, l := range links {
		targets = append(targets, l.Target)
	}
	sort.Strings(targets)
	return targets
}

func TestNewCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "apod")
	r := newTestRepo(t, root, &fakeFetcher{}, 5)

	assert.DirExists(t, filepath.Join(root, "image_orig"))
	assert.DirExists(t, filepath.Join(root, "image_use_as_bg"))
	assert.Equal(t, filepath.Join(root, "image_use_as_bg", "apod_backgrounds.xml"), r.Layout().DescriptorPath())

	// idempotent
	newTestRepo(t, root, &fakeFetcher{}, 5)
}

func TestNewRejectsBadOptions(t *testing.T) {
	deps := Deps{Fetcher: &fakeFetcher{}, Checker: validator.New(validator.Settings{}, nil), Composer: slideshow.New(slideshow.Options{}, nil)}
	base := Options{Root: t.TempDir(), OrigDir: "o", ActiveDir: "a", Descriptor: "d.xml", MaxLookbackDays: 1}

	bad := base
	bad.ActiveDir = "../escape"
	_, err := New(bad, deps)
	assert.Error(t, err)

	bad = base
	bad.ActiveDir = "o"
	_, err = New(bad, deps)
	assert.Error(t, err)

	bad = base
	bad.MaxLookbackDays = 0
	_, err = New(bad, deps)
	assert.Error(t, err)

	_, err = New(base, Deps{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	bad = base
	bad.Root = file
	_, err = New(bad, deps)
	assert.Error(t, err)
}

func TestUpdateSelectsAndLinks(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{
		dateKey(0): {w: 64, h: 40},
		dateKey(1): {err: provider.ErrNotImage},
		dateKey(2): {w: 20, h: 20}, // too small
		dateKey(3): {w: 80, h: 50},
		dateKey(4): {w: 60, h: 40},
		dateKey(5): {w: 60, h: 40},
	}}
	r := newTestRepo(t, root, f, 30)

	res, err := r.Update(context.Background(), 3)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 5, res.Scanned)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Selected, 3)
	assert.Equal(t, dateKey(0), res.Selected[0].DateString())
	assert.Equal(t, dateKey(3), res.Selected[1].DateString())
	assert.Equal(t, dateKey(4), res.Selected[2].DateString())
	assert.Equal(t, []string{dateKey(0), dateKey(1), dateKey(2), dateKey(3), dateKey(4)}, f.calls)

	var want []string
	for _, img := range res.Selected {
		want = append(want, img.FilePath)
	}
	sort.Strings(want)
	assert.Equal(t, want, linkTargets(t, r))

	bg, err := slideshow.Load(res.Descriptor)
	require.NoError(t, err)
	order, err := bg.Cycle()
	require.NoError(t, err)
	assert.Len(t, order, 3)
}

func TestUpdateShrinksActiveSet(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{
		dateKey(0): {w: 64, h: 40},
		dateKey(1): {w: 64, h: 40},
		dateKey(2): {w: 64, h: 40},
	}}
	r := newTestRepo(t, root, f, 30)

	_, err := r.Update(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, linkTargets(t, r), 3)

	res, err := r.Update(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{res.Selected[0].FilePath}, linkTargets(t, r))

	origs, err := os.ReadDir(r.Layout().OrigDir())
	require.NoError(t, err)
	assert.Len(t, origs, 3, "originals are never deleted")
	assert.FileExists(t, res.Descriptor)
}

func TestUpdateCutoffLeavesActiveSetUntouched(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{dateKey(0): {w: 64, h: 40}}}
	r := newTestRepo(t, root, f, 4)

	_, err := r.Update(context.Background(), 1)
	require.NoError(t, err)
	before := linkTargets(t, r)

	f.calls = nil
	_, err = r.Update(context.Background(), 2)
	assert.ErrorIs(t, err, ErrCapacityNotReached)
	assert.Len(t, f.calls, 4)
	assert.Equal(t, before, linkTargets(t, r))
}

func TestUpdateLocked(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{}
	r := newTestRepo(t, root, f, 4)

	other := flock.New(r.Layout().LockPath())
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	_, err = r.Update(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Empty(t, f.calls)

	_, err = r.Compose()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestFetchSingleDay(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{dateKey(3): {w: 64, h: 40}}}
	r := newTestRepo(t, root, f, 4)

	img, err := r.Fetch(context.Background(), now.AddDate(0, 0, -3))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Layout().OrigDir(), dateKey(3)+"_apod.png"), img.FilePath)
	assert.FileExists(t, img.FilePath)
	assert.Equal(t, []string{dateKey(3)}, f.calls)
	assert.Empty(t, linkTargets(t, r))
}

func TestFetchLocked(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{dateKey(0): {w: 64, h: 40}}}
	r := newTestRepo(t, root, f, 4)

	other := flock.New(r.Layout().LockPath())
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = r.Fetch(context.Background(), now)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Empty(t, f.calls)

	require.NoError(t, other.Unlock())
	_, err = r.Fetch(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{dateKey(0)}, f.calls)
}

func TestUpdateCancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := &fakeFetcher{
		days: map[string]day{dateKey(0): {w: 64, h: 40}},
		hook: func(date string) {
			if date == dateKey(1) {
				cancel()
			}
		},
	}
	r := newTestRepo(t, root, f, 10)

	_, err := r.Update(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, linkTargets(t, r))
	assert.NoFileExists(t, r.Layout().DescriptorPath())
}

func TestUpdateAbortsOnUnskippableError(t *testing.T) {
	f := &fakeFetcher{days: map[string]day{dateKey(0): {err: fmt.Errorf("wrapped: %w", context.Canceled)}}}
	r := newTestRepo(t, t.TempDir(), f, 10)

	_, err := r.Update(context.Background(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, f.calls, 1)
}

func TestUpdateInvalidCapacity(t *testing.T) {
	r := newTestRepo(t, t.TempDir(), &fakeFetcher{}, 4)
	_, err := r.Update(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestUpdateLinkCollision(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{dateKey(0): {w: 64, h: 40}}}
	r := newTestRepo(t, root, f, 4)

	blocker := filepath.Join(r.Layout().ActiveDir(), dateKey(0)+"_apod.png")
	require.NoError(t, os.WriteFile(blocker, []byte("not an image"), 0o644))

	_, err := r.Update(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLinkCollision)
}

func TestLinkReplacesExistingSymlink(t *testing.T) {
	r := newTestRepo(t, t.TempDir(), &fakeFetcher{}, 4)
	first := filepath.Join(t.TempDir(), "x.png")
	second := filepath.Join(t.TempDir(), "x.png")

	_, err := r.link(first)
	require.NoError(t, err)
	p, err := r.link(second)
	require.NoError(t, err)

	target, err := os.Readlink(p)
	require.NoError(t, err)
	assert.Equal(t, second, target)
}

func TestClearActiveLinks(t *testing.T) {
	root := t.TempDir()
	f := &fakeFetcher{days: map[string]day{dateKey(0): {w: 64, h: 40}, dateKey(1): {w: 64, h: 40}}}
	r := newTestRepo(t, root, f, 4)
	_, err := r.Update(context.Background(), 2)
	require.NoError(t, err)

	active := r.Layout().ActiveDir()
	copied := filepath.Join(active, "copied.png")
	require.NoError(t, png.Encode(mustCreate(t, copied), image.NewGray(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.png"), filepath.Join(active, "dangling.png")))
	notes := filepath.Join(active, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep"), 0o644))

	removed, err := r.ClearActiveLinks()
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	entries, err := os.ReadDir(active)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"apod_backgrounds.xml", "notes.txt"}, names)
}

func mustCreate(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

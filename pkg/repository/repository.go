// Package repository maintains the local store of pictures and the active slideshow set.
//
// A repository root holds two directories: one with every downloaded original and
// one with symlinks to the images currently in rotation, next to the slideshow
// descriptor. Update walks back from today until enough usable images are found,
// then swaps the active set and recomposes the descriptor.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/slideshow"
	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

const lockFileName = ".apodwall.lock"

var (
	// ErrLocked means another process is updating the same repository.
	ErrLocked = errors.New("repository is locked by another process")
	// ErrCapacityNotReached means the lookback limit was hit before enough usable
	// images were found. The active set is left untouched.
	ErrCapacityNotReached = errors.New("capacity not reached within lookback limit")
	// ErrInvalidCapacity means the requested capacity is below one.
	ErrInvalidCapacity = errors.New("capacity must be at least 1")
	// ErrLinkCollision means a regular file occupies the name of a link to create.
	ErrLinkCollision = errors.New("regular file in place of active link")
)

// Checker decides whether a downloaded file may join the active set.
type Checker interface {
	IsUsable(path string) bool
}

// Composer rebuilds the slideshow descriptor from the images next to it.
type Composer interface {
	Compose(descriptorPath string) (*slideshow.Background, error)
}

// Options configures a Repository.
type Options struct {
	Root            string
	OrigDir         string
	ActiveDir       string
	Descriptor      string
	MaxLookbackDays int
	Logger          *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Deps are the collaborators a Repository drives.
type Deps struct {
	Fetcher  provider.Fetcher
	Checker  Checker
	Composer Composer
}

// Result summarizes one Update run.
type Result struct {
	RunID      string
	Selected   []provider.Image // newest first
	Scanned    int              // dates attempted
	Skipped    int              // dates that failed to fetch or validate
	Descriptor string
}

// Repository owns the on-disk layout and the update procedure.
type Repository struct {
	layout      Layout
	maxLookback int
	deps        Deps
	lock        *flock.Flock
	logger      *slog.Logger
	now         func() time.Time
}

// New resolves the layout and creates any missing directory.
func New(opts Options, deps Deps) (*Repository, error) {
	if deps.Fetcher == nil || deps.Checker == nil || deps.Composer == nil {
		return nil, errors.New("repository requires a fetcher, a checker and a composer")
	}
	layout, err := NewLayout(opts.Root, opts.OrigDir, opts.ActiveDir, opts.Descriptor)
	if err != nil {
		return nil, err
	}
	if opts.MaxLookbackDays < 1 {
		return nil, fmt.Errorf("max lookback days must be at least 1, got %d", opts.MaxLookbackDays)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := &Repository{
		layout:      layout,
		maxLookback: opts.MaxLookbackDays,
		deps:        deps,
		lock:        flock.New(layout.LockPath()),
		logger:      log.OrDiscard(opts.Logger),
		now:         now,
	}

	existed, created, err := layout.ensureDirs()
	if existed {
		r.logger.Info("repository root exists", "root", layout.Root())
	}
	for _, dir := range created {
		r.logger.Info("created directory", "path", dir)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Layout returns the resolved paths.
func (r *Repository) Layout() Layout {
	return r.layout
}

// Update selects capacity usable images, walking back one day at a time from today,
// replaces the active links with them and recomposes the descriptor.
func (r *Repository) Update(ctx context.Context, capacity int) (Result, error) {
	if capacity < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	unlock, err := r.acquire()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	res := Result{RunID: uuid.NewString(), Descriptor: r.layout.DescriptorPath()}
	logger := r.logger.With("run_id", res.RunID)
	logger.Info("update started", "capacity", capacity, "fetcher", r.deps.Fetcher.Name())

	selection, err := r.scan(ctx, logger, capacity, &res)
	if err != nil {
		return res, err
	}

	res.Selected = make([]provider.Image, 0, len(selection))
	for _, img := range selection {
		res.Selected = append(res.Selected, img)
	}
	sort.Slice(res.Selected, func(i, j int) bool { return res.Selected[i].Date.After(res.Selected[j].Date) })

	removed, err := r.ClearActiveLinks()
	if err != nil {
		return res, err
	}
	logger.Debug("cleared active set", "removed", removed)

	for _, img := range res.Selected {
		p, err := r.link(img.FilePath)
		if err != nil {
			return res, err
		}
		logger.Debug("linked", "date", img.DateString(), "link", p)
	}

	if _, err := r.deps.Composer.Compose(res.Descriptor); err != nil {
		return res, fmt.Errorf("compose descriptor: %w", err)
	}
	logger.Info("update finished", "selected", len(res.Selected), "scanned", res.Scanned, "skipped", res.Skipped)
	return res, nil
}

// scan fetches dates from today backwards until capacity usable images are selected.
func (r *Repository) scan(ctx context.Context, logger *slog.Logger, capacity int, res *Result) (map[string]provider.Image, error) {
	selection := make(map[string]provider.Image, capacity)
	today := r.today()

	for offset := 0; len(selection) < capacity; offset++ {
		if offset >= r.maxLookback {
			return nil, fmt.Errorf("%w: %d of %d usable images after %d days", ErrCapacityNotReached, len(selection), capacity, offset)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := today.AddDate(0, 0, -offset)
		day := date.Format(provider.DateLayout)
		res.Scanned++

		img, err := r.deps.Fetcher.Fetch(ctx, r.layout.OrigDir(), date)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !provider.IsSkippable(err) {
				return nil, fmt.Errorf("fetch %s: %w", day, err)
			}
			res.Skipped++
			logger.Warn("skipping date", "date", day, "reason", err)
			continue
		}

		if !r.deps.Checker.IsUsable(img.FilePath) {
			res.Skipped++
			logger.Info("image not suitable as background", "date", day, "file", img.FilePath)
			continue
		}
		selection[day] = img
		logger.Info("selected", "date", day, "count", len(selection), "capacity", capacity)
	}
	return selection, nil
}

// Compose rebuilds the descriptor from the current active set under the repository lock.
func (r *Repository) Compose() (*slideshow.Background, error) {
	unlock, err := r.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.deps.Composer.Compose(r.layout.DescriptorPath())
}

// Fetch downloads the picture for date into the originals directory. The active
// set is left untouched.
func (r *Repository) Fetch(ctx context.Context, date time.Time) (provider.Image, error) {
	unlock, err := r.acquire()
	if err != nil {
		return provider.Image{}, err
	}
	defer unlock()
	r.logger.Debug("single fetch", "date", date.Format(provider.DateLayout), "fetcher", r.deps.Fetcher.Name())
	return r.deps.Fetcher.Fetch(ctx, r.layout.OrigDir(), date)
}

func (r *Repository) acquire() (func(), error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, r.layout.LockPath())
	}
	return func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release repository lock", "error", err)
		}
	}, nil
}

// today returns the current calendar date as midnight UTC.
func (r *Repository) today() time.Time {
	y, m, d := r.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package slideshow composes the GNOME background XML that cycles through the active images.
package slideshow

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/validator"
	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

var (
	// ErrNoImages means the descriptor directory holds no decodable image.
	ErrNoImages = errors.New("no images to compose")
	// ErrBrokenCycle means a descriptor's transitions do not form a single loop.
	ErrBrokenCycle = errors.New("transitions do not form a single cycle")
)

// Options sets how long each image is shown and how long the cross-fade lasts.
type Options struct {
	Display    time.Duration
	Transition time.Duration
	Logger     *slog.Logger
}

// Composer writes slideshow descriptors.
type Composer struct {
	display    Seconds
	transition Seconds
	rng        *rand.Rand
	logger     *slog.Logger
}

// New creates a Composer. A nil rng is seeded from the clock.
func New(opts Options, rng *rand.Rand) *Composer {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>32))
	}
	return &Composer{
		display:    SecondsOf(opts.Display),
		transition: SecondsOf(opts.Transition),
		rng:        rng,
		logger:     log.OrDiscard(opts.Logger),
	}
}

// Build returns a descriptor cycling through files in the given order.
func (c *Composer) Build(files []string) *Background {
	bg := &Background{Entries: make([]Entry, 0, 2*len(files))}
	for i, f := range files {
		bg.Entries = append(bg.Entries,
			Entry{Static: &Static{Duration: c.display, File: f}},
			Entry{Transition: &Transition{Duration: c.transition, From: f, To: files[(i+1)%len(files)]}},
		)
	}
	return bg
}

// Compose lists the images next to descriptorPath, shuffles them and writes the
// descriptor atomically.
func (c *Composer) Compose(descriptorPath string) (*Background, error) {
	dir := filepath.Dir(descriptorPath)
	files, err := validator.ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	c.rng.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })

	bg := c.Build(files)
	if err := Write(descriptorPath, bg); err != nil {
		return nil, err
	}
	c.logger.Info("composed slideshow", "descriptor", descriptorPath, "images", len(files))
	return bg, nil
}

// Write encodes bg to path through a temporary file in the same directory.
func Write(path string, bg *Background) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp descriptor: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(xml.Header); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	enc := xml.NewEncoder(tmp)
	enc.Indent("", "  ")
	if err = enc.Encode(bg); err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	if _, err = tmp.WriteString("\n"); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod descriptor: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync descriptor: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close descriptor: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace descriptor: %w", err)
	}
	return nil
}

// Load parses the descriptor at path.
func Load(path string) (*Background, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bg := new(Background)
	if err := xml.Unmarshal(data, bg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return bg, nil
}

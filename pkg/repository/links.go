package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/validator"
)

// Link is one entry of the active set.
type Link struct {
	Name   string // File name inside the active directory
	Target string // Path the link points to
}

// ClearActiveLinks removes every image in the active directory, symlink or not, plus
// dangling symlinks. Other files such as the descriptor are kept. It returns the
// number of entries removed.
func (r *Repository) ClearActiveLinks() (int, error) {
	dir := r.layout.ActiveDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read active directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		dangling := false
		if entry.Type()&fs.ModeSymlink != 0 {
			if _, statErr := os.Stat(p); statErr != nil {
				dangling = true
			}
		}
		if !dangling && !validator.IsImage(p) {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", p, err)
		}
		removed++
		r.logger.Debug("unlinked", "file", entry.Name(), "dangling", dangling)
	}
	return removed, nil
}

// ActiveLinks lists the symlinks of the active directory sorted by name.
func (r *Repository) ActiveLinks() ([]Link, error) {
	dir := r.layout.ActiveDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read active directory: %w", err)
	}
	var links []Link
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink == 0 {
			continue
		}
		target, err := os.Readlink(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read link %s: %w", entry.Name(), err)
		}
		links = append(links, Link{Name: entry.Name(), Target: target})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Name < links[j].Name })
	return links, nil
}

// link points <active>/<base of target> at target. An existing symlink of that name
// is replaced; any other existing file is a collision.
func (r *Repository) link(target string) (string, error) {
	name := filepath.Base(target)
	p := filepath.Join(r.layout.ActiveDir(), name)

	if info, err := os.Lstat(p); err == nil {
		if info.Mode()&fs.ModeSymlink == 0 {
			return "", fmt.Errorf("%w: %s", ErrLinkCollision, p)
		}
		if err := os.Remove(p); err != nil {
			return "", fmt.Errorf("replace link %s: %w", p, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", p, err)
	}

	if err := os.Symlink(target, p); err != nil {
		return "", fmt.Errorf("link %s: %w", p, err)
	}
	return p, nil
}

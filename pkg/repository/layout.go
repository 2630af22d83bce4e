package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout resolves the directories and files under a repository root.
type Layout struct {
	root       string
	origDir    string
	activeDir  string
	descriptor string
}

// NewLayout builds a Layout. Directory and descriptor names must be plain names.
func NewLayout(root, origDir, activeDir, descriptor string) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("repository root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	for _, name := range []string{origDir, activeDir, descriptor} {
		if err := validateName(name); err != nil {
			return Layout{}, err
		}
	}
	if origDir == activeDir {
		return Layout{}, fmt.Errorf("originals and active directories must differ (%q)", origDir)
	}
	return Layout{root: abs, origDir: origDir, activeDir: activeDir, descriptor: descriptor}, nil
}

// validateName ensures the name does not contain path traversal characters.
func validateName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "..") || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}

// Root returns the absolute repository root.
func (l Layout) Root() string { return l.root }

// OrigDir returns the directory holding every downloaded original.
func (l Layout) OrigDir() string { return filepath.Join(l.root, l.origDir) }

// ActiveDir returns the directory holding the links of the current selection.
func (l Layout) ActiveDir() string { return filepath.Join(l.root, l.activeDir) }

// DescriptorPath returns the slideshow descriptor location inside the active directory.
func (l Layout) DescriptorPath() string { return filepath.Join(l.ActiveDir(), l.descriptor) }

// LockPath returns the path of the cross-process lock file.
func (l Layout) LockPath() string { return filepath.Join(l.root, lockFileName) }

// ensureDirs creates the root, originals and active directories. It reports whether
// the root already existed.
func (l Layout) ensureDirs() (rootExisted bool, created []string, err error) {
	if info, statErr := os.Stat(l.root); statErr == nil {
		if !info.IsDir() {
			return false, nil, fmt.Errorf("repository root %s is not a directory", l.root)
		}
		rootExisted = true
	}
	for _, dir := range []string{l.root, l.OrigDir(), l.ActiveDir()} {
		if _, statErr := os.Stat(dir); statErr == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return rootExisted, created, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return rootExisted, created, nil
}

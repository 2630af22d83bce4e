// Package wallpaper points the desktop background at a slideshow descriptor.
package wallpaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Jerry-Ma/nasa-apod-desktop/util/log"
)

// ErrUnsupportedDesktop means no command is known for the running desktop environment.
var ErrUnsupportedDesktop = errors.New("unsupported desktop environment")

// Runner executes one command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Options configures an Applier.
type Options struct {
	// Command overrides detection. "{file}" is replaced with the descriptor path.
	Command []string
	// Getenv reads the environment. Defaults to os.Getenv.
	Getenv func(string) string
	Runner Runner
	Logger *slog.Logger
}

// Applier sets the desktop background.
type Applier struct {
	command []string
	getenv  func(string) string
	run     Runner
	logger  *slog.Logger
}

// New creates an Applier.
func New(opts Options) *Applier {
	a := &Applier{
		command: opts.Command,
		getenv:  opts.Getenv,
		run:     opts.Runner,
		logger:  log.OrDiscard(opts.Logger),
	}
	if a.getenv == nil {
		a.getenv = os.Getenv
	}
	if a.run == nil {
		a.run = ExecRunner
	}
	return a
}

// Commands returns the argv lists Apply would run for descriptorPath.
func (a *Applier) Commands(descriptorPath string) ([][]string, error) {
	if len(a.command) > 0 {
		return customCommand(a.command, descriptorPath), nil
	}
	desktop := DetectDesktop(a.getenv)
	return desktopCommands(desktop, descriptorPath)
}

// Apply points the desktop background at descriptorPath. Failures are returned, not retried.
func (a *Applier) Apply(ctx context.Context, descriptorPath string) error {
	abs, err := filepath.Abs(descriptorPath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", descriptorPath, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("descriptor: %w", err)
	}

	cmds, err := a.Commands(abs)
	if err != nil {
		return err
	}
	for _, argv := range cmds {
		a.logger.Debug("running", "command", strings.Join(argv, " "))
		out, err := a.run(ctx, argv[0], argv[1:]...)
		if err != nil {
			msg := strings.TrimSpace(string(out))
			if msg != "" {
				return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
			}
			return fmt.Errorf("%s: %w", argv[0], err)
		}
	}
	a.logger.Info("wallpaper set", "descriptor", filepath.Base(abs))
	return nil
}

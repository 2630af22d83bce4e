package main

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

var errOffline = errors.New("this command does not download")

// offlineFetcher satisfies the repository for commands that only read or relink.
type offlineFetcher struct{}

func (offlineFetcher) Name() string { return "offline" }

func (offlineFetcher) Fetch(context.Context, string, time.Time) (provider.Image, error) {
	return provider.Image{}, errOffline
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

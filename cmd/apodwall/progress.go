package main

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/Jerry-Ma/nasa-apod-desktop/pkg/provider"
)

// barReporter draws one byte progress bar per download.
type barReporter struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// newProgressReporter returns a bar reporter when w is a terminal, nil otherwise.
func newProgressReporter(w io.Writer) provider.ProgressReporter {
	if !isTerminal(w) {
		return nil
	}
	return &barReporter{w: w}
}

func (r *barReporter) Start(name string, total int64) provider.ProgressFunc {
	r.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("retrieving "+name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	bar := r.bar
	return func(written, _ int64) {
		_ = bar.Set64(written)
	}
}

func (r *barReporter) Finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}

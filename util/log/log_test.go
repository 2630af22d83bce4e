package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		level    string
		fn       func(l *slog.Logger)
		expected string
		absent   bool
	}{
		{
			name:     "text info",
			format:   "text",
			fn:       func(l *slog.Logger) { l.Info("image linked", "name", "a.jpg") },
			expected: "name=a.jpg",
		},
		{
			name:     "json info",
			format:   "json",
			fn:       func(l *slog.Logger) { l.Info("image linked", "name", "a.jpg") },
			expected: `"name":"a.jpg"`,
		},
		{
			name:   "debug filtered at info",
			level:  "info",
			fn:     func(l *slog.Logger) { l.Debug("hidden") },
			absent: true,
		},
		{
			name:     "debug shown at debug",
			level:    "debug",
			fn:       func(l *slog.Logger) { l.Debug("shown") },
			expected: "shown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, closer, err := New(Options{Level: tt.level, Format: tt.format, Console: &buf})
			require.NoError(t, err)
			defer closer.Close()

			tt.fn(l)
			if tt.absent {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "apodwall.log")

	l, closer, err := New(Options{File: file, MaxSizeMB: 1, Console: &console})
	require.NoError(t, err)
	l.Info("repository updated", "capacity", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "capacity=3")
	assert.Contains(t, console.String(), "capacity=3")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, _, err := New(Options{Format: "yaml"})
	assert.Error(t, err)

	_, _, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := OrDiscard(nil)
	require.NotNil(t, l)
	l.Error("nothing happens")
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}

func TestDefaultFile(t *testing.T) {
	path, err := DefaultFile("ApodWall")
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	assert.True(t, strings.HasSuffix(path, filepath.Join("apodwall", "apodwall.log")))
}

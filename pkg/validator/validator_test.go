package validator

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = Settings{
	MinFileSize:    0,
	MinWidth:       1400,
	MinHeight:      900,
	MinAspectRatio: 1.0,
	MaxAspectRatio: 2.0,
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
	return path
}

func TestCheckDimensions(t *testing.T) {
	dir := t.TempDir()
	v := New(defaults, nil)

	tests := []struct {
		w, h int
		want error
	}{
		{1920, 1080, nil},
		{1200, 1080, ErrTooNarrow},
		{2000, 500, ErrTooShort},
		{1400, 900, nil},
		{1399, 900, ErrTooNarrow},
		{1400, 899, ErrTooShort},
		{1400, 1400, nil},
		{1400, 1401, ErrAspect},
		{1800, 900, nil},
		{1802, 900, ErrAspect},
	}

	for _, tt := range tests {
		path := writePNG(t, dir, "img.png", tt.w, tt.h)
		err := v.Check(path)
		if tt.want == nil {
			assert.NoError(t, err, "%dx%d", tt.w, tt.h)
			assert.True(t, v.IsUsable(path))
		} else {
			assert.ErrorIs(t, err, tt.want, "%dx%d", tt.w, tt.h)
			assert.False(t, v.IsUsable(path))
		}
	}
}

func TestCheckFileProblems(t *testing.T) {
	dir := t.TempDir()

	v := New(defaults, nil)
	assert.ErrorIs(t, v.Check(""), ErrNotDecodable)
	assert.ErrorIs(t, v.Check(filepath.Join(dir, "missing.jpg")), ErrNotDecodable)
	assert.ErrorIs(t, v.Check(dir), ErrNotDecodable)

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a jpeg"), 0o644))
	assert.ErrorIs(t, v.Check(garbage), ErrNotDecodable)
	assert.False(t, v.IsUsable(garbage))

	small := writePNG(t, dir, "small.png", 1920, 1080)
	strict := defaults
	strict.MinFileSize = 10 * 1024 * 1024
	assert.ErrorIs(t, New(strict, nil).Check(small), ErrTooSmallFile)
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	b := writePNG(t, dir, "b.png", 4, 4)
	a := writePNG(t, dir, "a.png", 4, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apod_backgrounds.xml"), []byte("<background/>"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	link := filepath.Join(dir, "c.png")
	require.NoError(t, os.Symlink(a, link))
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere.png"), filepath.Join(dir, "dangling.png")))

	got, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, link}, got)

	_, err = ListImages(filepath.Join(dir, "absent"))
	assert.Error(t, err)
}

func TestDimensions(t *testing.T) {
	path := writePNG(t, t.TempDir(), "x.png", 30, 20)
	w, h, err := Dimensions(path)
	require.NoError(t, err)
	assert.Equal(t, 30, w)
	assert.Equal(t, 20, h)
}

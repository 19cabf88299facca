package thumb

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{0xff, 0, 0, 0xff})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestFromFileScalesImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, 512, 256)

	data, err := FromFile(path, 0)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, 128, w)
	assert.Equal(t, 64, h)
}

func TestFromFileKeepsSmallImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	writePNG(t, path, 40, 30)

	data, err := FromFile(path, 0)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestFromFileTileForOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	data, err := FromFile(path, 0)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, Size, w)
	assert.Equal(t, Size, h)

	data, err = FromFile(dir, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFromFileOverCeilingFallsBackToTile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	writePNG(t, path, 300, 300)

	data, err := FromFile(path, 10)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, Size, w)
	assert.Equal(t, Size, h)
}

func TestFromFileOverPixelBudgetFallsBackToTile(t *testing.T) {
	old := maxPixels
	maxPixels = 1000
	t.Cleanup(func() { maxPixels = old })

	// 1200 px but only a few hundred bytes on disk.
	path := filepath.Join(t.TempDir(), "dense.png")
	writePNG(t, path, 40, 30)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Less(t, fi.Size(), int64(1000))

	data, err := FromFile(path, 10<<20)
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, Size, w, "a tile, not the 40x30 original")
	assert.Equal(t, Size, h)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "gone"), 0)
	assert.Error(t, err)
}

func TestDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 640, 480))))

	w, h, ok := Dimensions(buf.Bytes())
	assert.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	_, _, ok = Dimensions([]byte("not an image"))
	assert.False(t, ok)
}

func TestExtLabel(t *testing.T) {
	assert.Equal(t, "PDF", extLabel("/a/report.pdf"))
	assert.Equal(t, "FILE", extLabel("/a/Makefile"))
	assert.Equal(t, "GZ", extLabel("/a/x.tar.gz"))
}

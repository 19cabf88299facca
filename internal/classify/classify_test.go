package classify

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/history"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newClassifier(max int64) *Classifier {
	return &Classifier{MaxBytes: max, Now: func() time.Time { return fixedNow }}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		kind    history.Kind
		primary string
	}{
		{"color with hash", "#1a2b3c", history.KindColor, "#1A2B3C"},
		{"color without hash", "ff00AA", history.KindColor, "#FF00AA"},
		{"color with whitespace", "  #abcdef\n", history.KindColor, "#ABCDEF"},
		{"too short for color", "#abcde", history.KindText, "#abcde"},
		{"not hex", "#abcdeg", history.KindText, "#abcdeg"},
		{"plain", "hello", history.KindText, "hello"},
		{"literal kept", "  padded  ", history.KindText, "  padded  "},
	}
	c := newClassifier(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := c.Classify(clip.Payload{Text: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, it.Kind)
			assert.Equal(t, tt.primary, it.PrimaryText)
			assert.Nil(t, it.Payload)
			assert.Empty(t, it.SourcePath)
			assert.Equal(t, fixedNow, it.CreatedAt)
			assert.NotEmpty(t, it.ID)
		})
	}
}

func TestClassifyBlankTextSkipped(t *testing.T) {
	for _, in := range []string{" ", "\n\t", ""} {
		_, err := newClassifier(0).Classify(clip.Payload{Text: in})
		assert.ErrorIs(t, err, apperror.ErrSkipped, "%q", in)
	}
}

func TestClassifyEmptyPayloadSkipped(t *testing.T) {
	_, err := newClassifier(0).Classify(clip.Payload{RichText: []byte("{\\rtf1}")})
	assert.ErrorIs(t, err, apperror.ErrSkipped)
}

func TestClassifyRichText(t *testing.T) {
	rtf := []byte(`{\rtf1\ansi hello}`)
	it, err := newClassifier(0).Classify(clip.Payload{Text: "hello", RichText: rtf})
	require.NoError(t, err)
	assert.Equal(t, rtf, it.RichText)

	color, err := newClassifier(0).Classify(clip.Payload{Text: "#000000", RichText: rtf})
	require.NoError(t, err)
	assert.Nil(t, color.RichText)
}

func TestClassifyRawImage(t *testing.T) {
	data := pngBytes(t, 640, 480)
	it, err := newClassifier(0).Classify(clip.Payload{Image: data, Text: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, history.KindImage, it.Kind)
	assert.Equal(t, "Image 640×480", it.PrimaryText)
	assert.Equal(t, data, it.Payload)
	assert.Empty(t, it.SourcePath)

	it, err = newClassifier(0).Classify(clip.Payload{Image: []byte("opaque")})
	require.NoError(t, err)
	assert.Equal(t, "Image", it.PrimaryText)
}

func TestClassifyTooLarge(t *testing.T) {
	c := newClassifier(4)
	_, err := c.Classify(clip.Payload{Image: []byte("12345")})
	assert.ErrorIs(t, err, apperror.ErrPayloadTooLarge)

	_, err = c.Classify(clip.Payload{Text: "12345"})
	assert.ErrorIs(t, err, apperror.ErrPayloadTooLarge)
}

func TestClassifyImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Shot.PNG")
	data := pngBytes(t, 10, 20)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	it, err := newClassifier(0).Classify(clip.Payload{Files: []string{path}, Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, history.KindImage, it.Kind)
	assert.Equal(t, path, it.SourcePath)
	assert.Equal(t, data, it.Payload)
	assert.Equal(t, "Image 10×20", it.PrimaryText)

	_, err = newClassifier(8).Classify(clip.Payload{Files: []string{path}})
	assert.ErrorIs(t, err, apperror.ErrPayloadTooLarge)
}

func TestClassifyOtherFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	second := filepath.Join(dir, "second.txt")

	it, err := newClassifier(0).Classify(clip.Payload{Files: []string{path, second}})
	require.NoError(t, err)
	assert.Equal(t, history.KindFile, it.Kind)
	assert.Equal(t, "report.pdf", it.PrimaryText)
	assert.Equal(t, path, it.SourcePath)
	assert.NotEmpty(t, it.Payload, "thumbnail expected")
}

func TestClassifyMissingFileHasNoThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.docx")
	it, err := newClassifier(0).Classify(clip.Payload{Files: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, history.KindFile, it.Kind)
	assert.Nil(t, it.Payload)
}

func TestClassifyUnreadableImageFileFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.jpg")
	it, err := newClassifier(0).Classify(clip.Payload{Files: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, history.KindFile, it.Kind)
	assert.Equal(t, "gone.jpg", it.PrimaryText)
	assert.Equal(t, path, it.SourcePath)
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "#A1B2C3", NormalizeColor("a1b2c3"))
	assert.Equal(t, "#A1B2C3", NormalizeColor("#a1B2c3"))
}

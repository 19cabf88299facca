// Package classify turns raw clipboard payloads into history items.
package classify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/thumb"
)

// DefaultMaxBytes is the payload ceiling used when none is configured.
const DefaultMaxBytes int64 = 10 << 20

var colorRe = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".tiff": {},
	".tif":  {},
	".heic": {},
}

// Classifier maps a clipboard payload onto exactly one item kind.
type Classifier struct {
	// MaxBytes caps image payloads, image files and text. Zero selects
	// DefaultMaxBytes.
	MaxBytes int64
	// Now stamps CreatedAt. Nil selects time.Now.
	Now func() time.Time
}

// New returns a Classifier with the given ceiling and the wall clock.
func New(maxBytes int64) *Classifier {
	return &Classifier{MaxBytes: maxBytes}
}

// Classify picks the first matching representation in priority order: file
// reference, raw image, text. It returns an error wrapping
// apperror.ErrSkipped when nothing is capturable and
// apperror.ErrPayloadTooLarge when the content exceeds the ceiling.
func (c *Classifier) Classify(p clip.Payload) (*history.Item, error) {
	switch {
	case len(p.Files) > 0:
		return c.fromFile(p.Files[0])
	case len(p.Image) > 0:
		return c.fromImage(p.Image)
	case p.Text != "":
		return c.fromText(p.Text, p.RichText)
	}
	return nil, apperror.Skipped("no supported representation")
}

func (c *Classifier) fromFile(path string) (*history.Item, error) {
	if _, ok := imageExts[strings.ToLower(filepath.Ext(path))]; ok {
		it, err := c.fromImageFile(path)
		if err == nil || apperror.IsNoop(err) {
			return it, err
		}
		slog.Debug("image file unreadable, keeping as file reference", "path", path, "err", err)
	}

	it := c.newItem(history.KindFile, filepath.Base(path))
	it.SourcePath = path
	if data, err := thumb.FromFile(path, c.maxBytes()); err == nil {
		it.Payload = data
	} else {
		slog.Debug("no thumbnail", "path", path, "err", err)
	}
	return it, nil
}

func (c *Classifier) fromImageFile(path string) (*history.Item, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if fi.Size() > c.maxBytes() {
		return nil, apperror.TooLarge(fi.Size(), c.maxBytes())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	it := c.newItem(history.KindImage, imageLabel(data))
	it.Payload = data
	it.SourcePath = path
	return it, nil
}

func (c *Classifier) fromImage(data []byte) (*history.Item, error) {
	if n := int64(len(data)); n > c.maxBytes() {
		return nil, apperror.TooLarge(n, c.maxBytes())
	}
	it := c.newItem(history.KindImage, imageLabel(data))
	it.Payload = data
	return it, nil
}

func (c *Classifier) fromText(text string, rtf []byte) (*history.Item, error) {
	if n := int64(len(text)); n > c.maxBytes() {
		return nil, apperror.TooLarge(n, c.maxBytes())
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperror.Skipped("blank text")
	}
	if colorRe.MatchString(trimmed) {
		return c.newItem(history.KindColor, NormalizeColor(trimmed)), nil
	}
	it := c.newItem(history.KindText, text)
	if int64(len(rtf)) <= c.maxBytes() {
		it.RichText = rtf
	}
	return it, nil
}

func (c *Classifier) newItem(kind history.Kind, primary string) *history.Item {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return &history.Item{
		ID:          history.NewID(),
		Kind:        kind,
		PrimaryText: primary,
		CreatedAt:   now().UTC().Round(0),
	}
}

func (c *Classifier) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return c.MaxBytes
}

// NormalizeColor renders a six-digit hex colour as "#RRGGBB".
func NormalizeColor(s string) string {
	return "#" + strings.ToUpper(strings.TrimPrefix(s, "#"))
}

func imageLabel(data []byte) string {
	if w, h, ok := thumb.Dimensions(data); ok {
		return fmt.Sprintf("Image %d×%d", w, h)
	}
	return "Image"
}

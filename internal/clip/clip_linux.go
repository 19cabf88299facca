//go:build linux

package clip

import (
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.design/x/clipboard"
)

// linuxBackend synthesises a change token: X11 and Wayland expose no change
// counter, so every ChangeToken call digests the current text and image and
// bumps the token when the digest moves.
type linuxBackend struct {
	mu         sync.Mutex
	token      int64
	lastDigest uint64
}

// New returns the Linux clipboard backend, or the in-memory backend if the
// display environment is unavailable (e.g. a headless server without X11
// or Wayland). clipboard.Init is called here rather than in init() so that
// CLI sub-commands that never construct a Backend don't trigger the warning.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	b := &linuxBackend{}
	b.lastDigest = b.digest()
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (poll)" }

func (b *linuxBackend) digest() uint64 {
	h := xxhash.New()
	_, _ = h.Write(clipboard.Read(clipboard.FmtText))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(clipboard.Read(clipboard.FmtImage))
	return h.Sum64()
}

func (b *linuxBackend) ChangeToken() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d := b.digest(); d != b.lastDigest {
		b.lastDigest = d
		b.token++
	}
	return b.token
}

func (b *linuxBackend) Read() (Payload, error) {
	var p Payload
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		p.Text = string(text)
		p.Files = parseURIList(p.Text)
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		p.Image = img
	}
	return p, nil
}

func (b *linuxBackend) Write(p Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case len(p.Files) > 0:
		clipboard.Write(clipboard.FmtText, []byte(fileURIList(p.Files)))
	case len(p.Image) > 0:
		clipboard.Write(clipboard.FmtImage, p.Image)
	default:
		clipboard.Write(clipboard.FmtText, []byte(p.Text))
	}
	// Count our own write as exactly one change.
	b.lastDigest = b.digest()
	b.token++
	return nil
}

func (b *linuxBackend) Close() {}

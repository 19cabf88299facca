// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount, file URLs, RTF
//	clip_windows.go  — Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go    — Linux via golang.design/x/clipboard, token synthesised from content digests
//	clip_other.go    — everything else falls back to the in-memory backend
package clip

// Payload holds every representation currently offered by the clipboard.
// Any field may be empty; a zero Payload means the clipboard is empty or holds
// only unsupported types.
type Payload struct {
	// Files are absolute paths of copied file references, in pasteboard order.
	Files []string
	// Image is raw encoded image data (PNG from every backend).
	Image []byte
	// Text is the plain-text representation.
	Text string
	// RichText is the RTF representation, when the source offered one.
	RichText []byte
}

// Empty reports whether p carries no representation at all.
func (p Payload) Empty() bool {
	return len(p.Files) == 0 && len(p.Image) == 0 && p.Text == "" && len(p.RichText) == 0
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeToken returns a value that increases whenever the clipboard
	// contents change. It never decreases for the lifetime of the backend.
	ChangeToken() int64

	// Read returns the current clipboard contents.
	Read() (Payload, error)

	// Write replaces the clipboard contents. The write itself advances the
	// change token; callers that must not observe their own write refresh
	// their token afterwards.
	Write(p Payload) error

	// Close releases any resources held by the backend.
	Close()
}

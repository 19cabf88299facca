//go:build windows

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

var (
	user32                      = windows.NewLazySystemDLL("user32.dll")
	procGetClipboardSequenceNum = user32.NewProc("GetClipboardSequenceNumber")
)

type windowsBackend struct{}

// New returns the Windows clipboard backend. The change token is the
// system-wide clipboard sequence number.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewMemory()
	}
	if err := procGetClipboardSequenceNum.Find(); err != nil {
		slog.Warn("GetClipboardSequenceNumber unavailable, running headless", "err", err)
		return NewMemory()
	}
	return &windowsBackend{}
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func (b *windowsBackend) ChangeToken() int64 {
	n, _, _ := procGetClipboardSequenceNum.Call()
	return int64(uint32(n))
}

func (b *windowsBackend) Read() (Payload, error) {
	var p Payload
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		p.Text = string(text)
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		p.Image = img
	}
	return p, nil
}

func (b *windowsBackend) Write(p Payload) error {
	switch {
	case len(p.Image) > 0:
		clipboard.Write(clipboard.FmtImage, p.Image)
	case len(p.Files) > 0:
		clipboard.Write(clipboard.FmtText, []byte(p.Files[0]))
	default:
		clipboard.Write(clipboard.FmtText, []byte(p.Text))
	}
	return nil
}

func (b *windowsBackend) Close() {}

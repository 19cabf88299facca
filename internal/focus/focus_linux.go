//go:build linux

package focus

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

const xpropTimeout = 250 * time.Millisecond

type xpropResolver struct {
	bin string
}

// New returns an X11 resolver backed by xprop(1). Without xprop (Wayland-only
// sessions, servers) the focused application is always unknown.
func New() Resolver {
	bin, err := exec.LookPath("xprop")
	if err != nil {
		slog.Info("xprop not found, focused-app detection disabled")
		return NewStatic("")
	}
	return &xpropResolver{bin: bin}
}

func (r *xpropResolver) CurrentApplicationID(ctx context.Context) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, xpropTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.bin, "-root", "_NET_ACTIVE_WINDOW").Output()
	if err != nil {
		slog.Debug("xprop active window", "err", err)
		return "", false
	}
	win, ok := parseActiveWindow(string(out))
	if !ok {
		return "", false
	}
	out, err = exec.CommandContext(ctx, r.bin, "-id", win, "WM_CLASS").Output()
	if err != nil {
		slog.Debug("xprop WM_CLASS", "window", win, "err", err)
		return "", false
	}
	return parseWMClass(string(out))
}

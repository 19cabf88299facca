package focus

import (
	"regexp"
	"strings"
)

var (
	activeWindowRe = regexp.MustCompile(`window id # (0x[0-9a-fA-F]+)`)
	quotedRe       = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// parseActiveWindow extracts the window id from
// `xprop -root _NET_ACTIVE_WINDOW` output. A zero id means no window has focus.
func parseActiveWindow(out string) (string, bool) {
	m := activeWindowRe.FindStringSubmatch(out)
	if m == nil || strings.TrimLeft(m[1][2:], "0") == "" {
		return "", false
	}
	return m[1], true
}

// parseWMClass returns the class name (the second string) from
// `xprop -id <win> WM_CLASS` output, falling back to the instance name.
func parseWMClass(out string) (string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(out), "WM_CLASS") {
		return "", false
	}
	m := quotedRe.FindAllStringSubmatch(out, -1)
	switch {
	case len(m) >= 2 && m[1][1] != "":
		return m[1][1], true
	case len(m) == 1 && m[0][1] != "":
		return m[0][1], true
	}
	return "", false
}

package clip

import (
	"net/url"
	"path/filepath"
	"strings"
)

// parseURIList extracts local paths from a text/uri-list style string. It
// returns nil unless every non-comment line is a file:// URI, so ordinary
// text that merely mentions a URI is left alone.
func parseURIList(text string) []string {
	var paths []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil || u.Scheme != "file" || u.Path == "" {
			return nil
		}
		if u.Host != "" && u.Host != "localhost" {
			return nil
		}
		paths = append(paths, filepath.FromSlash(u.Path))
	}
	return paths
}

// fileURIList renders paths as a text/uri-list body.
func fileURIList(paths []string) string {
	lines := make([]string, len(paths))
	for i, p := range paths {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
		lines[i] = u.String()
	}
	return strings.Join(lines, "\n")
}

//go:build !darwin && !windows && !linux

package clip

// New returns the in-memory backend; there is no system clipboard to attach to.
func New() Backend {
	return NewMemory()
}

// Package focus reports which application currently has input focus, so the
// poller can skip captures from password managers and other ignored apps.
package focus

import (
	"context"
	"sync"
)

// Resolver identifies the frontmost application. The identifier is a bundle
// ID on macOS, the WM_CLASS class name on X11 and the executable base name
// on Windows. ok is false when the application cannot be determined.
type Resolver interface {
	CurrentApplicationID(ctx context.Context) (id string, ok bool)
}

// Static is a Resolver that always reports the same application. It is used
// on platforms without a focus API and as a fake in tests.
type Static struct {
	mu sync.Mutex
	id string
}

// NewStatic returns a Static resolver reporting id. An empty id means
// "unknown".
func NewStatic(id string) *Static { return &Static{id: id} }

// Set changes the reported application.
func (s *Static) Set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func (s *Static) CurrentApplicationID(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.id != ""
}

package ignore

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"go.klb.dev/clipkeep/internal/apperror"
)

// Persistence stores the user-managed ignore list.
type Persistence interface {
	LoadIgnoreList(ctx context.Context) ([]App, error)
	SaveIgnoreList(ctx context.Context, apps []App) error
}

// Registry owns the custom ignore list and the two enable flags, and
// evaluates the policy for the poller.
type Registry struct {
	mu             sync.RWMutex
	custom         map[string]App
	builtIn        Set
	builtInEnabled bool
	customEnabled  bool
	persist        Persistence
	listeners      []func([]App)
}

// NewRegistry returns a registry with both lists enabled. persist may be nil.
func NewRegistry(persist Persistence) *Registry {
	return &Registry{
		custom:         make(map[string]App),
		builtIn:        BuiltInSet(),
		builtInEnabled: true,
		customEnabled:  true,
		persist:        persist,
	}
}

// OnChange registers fn to receive the custom list after every change.
func (r *Registry) OnChange(fn func([]App)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Load replaces the custom list with the persisted one.
func (r *Registry) Load(ctx context.Context) error {
	if r.persist == nil {
		return nil
	}
	apps, err := r.persist.LoadIgnoreList(ctx)
	if err != nil {
		return apperror.Persistence("load ignore list", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.custom)
	for _, a := range apps {
		if a.ApplicationID != "" {
			r.custom[a.ApplicationID] = a
		}
	}
	r.notifyLocked()
	return nil
}

// Add inserts or relabels app in the custom list.
func (r *Registry) Add(ctx context.Context, app App) error {
	app.ApplicationID = strings.TrimSpace(app.ApplicationID)
	if app.ApplicationID == "" {
		return apperror.Validation("application id is required")
	}
	if app.DisplayName == "" {
		app.DisplayName = app.ApplicationID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[app.ApplicationID] = app
	r.commitLocked(ctx)
	return nil
}

// Remove deletes id from the custom list. It returns false if id is absent.
func (r *Registry) Remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[id]; !ok {
		return false
	}
	delete(r.custom, id)
	r.commitLocked(ctx)
	return true
}

// Apps returns the custom list sorted by identifier.
func (r *Registry) Apps() []App {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.appsLocked()
}

func (r *Registry) SetBuiltInEnabled(on bool) {
	r.mu.Lock()
	r.builtInEnabled = on
	r.mu.Unlock()
}

func (r *Registry) SetCustomEnabled(on bool) {
	r.mu.Lock()
	r.customEnabled = on
	r.mu.Unlock()
}

// ShouldIgnore evaluates the policy for appID against the current lists.
func (r *Registry) ShouldIgnore(appID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	custom := make(Set, len(r.custom))
	for id := range r.custom {
		custom[id] = struct{}{}
	}
	return ShouldIgnore(appID, r.builtInEnabled, r.customEnabled, r.builtIn, custom)
}

func (r *Registry) appsLocked() []App {
	out := make([]App, 0, len(r.custom))
	for _, a := range r.custom {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	return out
}

func (r *Registry) commitLocked(ctx context.Context) {
	if r.persist != nil {
		if err := r.persist.SaveIgnoreList(ctx, r.appsLocked()); err != nil {
			slog.Error("ignore list save failed", "err", apperror.Persistence("save ignore list", err))
		}
	}
	r.notifyLocked()
}

func (r *Registry) notifyLocked() {
	apps := r.appsLocked()
	for _, fn := range r.listeners {
		fn(apps)
	}
}

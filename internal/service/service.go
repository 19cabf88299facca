// Package service is the public operation surface of the history engine.
// The IPC server, the HTTP API and the daemon's config watcher all go
// through it; it owns the runtime settings and publishes every state change
// to the hub.
package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/poller"
	"go.klb.dev/clipkeep/internal/settings"
)

// SettingsStore persists settings changed at runtime.
type SettingsStore interface {
	SaveSetting(ctx context.Context, key, value string) error
}

// Info is static daemon metadata reported by Status.
type Info struct {
	Version   string
	Database  string
	Encrypted bool
	HTTPAddr  string
}

// Service ties the store, poller, ignore registry and hub together.
type Service struct {
	store   *history.Store
	poller  *poller.Poller
	ignores *ignore.Registry
	hub     *hub.Hub
	persist SettingsStore
	info    Info
	started time.Time

	mu       sync.Mutex
	settings settings.Settings
}

// New wires change notifications from the components into h and publishes
// the current state. initial is applied to the store and registry. persist
// may be nil.
func New(ctx context.Context, store *history.Store, p *poller.Poller, ignores *ignore.Registry, h *hub.Hub, persist SettingsStore, initial settings.Settings, info Info) (*Service, error) {
	s := &Service{
		store:   store,
		poller:  p,
		ignores: ignores,
		hub:     h,
		persist: persist,
		info:    info,
		started: time.Now(),
	}
	if err := s.apply(ctx, initial); err != nil {
		return nil, err
	}
	s.settings = initial

	store.OnChange(func(items []history.Item) { h.Publish(hub.HistoryEvent(items)) })
	ignores.OnChange(func(apps []ignore.App) { h.Publish(hub.IgnoreEvent(apps)) })
	p.OnMonitoringChange(func(on bool) { h.Publish(hub.MonitoringEvent(on)) })

	h.Publish(hub.SettingsEvent(initial))
	h.Publish(hub.MonitoringEvent(p.Monitoring()))
	h.Publish(hub.IgnoreEvent(ignores.Apps()))
	h.Publish(hub.HistoryEvent(store.Items()))
	return s, nil
}

// List returns the ordered history without binary content.
func (s *Service) List(pinnedOnly bool) []history.Item {
	items := s.store.Items()
	out := make([]history.Item, 0, len(items))
	for _, it := range items {
		if pinnedOnly && !it.Pinned {
			continue
		}
		out = append(out, it.WithoutPayload())
	}
	return out
}

// Get returns one item with its content.
func (s *Service) Get(id string) (history.Item, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return history.Item{}, apperror.NotFound("item", id)
	}
	return it, nil
}

// Copy places item id back on the clipboard without recording it again.
func (s *Service) Copy(ctx context.Context, id string) (history.Item, error) {
	return s.poller.Restore(ctx, id)
}

// TogglePin flips the pin flag of item id and returns the updated item.
func (s *Service) TogglePin(ctx context.Context, id string) (history.Item, error) {
	if !s.store.TogglePin(ctx, id) {
		return history.Item{}, apperror.NotFound("item", id)
	}
	return s.Get(id)
}

// Delete removes item id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.store.Delete(ctx, id) {
		return apperror.NotFound("item", id)
	}
	return nil
}

// Clear removes unpinned items, or every item when all is set, and returns
// how many were removed.
func (s *Service) Clear(ctx context.Context, all bool) int {
	n := s.store.ClearAll(ctx, !all)
	slog.Info("history cleared", "removed", n, "all", all)
	return n
}

// Settings returns the current runtime settings.
func (s *Service) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Set changes one option, applies it immediately and persists it so it
// survives restarts.
func (s *Service) Set(ctx context.Context, key, value string) (settings.Settings, error) {
	s.mu.Lock()
	next := s.settings
	if err := next.Set(key, value); err != nil {
		s.mu.Unlock()
		return settings.Settings{}, err
	}
	if err := s.apply(ctx, next); err != nil {
		s.mu.Unlock()
		return settings.Settings{}, err
	}
	s.settings = next
	s.mu.Unlock()

	slog.Info("setting changed", "key", key, "value", next.Values()[key])
	s.hub.Publish(hub.SettingsEvent(next))

	if s.persist != nil {
		if err := s.persist.SaveSetting(ctx, key, next.Values()[key]); err != nil {
			perr := apperror.Persistence("save setting "+key, err)
			slog.Error("setting not persisted", "err", perr)
			return next, perr
		}
	}
	return next, nil
}

// Reload applies the options whose value differs between two readings of
// the config file. Options the file did not touch keep their runtime value,
// so a setting changed over IPC is not reverted by an unrelated edit.
func (s *Service) Reload(ctx context.Context, prev, next settings.Settings) (settings.Settings, error) {
	before, after := prev.Values(), next.Values()
	cur := s.Settings()
	for _, k := range settings.Keys() {
		if before[k] == after[k] {
			continue
		}
		var err error
		if cur, err = s.Set(ctx, k, after[k]); err != nil {
			return s.Settings(), err
		}
	}
	return cur, nil
}

func (s *Service) apply(ctx context.Context, next settings.Settings) error {
	if next.HistoryLimit != s.store.Limit() {
		if err := s.store.SetLimit(ctx, next.HistoryLimit); err != nil {
			return err
		}
	}
	s.ignores.SetBuiltInEnabled(next.IgnorePasswordManagers)
	s.ignores.SetCustomEnabled(next.IgnoreCustomApps)
	return nil
}

// SetMonitoring pauses or resumes capture and returns the resulting state.
func (s *Service) SetMonitoring(on bool) bool {
	s.poller.SetMonitoring(on)
	return s.poller.Monitoring()
}

// Monitoring reports whether capture is active.
func (s *Service) Monitoring() bool { return s.poller.Monitoring() }

// IgnoreList returns the custom ignore list.
func (s *Service) IgnoreList() []ignore.App { return s.ignores.Apps() }

// IgnoreAdd adds or relabels an application in the custom ignore list.
func (s *Service) IgnoreAdd(ctx context.Context, app ignore.App) error {
	return s.ignores.Add(ctx, app)
}

// IgnoreRemove deletes an application from the custom ignore list.
func (s *Service) IgnoreRemove(ctx context.Context, id string) error {
	if !s.ignores.Remove(ctx, id) {
		return apperror.NotFound("ignored app", id)
	}
	return nil
}

// BuiltIn returns the shipped password-manager list.
func (s *Service) BuiltIn() []ignore.App { return ignore.BuiltIn() }

// Status summarises the running engine.
func (s *Service) Status() message.Status {
	pinned, unpinned := s.store.Counts()
	return message.Status{
		Version:      s.info.Version,
		PID:          os.Getpid(),
		StartedAt:    s.started,
		Backend:      s.poller.BackendName(),
		Monitoring:   s.poller.Monitoring(),
		PollInterval: s.poller.Interval().String(),
		Items:        pinned + unpinned,
		Pinned:       pinned,
		IgnoredApps:  len(s.ignores.Apps()),
		Settings:     s.Settings(),
		Database:     s.info.Database,
		Encrypted:    s.info.Encrypted,
		HTTPAddr:     s.info.HTTPAddr,
		Subscribers:  s.hub.Subscribers(),
		Stats:        s.poller.Stats(),
	}
}

// Subscribe registers a buffered subscriber with the hub. The returned
// function unregisters it.
func (s *Service) Subscribe(id string, buf int) (*hub.ChanPeer, func()) {
	p := hub.NewChanPeer(id, buf)
	s.hub.Register(p)
	return p, func() { s.hub.Unregister(p) }
}

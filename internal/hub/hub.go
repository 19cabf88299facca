// Package hub fans out state changes of the history engine to subscribers.
// It is transport-agnostic: peers register, receive events via Send, and the
// engine components publish after every mutation.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/settings"
)

// EventKind names which part of the engine state an Event carries.
type EventKind string

const (
	KindHistory    EventKind = "history"
	KindMonitoring EventKind = "monitoring"
	KindIgnore     EventKind = "ignore"
	KindSettings   EventKind = "settings"
)

// kinds is the replay order used when a peer registers.
var kinds = []EventKind{KindSettings, KindMonitoring, KindIgnore, KindHistory}

// Event is a state update delivered to a peer. Exactly one of the payload
// fields is set, matching Kind. History items never carry binary payloads.
type Event struct {
	Kind       EventKind          `json:"kind"`
	At         time.Time          `json:"at"`
	History    []history.Item     `json:"history,omitempty"`
	Monitoring *bool              `json:"monitoring,omitempty"`
	Ignored    []ignore.App       `json:"ignored,omitempty"`
	Settings   *settings.Settings `json:"settings,omitempty"`
}

// MarshalJSON always writes the list payload of history and ignore events,
// so an empty list goes out as [] instead of being dropped.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	switch e.Kind {
	case KindHistory:
		items := e.History
		if items == nil {
			items = []history.Item{}
		}
		return json.Marshal(struct {
			plain
			History []history.Item `json:"history"`
		}{plain(e), items})
	case KindIgnore:
		apps := e.Ignored
		if apps == nil {
			apps = []ignore.App{}
		}
		return json.Marshal(struct {
			plain
			Ignored []ignore.App `json:"ignored"`
		}{plain(e), apps})
	}
	return json.Marshal(plain(e))
}

// HistoryEvent builds a history event from a store snapshot.
func HistoryEvent(items []history.Item) Event {
	light := make([]history.Item, len(items))
	for i, it := range items {
		light[i] = it.WithoutPayload()
	}
	return Event{Kind: KindHistory, At: time.Now(), History: light}
}

// MonitoringEvent builds a monitoring-state event.
func MonitoringEvent(on bool) Event {
	return Event{Kind: KindMonitoring, At: time.Now(), Monitoring: &on}
}

// IgnoreEvent builds an ignore-list event.
func IgnoreEvent(apps []ignore.App) Event {
	if apps == nil {
		apps = []ignore.App{}
	}
	return Event{Kind: KindIgnore, At: time.Now(), Ignored: apps}
}

// SettingsEvent builds a settings event.
func SettingsEvent(s settings.Settings) Event {
	return Event{Kind: KindSettings, At: time.Now(), Settings: &s}
}

// Peer is anything that can receive events from the hub.
type Peer interface {
	ID() string
	// Send delivers an event to the peer. Must be non-blocking.
	Send(Event)
}

// Hub routes state updates to all registered peers.
type Hub struct {
	mu     sync.RWMutex
	peers  map[string]Peer
	latest map[EventKind]Event
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		peers:  make(map[string]Peer),
		latest: make(map[EventKind]Event),
	}
}

// Register adds a peer and immediately delivers the latest event of each
// kind, so a new subscriber starts from the current state.
func (h *Hub) Register(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	var replay []Event
	for _, k := range kinds {
		if ev, ok := h.latest[k]; ok {
			replay = append(replay, ev)
		}
	}
	total := len(h.peers)
	h.mu.Unlock()

	slog.Info("subscriber registered", "peer", p.ID(), "total", total)

	for _, ev := range replay {
		p.Send(ev)
	}
}

// Unregister removes a peer from the hub.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	delete(h.peers, p.ID())
	total := len(h.peers)
	h.mu.Unlock()

	slog.Info("subscriber unregistered", "peer", p.ID(), "total", total)
}

// Publish stores ev as the latest of its kind and fans it out to every peer.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	h.latest[ev.Kind] = ev
	targets := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		targets = append(targets, p)
	}
	h.mu.Unlock()

	for _, p := range targets {
		p.Send(ev)
	}
}

// Latest returns the most recent event of kind k.
func (h *Hub) Latest(k EventKind) (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ev, ok := h.latest[k]
	return ev, ok
}

// Subscribers returns the number of registered peers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

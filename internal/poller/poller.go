// Package poller watches the clipboard change token on a fixed interval and
// feeds new content through the ignore policy and classifier into the history.
package poller

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/focus"
	"go.klb.dev/clipkeep/internal/history"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Policy decides whether the focused application's copies are captured.
type Policy interface {
	ShouldIgnore(appID string) bool
}

// Classifier converts a clipboard payload into a history item.
type Classifier interface {
	Classify(p clip.Payload) (*history.Item, error)
}

// Outcome is the result of a single tick.
type Outcome int

const (
	Paused Outcome = iota
	Unchanged
	Ignored
	Skipped
	Rejected
	Ingested
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Paused:
		return "paused"
	case Unchanged:
		return "unchanged"
	case Ignored:
		return "ignored"
	case Skipped:
		return "skipped"
	case Rejected:
		return "rejected"
	case Ingested:
		return "ingested"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Stats counts tick outcomes since start.
type Stats struct {
	Ticks    uint64 `json:"ticks"`
	Ingested uint64 `json:"ingested"`
	Ignored  uint64 `json:"ignored"`
	Skipped  uint64 `json:"skipped"`
	Failed   uint64 `json:"failed"`
}

// Poller is the only timer in the engine. A single mutex covers a tick,
// SuppressNextChange, Restore and SetMonitoring so none of them interleave.
type Poller struct {
	backend    clip.Backend
	focus      focus.Resolver
	policy     Policy
	classifier Classifier
	store      *history.Store
	interval   time.Duration

	mu         sync.Mutex
	monitoring bool
	lastToken  int64
	stats      Stats
	listeners  []func(bool)
}

// New returns a monitoring poller whose baseline is the backend's current
// token, so content already on the clipboard at startup is not captured.
func New(backend clip.Backend, resolver focus.Resolver, policy Policy, classifier Classifier, store *history.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:    backend,
		focus:      resolver,
		policy:     policy,
		classifier: classifier,
		store:      store,
		interval:   interval,
		monitoring: true,
		lastToken:  backend.ChangeToken(),
	}
}

// Run ticks every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("clipboard poller started", "backend", p.backend.Name(), "interval", p.interval)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("clipboard poller stopped")
			return
		case <-t.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs one poll. Errors and panics are logged and reported as
// Failed; they never escape.
func (p *Poller) Tick(ctx context.Context) (out Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("poll tick panicked", "panic", r)
			p.stats.Failed++
			out = Failed
		}
	}()

	p.stats.Ticks++
	if !p.monitoring {
		return Paused
	}
	tok := p.backend.ChangeToken()
	if tok == p.lastToken {
		return Unchanged
	}
	p.lastToken = tok

	if app, ok := p.focus.CurrentApplicationID(ctx); ok && p.policy.ShouldIgnore(app) {
		slog.Debug("clipboard change ignored", "app", app)
		p.stats.Ignored++
		return Ignored
	}

	payload, err := p.backend.Read()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		p.stats.Failed++
		return Failed
	}
	it, err := p.classifier.Classify(payload)
	if err != nil {
		if apperror.IsNoop(err) {
			slog.Debug("clipboard change skipped", "reason", err)
			p.stats.Skipped++
			return Skipped
		}
		slog.Error("classify failed", "err", err)
		p.stats.Failed++
		return Failed
	}
	if !p.store.Insert(ctx, *it) {
		return Rejected
	}
	history.LogItem("clipboard captured", *it)
	p.stats.Ingested++
	return Ingested
}

// SuppressNextChange adopts the backend's current token without classifying,
// so a change the engine caused itself is not captured.
func (p *Poller) SuppressNextChange() {
	p.mu.Lock()
	p.lastToken = p.backend.ChangeToken()
	p.mu.Unlock()
}

// Restore writes the stored item id back to the clipboard and suppresses the
// resulting change. The history itself is not modified.
func (p *Poller) Restore(ctx context.Context, id string) (history.Item, error) {
	it, ok := p.store.Get(id)
	if !ok {
		return history.Item{}, apperror.NotFound("item", id)
	}
	payload := PayloadFor(it)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.backend.Write(payload); err != nil {
		return history.Item{}, err
	}
	p.lastToken = p.backend.ChangeToken()
	slog.Info("item copied to clipboard", "id", it.ID, "kind", it.Kind)
	return it, nil
}

// SetMonitoring pauses or resumes capture. Resuming resyncs the baseline so
// anything copied while paused is never captured.
func (p *Poller) SetMonitoring(on bool) {
	p.mu.Lock()
	if p.monitoring == on {
		p.mu.Unlock()
		return
	}
	p.monitoring = on
	if on {
		p.lastToken = p.backend.ChangeToken()
	}
	listeners := slices.Clone(p.listeners)
	p.mu.Unlock()

	slog.Info("monitoring changed", "monitoring", on)
	for _, fn := range listeners {
		fn(on)
	}
}

// OnMonitoringChange registers fn to be called after every monitoring flip.
func (p *Poller) OnMonitoringChange(fn func(bool)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Monitoring reports whether ticks currently capture.
func (p *Poller) Monitoring() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.monitoring
}

// Stats returns a snapshot of the tick counters.
func (p *Poller) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// BackendName returns the clipboard backend's name.
func (p *Poller) BackendName() string { return p.backend.Name() }

// Interval returns the tick period.
func (p *Poller) Interval() time.Duration { return p.interval }

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// PayloadFor renders an item in the form it is written back to the clipboard.
func PayloadFor(it history.Item) clip.Payload {
	switch it.Kind {
	case history.KindImage:
		if !bytes.HasPrefix(it.Payload, pngMagic) && it.SourcePath != "" {
			return clip.Payload{Files: []string{it.SourcePath}}
		}
		return clip.Payload{Image: it.Payload}
	case history.KindFile:
		return clip.Payload{Files: []string{it.SourcePath}, Text: it.SourcePath}
	case history.KindText:
		return clip.Payload{Text: it.PrimaryText, RichText: it.RichText}
	}
	return clip.Payload{Text: it.PrimaryText}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/classify"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/focus"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/poller"
	"go.klb.dev/clipkeep/internal/settings"
)

type memSettings struct {
	saved map[string]string
	err   error
}

func (m *memSettings) SaveSetting(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.saved[key] = value
	return nil
}

type fixture struct {
	board    *clip.Memory
	focus    *focus.Static
	store    *history.Store
	registry *ignore.Registry
	poller   *poller.Poller
	hub      *hub.Hub
	settings *memSettings
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		board:    clip.NewMemory(),
		focus:    focus.NewStatic("org.example.editor"),
		store:    history.NewStore(nil, history.DefaultLimit),
		registry: ignore.NewRegistry(nil),
		hub:      hub.New(),
		settings: &memSettings{saved: map[string]string{}},
	}
	var n int
	c := &classify.Classifier{Now: func() time.Time {
		n++
		return time.Date(2026, 2, 1, 0, 0, n, 0, time.UTC)
	}}
	f.poller = poller.New(f.board, f.focus, f.registry, c, f.store, time.Millisecond)

	svc, err := New(context.Background(), f.store, f.poller, f.registry, f.hub, f.settings, settings.Default(), Info{Version: "test"})
	require.NoError(t, err)
	f.svc = svc
	return f
}

// capture simulates a user copy followed by one poll.
func (f *fixture) capture(t *testing.T, p clip.Payload) {
	t.Helper()
	require.NoError(t, f.board.Write(p))
	require.Equal(t, poller.Ingested, f.poller.Tick(context.Background()))
}

func TestListAndGet(t *testing.T) {
	f := newFixture(t)
	f.capture(t, clip.Payload{Image: []byte("img")})
	f.capture(t, clip.Payload{Text: "hello"})

	list := f.svc.List(false)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].PrimaryText)
	assert.Nil(t, list[1].Payload, "list strips binary content")

	full, err := f.svc.Get(list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), full.Payload)

	_, err = f.svc.Get("missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPinDeleteClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.capture(t, clip.Payload{Text: "a"})
	f.capture(t, clip.Payload{Text: "b"})
	f.capture(t, clip.Payload{Text: "c"})

	a := f.svc.List(false)[2]
	pinned, err := f.svc.TogglePin(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)
	assert.Len(t, f.svc.List(true), 1)

	_, err = f.svc.TogglePin(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	b := f.svc.List(false)[2]
	require.Equal(t, "b", b.PrimaryText)
	require.NoError(t, f.svc.Delete(ctx, b.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, b.ID), apperror.ErrNotFound)

	assert.Equal(t, 1, f.svc.Clear(ctx, false))
	require.Len(t, f.svc.List(false), 1)
	assert.Equal(t, "a", f.svc.List(false)[0].PrimaryText)

	assert.Equal(t, 1, f.svc.Clear(ctx, true))
	assert.Empty(t, f.svc.List(false))
}

func TestCopyBackProducesNoDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.capture(t, clip.Payload{Text: "first"})
	f.capture(t, clip.Payload{Text: "second"})

	first := f.svc.List(false)[1]
	_, err := f.svc.Copy(ctx, first.ID)
	require.NoError(t, err)

	assert.Equal(t, poller.Unchanged, f.poller.Tick(ctx))
	list := f.svc.List(false)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].PrimaryText)
}

func TestSetAppliesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, s := range []string{"a", "b", "c", "d"} {
		f.capture(t, clip.Payload{Text: s})
	}

	next, err := f.svc.Set(ctx, settings.KeyHistoryLimit, "2")
	require.NoError(t, err)
	assert.Equal(t, 2, next.HistoryLimit)
	assert.Equal(t, 2, f.store.Limit())
	assert.Len(t, f.svc.List(false), 2)
	assert.Equal(t, "2", f.settings.saved[settings.KeyHistoryLimit])

	_, err = f.svc.Set(ctx, settings.KeyIgnorePasswordManagers, "false")
	require.NoError(t, err)
	f.focus.Set("org.keepassxc.keepassxc")
	f.capture(t, clip.Payload{Text: "now captured"})

	_, err = f.svc.Set(ctx, settings.KeyHistoryLimit, "0")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.svc.Set(ctx, "colour", "blue")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 2, f.svc.Settings().HistoryLimit)
}

func TestSetPersistFailureKeepsRuntimeValue(t *testing.T) {
	f := newFixture(t)
	f.settings.err = errors.New("read-only database")

	next, err := f.svc.Set(context.Background(), settings.KeyIgnoreCustomApps, "false")
	assert.ErrorIs(t, err, apperror.ErrPersistence)
	assert.False(t, next.IgnoreCustomApps)
	assert.False(t, f.svc.Settings().IgnoreCustomApps)
}

func TestReloadAppliesOnlyChangedKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Set(ctx, settings.KeyHistoryLimit, "7")
	require.NoError(t, err)

	prev := settings.Default()
	next := prev
	next.IgnoreCustomApps = false

	got, err := f.svc.Reload(ctx, prev, next)
	require.NoError(t, err)
	assert.Equal(t, 7, got.HistoryLimit, "untouched keys keep their runtime value")
	assert.False(t, got.IgnoreCustomApps)
	assert.Equal(t, got, f.svc.Settings())
	assert.Equal(t, "false", f.settings.saved[settings.KeyIgnoreCustomApps])

	peer, unsubscribe := f.svc.Subscribe("t", 16)
	defer unsubscribe()
	for len(peer.Events()) > 0 {
		<-peer.Events()
	}
	_, err = f.svc.Reload(ctx, next, next)
	require.NoError(t, err)
	assert.Empty(t, peer.Events(), "an unchanged file publishes nothing")
}

func TestReloadRejectsInvalidValue(t *testing.T) {
	f := newFixture(t)
	prev := settings.Default()
	next := prev
	next.HistoryLimit = -1

	got, err := f.svc.Reload(context.Background(), prev, next)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, settings.Default().HistoryLimit, got.HistoryLimit)
}

func TestMonitoringToggle(t *testing.T) {
	f := newFixture(t)
	assert.True(t, f.svc.Monitoring())
	assert.False(t, f.svc.SetMonitoring(false))

	require.NoError(t, f.board.Write(clip.Payload{Text: "paused"}))
	assert.Equal(t, poller.Paused, f.poller.Tick(context.Background()))

	assert.True(t, f.svc.SetMonitoring(true))
	assert.Equal(t, poller.Unchanged, f.poller.Tick(context.Background()))
	assert.Empty(t, f.svc.List(false))
}

func TestIgnoreOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.IgnoreAdd(ctx, ignore.App{ApplicationID: "org.example.editor", DisplayName: "Editor"}))
	assert.Equal(t, []ignore.App{{ApplicationID: "org.example.editor", DisplayName: "Editor"}}, f.svc.IgnoreList())

	require.NoError(t, f.board.Write(clip.Payload{Text: "hidden"}))
	assert.Equal(t, poller.Ignored, f.poller.Tick(ctx))

	require.NoError(t, f.svc.IgnoreRemove(ctx, "org.example.editor"))
	assert.ErrorIs(t, f.svc.IgnoreRemove(ctx, "org.example.editor"), apperror.ErrNotFound)
	assert.ErrorIs(t, f.svc.IgnoreAdd(ctx, ignore.App{}), apperror.ErrValidation)
	assert.NotEmpty(t, f.svc.BuiltIn())
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.capture(t, clip.Payload{Text: "x"})
	_, err := f.svc.TogglePin(context.Background(), f.svc.List(false)[0].ID)
	require.NoError(t, err)
	f.capture(t, clip.Payload{Text: "y"})

	st := f.svc.Status()
	assert.Equal(t, "test", st.Version)
	assert.Equal(t, 2, st.Items)
	assert.Equal(t, 1, st.Pinned)
	assert.True(t, st.Monitoring)
	assert.Equal(t, "memory (headless)", st.Backend)
	assert.Equal(t, "1ms", st.PollInterval)
	assert.Equal(t, uint64(2), st.Stats.Ingested)
	assert.Equal(t, settings.Default(), st.Settings)
}

func TestSubscriberReceivesHistoryEvents(t *testing.T) {
	f := newFixture(t)
	peer, unsubscribe := f.svc.Subscribe("t", 16)
	defer unsubscribe()

	kinds := map[hub.EventKind]bool{}
	for len(peer.Events()) > 0 {
		kinds[(<-peer.Events()).Kind] = true
	}
	assert.Equal(t, map[hub.EventKind]bool{
		hub.KindSettings: true, hub.KindMonitoring: true, hub.KindIgnore: true, hub.KindHistory: true,
	}, kinds)

	f.capture(t, clip.Payload{Text: "event"})
	ev := <-peer.Events()
	assert.Equal(t, hub.KindHistory, ev.Kind)
	require.Len(t, ev.History, 1)
	assert.Equal(t, "event", ev.History[0].PrimaryText)
}

package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/settings"
)

func drain(p *ChanPeer) []Event {
	var out []Event
	for {
		select {
		case ev := <-p.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishFansOut(t *testing.T) {
	h := New()
	a, b := NewChanPeer("a", 4), NewChanPeer("b", 4)
	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.Subscribers())

	h.Publish(MonitoringEvent(false))

	for _, p := range []*ChanPeer{a, b} {
		got := drain(p)
		require.Len(t, got, 1)
		assert.Equal(t, KindMonitoring, got[0].Kind)
		require.NotNil(t, got[0].Monitoring)
		assert.False(t, *got[0].Monitoring)
	}
}

func TestRegisterReplaysLatestPerKind(t *testing.T) {
	h := New()
	h.Publish(HistoryEvent([]history.Item{{ID: "old"}}))
	h.Publish(HistoryEvent([]history.Item{{ID: "new"}}))
	h.Publish(SettingsEvent(settings.Default()))
	h.Publish(IgnoreEvent(nil))

	p := NewChanPeer("late", 8)
	h.Register(p)

	got := drain(p)
	require.Len(t, got, 3)
	assert.Equal(t, KindSettings, got[0].Kind)
	assert.Equal(t, KindIgnore, got[1].Kind)
	assert.Equal(t, []ignore.App{}, got[1].Ignored)
	assert.Equal(t, KindHistory, got[2].Kind)
	assert.Equal(t, "new", got[2].History[0].ID)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	h := New()
	p := NewChanPeer("p", 4)
	h.Register(p)
	h.Unregister(p)
	h.Publish(MonitoringEvent(true))
	assert.Empty(t, drain(p))
	assert.Equal(t, 0, h.Subscribers())
}

func TestHistoryEventStripsPayloads(t *testing.T) {
	ev := HistoryEvent([]history.Item{{ID: "i", Kind: history.KindImage, Payload: []byte{1, 2}}})
	assert.Nil(t, ev.History[0].Payload)
}

func TestEmptyListsStayInJSON(t *testing.T) {
	for _, ev := range []Event{HistoryEvent(nil), IgnoreEvent(nil), {Kind: KindHistory}} {
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(b, &fields))

		key := "history"
		if ev.Kind == KindIgnore {
			key = "ignored"
		}
		assert.Equal(t, "[]", string(fields[key]), "kind %s", ev.Kind)
		assert.NotContains(t, fields, "monitoring")
	}

	b, err := json.Marshal(MonitoringEvent(false))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"monitoring":false`)
	assert.NotContains(t, string(b), "history")

	var back Event
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.Monitoring)
	assert.False(t, *back.Monitoring)
}

func TestChanPeerDropsWhenFull(t *testing.T) {
	p := NewChanPeer("slow", 1)
	p.Send(MonitoringEvent(true))
	p.Send(MonitoringEvent(false))

	got := drain(p)
	require.Len(t, got, 1)
	assert.True(t, *got[0].Monitoring)
}

func TestLatest(t *testing.T) {
	h := New()
	_, ok := h.Latest(KindSettings)
	assert.False(t, ok)

	h.Publish(SettingsEvent(settings.Settings{HistoryLimit: 7}))
	ev, ok := h.Latest(KindSettings)
	require.True(t, ok)
	assert.Equal(t, 7, ev.Settings.HistoryLimit)
}

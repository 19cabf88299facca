package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/clip"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/wire"
)

// roundTrip serves one request over an in-memory pipe.
func roundTrip(t *testing.T, svc *Service, req *message.Message) (*message.Message, error) {
	t.Helper()
	server, client := net.Pipe()
	go svc.ServeConn(context.Background(), server)
	return ipc.Do(client, req)
}

func TestIPCListGetCopy(t *testing.T) {
	f := newFixture(t)
	f.capture(t, clip.Payload{Text: "one"})
	f.capture(t, clip.Payload{Image: []byte{1, 2, 3}})

	reply, err := roundTrip(t, f.svc, &message.Message{Type: message.TypeList})
	require.NoError(t, err)
	require.Len(t, reply.Items, 2)
	img := reply.Items[0]
	assert.Nil(t, img.Payload)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeGet, ID: img.ID})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, reply.Item.Payload)

	one := f.svc.List(false)[1]
	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeCopy, ID: one.ID})
	require.NoError(t, err)
	assert.Equal(t, one.ID, reply.Item.ID)
	p, _ := f.board.Read()
	assert.Equal(t, "one", p.Text)
}

func TestIPCErrorsCarryKind(t *testing.T) {
	f := newFixture(t)

	_, err := roundTrip(t, f.svc, &message.Message{Type: message.TypeDelete, ID: "nope"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeSet, Key: "history-limit", Value: "-1"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = roundTrip(t, f.svc, &message.Message{Type: "BOGUS"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeIgnoreAdd})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestIPCPinClearSet(t *testing.T) {
	f := newFixture(t)
	f.capture(t, clip.Payload{Text: "a"})
	f.capture(t, clip.Payload{Text: "b"})
	a := f.svc.List(false)[1]

	reply, err := roundTrip(t, f.svc, &message.Message{Type: message.TypePin, ID: a.ID})
	require.NoError(t, err)
	assert.True(t, reply.Item.Pinned)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeClear})
	require.NoError(t, err)
	assert.Equal(t, 1, reply.Removed)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeSet, Key: "history-limit", Value: "7"})
	require.NoError(t, err)
	assert.Equal(t, 7, reply.Settings.HistoryLimit)
}

func TestIPCMonitorAndStatus(t *testing.T) {
	f := newFixture(t)
	off := false

	reply, err := roundTrip(t, f.svc, &message.Message{Type: message.TypeMonitor, Monitoring: &off})
	require.NoError(t, err)
	assert.False(t, *reply.Monitoring)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeMonitor})
	require.NoError(t, err)
	assert.False(t, *reply.Monitoring)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeStatus})
	require.NoError(t, err)
	assert.False(t, reply.Status.Monitoring)
	assert.Equal(t, "test", reply.Status.Version)
}

func TestIPCIgnore(t *testing.T) {
	f := newFixture(t)

	reply, err := roundTrip(t, f.svc, &message.Message{Type: message.TypeIgnoreAdd, App: &ignore.App{ApplicationID: "com.example.vault"}})
	require.NoError(t, err)
	assert.Equal(t, []ignore.App{{ApplicationID: "com.example.vault", DisplayName: "com.example.vault"}}, reply.Apps)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeIgnoreList})
	require.NoError(t, err)
	assert.Len(t, reply.Apps, 1)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeIgnoreRemove, ID: "com.example.vault"})
	require.NoError(t, err)
	assert.Empty(t, reply.Apps)

	reply, err = roundTrip(t, f.svc, &message.Message{Type: message.TypeIgnoreBuiltIn})
	require.NoError(t, err)
	assert.Equal(t, ignore.BuiltIn(), reply.Apps)
}

func TestIPCMalformedRequest(t *testing.T) {
	f := newFixture(t)
	server, client := net.Pipe()
	go f.svc.ServeConn(context.Background(), server)

	go func() { _, _ = client.Write([]byte("not json\n")) }()
	reply, err := wire.New(client).ReadMsg()
	require.NoError(t, err)
	assert.Equal(t, message.TypeError, reply.Type)
	assert.Equal(t, message.CodeValidation, reply.Code)
}

func TestIPCWatchStreamsEvents(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, client := net.Pipe()
	go f.svc.ServeConn(ctx, server)

	events := make(chan hub.Event, 16)
	done := make(chan error, 1)
	go func() {
		done <- ipc.Watch(ctx, client, func(ev hub.Event) { events <- ev })
	}()

	// Replay of the current state arrives first.
	seen := map[hub.EventKind]bool{}
	for len(seen) < 4 {
		select {
		case ev := <-events:
			seen[ev.Kind] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("replay incomplete: %v", seen)
		}
	}

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	f.svc.SetMonitoring(false)

	select {
	case ev := <-events:
		assert.Equal(t, hub.KindMonitoring, ev.Kind)
		assert.False(t, *ev.Monitoring)
	case <-time.After(2 * time.Second):
		t.Fatal("no monitoring event")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	require.Eventually(t, func() bool { return f.hub.Subscribers() == 0 }, time.Second, time.Millisecond)
}

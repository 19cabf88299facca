package ipc

import (
	"context"
	"fmt"
	"net"

	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/wire"
)

// Request dials the daemon, sends req and returns the reply. An ERROR reply
// is returned as an error carrying the matching apperror kind.
func Request(req *message.Message) (*message.Message, error) {
	conn, err := Dial()
	if err != nil {
		return nil, fmt.Errorf("clipkeep daemon not reachable at %s: %w", SocketPath(), err)
	}
	return Do(conn, req)
}

// Do performs one request/reply exchange on conn and closes it.
func Do(conn net.Conn, req *message.Message) (*message.Message, error) {
	c := wire.New(conn)
	defer c.Close()

	if err := c.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Type, err)
	}
	reply, err := c.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read reply to %s: %w", req.Type, err)
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}
	return reply, nil
}

// Watch subscribes on conn and calls fn for every streamed event until ctx
// is cancelled or the daemon closes the connection.
func Watch(ctx context.Context, conn net.Conn, fn func(hub.Event)) error {
	c := wire.New(conn)
	defer c.Close()

	if err := c.WriteMsg(&message.Message{Type: message.TypeWatch}); err != nil {
		return fmt.Errorf("send WATCH: %w", err)
	}
	ack, err := c.ReadMsg()
	if err != nil {
		return fmt.Errorf("read WATCH reply: %w", err)
	}
	if err := ack.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		msg, err := c.ReadMsg()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Type == message.TypeEvent && msg.Event != nil {
			fn(*msg.Event)
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/message"
	"go.klb.dev/clipkeep/internal/wire"
)

const (
	requestTimeout = 10 * time.Second
	watchBuffer    = 64
)

var connSeq atomic.Uint64

// Serve accepts IPC connections on ln until ctx is cancelled, handling each
// in its own goroutine.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ipc accept: %w", err)
		}
		go s.ServeConn(ctx, conn)
	}
}

// ServeConn reads one request from conn, writes the reply and closes conn.
// A WATCH request keeps conn open and streams events until the client
// disconnects or ctx is cancelled.
func (s *Service) ServeConn(ctx context.Context, conn net.Conn) {
	c := wire.New(conn)
	defer c.Close()

	c.SetReadDeadline(requestTimeout)
	req, err := c.ReadMsg()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("ipc read failed", "err", err)
			_ = c.WriteMsg(message.FromError(apperror.Validation("malformed request: %v", err)))
		}
		return
	}
	c.SetReadDeadline(0)

	if req.Type == message.TypeWatch {
		s.watch(ctx, c)
		return
	}

	reply := s.Handle(ctx, req)
	if err := c.WriteMsg(reply); err != nil {
		slog.Debug("ipc write failed", "type", req.Type, "err", err)
	}
}

// Handle executes a single non-streaming request.
func (s *Service) Handle(ctx context.Context, req *message.Message) *message.Message {
	slog.Debug("ipc request", "type", req.Type, "id", req.ID)
	reply, err := s.dispatch(ctx, req)
	if err != nil {
		return message.FromError(err)
	}
	return reply
}

func (s *Service) dispatch(ctx context.Context, req *message.Message) (*message.Message, error) {
	reply := message.OK()
	switch req.Type {
	case message.TypeList:
		reply.Items = s.List(req.PinnedOnly)

	case message.TypeGet:
		it, err := s.Get(req.ID)
		if err != nil {
			return nil, err
		}
		reply.Item = &it

	case message.TypeCopy:
		it, err := s.Copy(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		it = it.WithoutPayload()
		reply.Item = &it

	case message.TypePin:
		it, err := s.TogglePin(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		it = it.WithoutPayload()
		reply.Item = &it

	case message.TypeDelete:
		if err := s.Delete(ctx, req.ID); err != nil {
			return nil, err
		}

	case message.TypeClear:
		reply.Removed = s.Clear(ctx, req.All)

	case message.TypeSet:
		next, err := s.Set(ctx, req.Key, req.Value)
		if err != nil {
			return nil, err
		}
		reply.Settings = &next

	case message.TypeMonitor:
		on := s.Monitoring()
		if req.Monitoring != nil {
			on = s.SetMonitoring(*req.Monitoring)
		}
		reply.Monitoring = &on

	case message.TypeStatus:
		st := s.Status()
		reply.Status = &st

	case message.TypeIgnoreList:
		reply.Apps = s.IgnoreList()

	case message.TypeIgnoreAdd:
		if req.App == nil {
			return nil, apperror.Validation("app is required")
		}
		if err := s.IgnoreAdd(ctx, *req.App); err != nil {
			return nil, err
		}
		reply.Apps = s.IgnoreList()

	case message.TypeIgnoreRemove:
		if err := s.IgnoreRemove(ctx, req.ID); err != nil {
			return nil, err
		}
		reply.Apps = s.IgnoreList()

	case message.TypeIgnoreBuiltIn:
		reply.Apps = s.BuiltIn()

	default:
		return nil, apperror.Validation("unsupported request type %q", req.Type)
	}
	return reply, nil
}

// watch streams hub events to c. A reader goroutine notices the client
// hanging up; the writer stops on the first failed write.
func (s *Service) watch(ctx context.Context, c *wire.Conn) {
	id := fmt.Sprintf("ipc-watch-%d", connSeq.Add(1))
	log := slog.With("peer", id)

	if err := c.WriteMsg(message.OK()); err != nil {
		return
	}
	peer, unsubscribe := s.Subscribe(id, watchBuffer)
	defer unsubscribe()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := c.ReadMsg(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			log.Debug("watcher disconnected")
			return
		case ev := <-peer.Events():
			if err := c.WriteMsg(message.Event(ev)); err != nil {
				log.Debug("watch write failed", "err", err)
				return
			}
		}
	}
}

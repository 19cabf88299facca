package hub

import "log/slog"

// ChanPeer is a Peer backed by a buffered channel. When the buffer is full
// events are dropped rather than blocking the publisher.
type ChanPeer struct {
	id string
	ch chan Event
}

// NewChanPeer returns a ChanPeer with room for buf pending events.
func NewChanPeer(id string, buf int) *ChanPeer {
	return &ChanPeer{id: id, ch: make(chan Event, buf)}
}

func (p *ChanPeer) ID() string { return p.id }

// Send implements Peer.
func (p *ChanPeer) Send(ev Event) {
	select {
	case p.ch <- ev:
	default:
		slog.Warn("subscriber channel full, dropping event", "peer", p.id, "kind", ev.Kind)
	}
}

// Events returns the channel events are delivered on.
func (p *ChanPeer) Events() <-chan Event { return p.ch }

// Package message defines the clipkeep control protocol spoken over the IPC
// socket.
//
// All messages are newline-delimited JSON. Binary item content (image bytes,
// thumbnails, RTF) is base64-encoded by encoding/json. Each message is exactly
// one line: <json>\n
//
// A client sends one request per connection and reads one OK or ERROR reply.
// WATCH is the exception: the server answers OK and then streams EVENT
// messages until either side closes the connection.
package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.klb.dev/clipkeep/internal/apperror"
	"go.klb.dev/clipkeep/internal/history"
	"go.klb.dev/clipkeep/internal/hub"
	"go.klb.dev/clipkeep/internal/ignore"
	"go.klb.dev/clipkeep/internal/poller"
	"go.klb.dev/clipkeep/internal/settings"
)

// Type identifies the kind of message.
type Type string

// Requests.
const (
	TypeList          Type = "LIST"
	TypeGet           Type = "GET"
	TypeCopy          Type = "COPY"
	TypePin           Type = "PIN"
	TypeDelete        Type = "DELETE"
	TypeClear         Type = "CLEAR"
	TypeSet           Type = "SET"
	TypeMonitor       Type = "MONITOR"
	TypeStatus        Type = "STATUS"
	TypeIgnoreList    Type = "IGNORE_LIST"
	TypeIgnoreAdd     Type = "IGNORE_ADD"
	TypeIgnoreRemove  Type = "IGNORE_REMOVE"
	TypeIgnoreBuiltIn Type = "IGNORE_BUILTIN"
	TypeWatch         Type = "WATCH"
)

// Replies.
const (
	TypeOK    Type = "OK"
	TypeError Type = "ERROR"
	TypeEvent Type = "EVENT"
)

// Error codes carried by ERROR replies.
const (
	CodeNotFound    = "not_found"
	CodeValidation  = "validation"
	CodeTooLarge    = "too_large"
	CodePersistence = "persistence"
	CodeInternal    = "internal"
)

// Status describes a running daemon, returned for STATUS.
type Status struct {
	Version      string            `json:"version"`
	PID          int               `json:"pid"`
	StartedAt    time.Time         `json:"started_at"`
	Backend      string            `json:"backend"`
	Monitoring   bool              `json:"monitoring"`
	PollInterval string            `json:"poll_interval"`
	Items        int               `json:"items"`
	Pinned       int               `json:"pinned"`
	IgnoredApps  int               `json:"ignored_apps"`
	Settings     settings.Settings `json:"settings"`
	Database     string            `json:"database"`
	Encrypted    bool              `json:"encrypted"`
	HTTPAddr     string            `json:"http_addr,omitempty"`
	Subscribers  int               `json:"subscribers"`
	Stats        poller.Stats      `json:"stats"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// GET, COPY, PIN, DELETE, IGNORE_REMOVE — target identifier
	ID string `json:"id,omitempty"`

	// LIST — only pinned entries; CLEAR — include pinned entries
	PinnedOnly bool `json:"pinned_only,omitempty"`
	All        bool `json:"all,omitempty"`

	// SET
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`

	// MONITOR request (nil queries) and reply
	Monitoring *bool `json:"monitoring,omitempty"`

	// IGNORE_ADD request
	App *ignore.App `json:"app,omitempty"`

	// OK replies
	Item     *history.Item      `json:"item,omitempty"`
	Items    []history.Item     `json:"items,omitempty"`
	Apps     []ignore.App       `json:"apps,omitempty"`
	Removed  int                `json:"removed,omitempty"`
	Settings *settings.Settings `json:"settings,omitempty"`
	Status   *Status            `json:"status,omitempty"`

	// EVENT
	Event *hub.Event `json:"event,omitempty"`

	// ERROR
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if m.Type == "" {
		return nil, errors.New("message decode: missing type")
	}
	return &m, nil
}

// OK returns an empty success reply.
func OK() *Message { return &Message{Type: TypeOK} }

// Event wraps a hub event for streaming.
func Event(ev hub.Event) *Message { return &Message{Type: TypeEvent, Event: &ev} }

// FromError builds an ERROR reply whose code reflects err's kind.
func FromError(err error) *Message {
	return &Message{Type: TypeError, Code: Code(err), Error: err.Error()}
}

// Code maps err onto a protocol error code.
func Code(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, apperror.ErrValidation):
		return CodeValidation
	case errors.Is(err, apperror.ErrPayloadTooLarge):
		return CodeTooLarge
	case errors.Is(err, apperror.ErrPersistence):
		return CodePersistence
	}
	return CodeInternal
}

// Err returns the error carried by an ERROR reply, re-attached to the
// matching apperror sentinel, or nil for any other message.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	var kind error
	switch m.Code {
	case CodeNotFound:
		kind = apperror.ErrNotFound
	case CodeValidation:
		kind = apperror.ErrValidation
	case CodeTooLarge:
		kind = apperror.ErrPayloadTooLarge
	case CodePersistence:
		kind = apperror.ErrPersistence
	default:
		return errors.New(m.Error)
	}
	return &apperror.AppError{Err: kind, Message: m.Error}
}

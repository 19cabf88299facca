// Package history owns the ordered clipboard history: dedup, pin-aware
// eviction, ordering and persistence triggers.
package history

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// Kind is the closed classification of an item's content.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindColor Kind = "color"
)

// Valid reports whether k is one of the four known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile, KindColor:
		return true
	}
	return false
}

// ParseKind converts a stored kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown item kind %q", s)
	}
	return k, nil
}

// Item is one captured clipboard snapshot.
//
// Content fields are immutable once the item is created; only Pinned changes
// over the item's lifetime. Payload and RichText slices are shared between
// snapshots and must not be modified.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	PrimaryText string    `json:"primary_text"`
	Payload     []byte    `json:"payload,omitempty"`
	SourcePath  string    `json:"source_path,omitempty"`
	RichText    []byte    `json:"rich_text,omitempty"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewID returns a fresh, globally unique item identifier.
func NewID() string { return xid.New().String() }

// Equivalent reports whether a and b hold "the same" content. Kinds are never
// comparable with each other.
func Equivalent(a, b Item) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindText, KindColor:
		return a.PrimaryText == b.PrimaryText
	case KindFile:
		return a.SourcePath == b.SourcePath
	case KindImage:
		return bytes.Equal(a.Payload, b.Payload)
	}
	return false
}

// WithoutPayload returns a copy of it with the binary fields dropped, used for
// list views that only need labels.
func (it Item) WithoutPayload() Item {
	it.Payload = nil
	it.RichText = nil
	return it
}

// Preview returns PrimaryText cut to n runes.
func (it Item) Preview(n int) string {
	r := []rune(it.PrimaryText)
	if len(r) <= n {
		return it.PrimaryText
	}
	return string(r[:n]) + "…"
}

// Package crypto seals history content at rest with NaCl secretbox.
//
// A 32-byte key is derived from the user's secret with HKDF-SHA256. Each
// sealed value carries its own random 24-byte nonce:
//
//	[ 24-byte nonce ][ ciphertext ]
//
// A nil *Box is valid and passes data through unchanged, so callers can hold
// one unconditionally.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var hkdfInfo = []byte("clipkeep-at-rest-v1")

// ErrOpen is returned when a value cannot be decrypted, usually because the
// secret differs from the one used to seal it.
var ErrOpen = errors.New("decryption failed (wrong secret?)")

// Box seals and opens values with a derived key.
type Box struct {
	key [keySize]byte
}

// NewBox derives a key from secret. An empty secret yields a nil Box.
func NewBox(secret string) (*Box, error) {
	if secret == "" {
		return nil, nil
	}
	h := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	b := &Box{}
	if _, err := io.ReadFull(h, b.key[:]); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return b, nil
}

// Enabled reports whether b actually encrypts.
func (b *Box) Enabled() bool { return b != nil }

// Seal encrypts plaintext. nil stays nil so absent fields remain absent.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	if b == nil || plaintext == nil {
		return plaintext, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if b == nil || sealed == nil {
		return sealed, nil
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("sealed value too short (%d bytes)", len(sealed))
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	if plain == nil {
		plain = []byte{}
	}
	return plain, nil
}

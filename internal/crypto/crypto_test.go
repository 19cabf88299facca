package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	b, err := NewBox("correct horse")
	require.NoError(t, err)
	require.True(t, b.Enabled())

	plain := []byte("hunter2 \x00\xff binary too")
	sealed, err := b.Seal(plain)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "hunter2")

	got, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	again, err := b.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "each seal uses a fresh nonce")
}

func TestOpenWrongSecret(t *testing.T) {
	a, _ := NewBox("one")
	b, _ := NewBox("two")
	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.True(t, errors.Is(err, ErrOpen))

	_, err = a.Open([]byte("short"))
	assert.Error(t, err)
}

func TestNilBoxPassesThrough(t *testing.T) {
	b, err := NewBox("")
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.False(t, b.Enabled())

	out, err := b.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)

	out, err = b.Open([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), out)
}

func TestNilValueStaysNil(t *testing.T) {
	b, _ := NewBox("k")
	out, err := b.Seal(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	out, err = b.Open(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmptyValueRoundTrips(t *testing.T) {
	b, _ := NewBox("k")
	sealed, err := b.Seal([]byte{})
	require.NoError(t, err)
	out, err := b.Open(sealed)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

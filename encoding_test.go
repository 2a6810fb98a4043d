package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeybytesToHexAndBack(t *testing.T) {
	key := []byte{0x12, 0x34}
	hex := keybytesToHex(key)
	assert.Equal(t, []byte{1, 2, 3, 4, 16}, hex)

	back, err := hexToKeybytes(hex)
	require.NoError(t, err)
	assert.Equal(t, key, back)
}

func TestHexToKeybytesOddLength(t *testing.T) {
	_, err := hexToKeybytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidNibbleLength)
}

func TestHexToCompact(t *testing.T) {
	cases := []struct {
		hex  []byte
		want []byte
	}{
		{[]byte{1, 2, 3, 4, 5}, []byte{0x11, 0x23, 0x45}},
		{[]byte{0, 1, 2, 3, 4, 5}, []byte{0x00, 0x01, 0x23, 0x45}},
		{[]byte{0, 15, 1, 12, 11, 8, 16}, []byte{0x20, 0x0f, 0x1c, 0xb8}},
		{[]byte{15, 1, 12, 11, 8, 16}, []byte{0x3f, 0x1c, 0xb8}},
		{[]byte{16}, []byte{0x20}},
		{[]byte{}, []byte{0x00}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, hexToCompact(c.hex), "hex=%v", c.hex)
	}
}

func TestCompactToHexRoundTrip(t *testing.T) {
	paths := [][]byte{
		{1, 2, 3, 4},
		{1, 2, 3, 4, 16},
		{1, 2, 3},
		{1, 2, 3, 16},
		{16},
		{},
	}
	for _, p := range paths {
		compact := hexToCompact(p)
		got, err := compactToHex(compact)
		require.NoError(t, err)
		assert.Equal(t, p, got, "path=%v", p)
	}
}

func TestCompactToHexRejectsInvalidPrefix(t *testing.T) {
	_, err := compactToHex([]byte{0xc0, 0x12})
	assert.ErrorIs(t, err, ErrInvalidPathEncoding)
}

func TestCompactToHexRejectsEmpty(t *testing.T) {
	_, err := compactToHex(nil)
	assert.ErrorIs(t, err, ErrInvalidPathEncoding)
}

func TestCompactToHexRejectsPaddingBits(t *testing.T) {
	// Even-length path (odd flag unset) must have a zero low nibble.
	_, err := compactToHex([]byte{0x01, 0x23})
	assert.ErrorIs(t, err, ErrInvalidPathEncoding)
}

func TestIsLeafCompact(t *testing.T) {
	assert.True(t, isLeafCompact(hexToCompact([]byte{1, 2, 16})))
	assert.False(t, isLeafCompact(hexToCompact([]byte{1, 2})))
}

func TestPrefixLen(t *testing.T) {
	assert.Equal(t, 2, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 9}))
	assert.Equal(t, 0, prefixLen([]byte{1}, []byte{2}))
	assert.Equal(t, 3, prefixLen([]byte{1, 2, 3}, []byte{1, 2, 3}))
}

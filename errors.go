package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrKeyNotFound is returned by Get and Delete when the key has no
	// associated value in the trie.
	ErrKeyNotFound = errors.New("trie: key not found")

	// ErrEmptyValue is returned by Update when called with a zero-length
	// value. An empty branch terminator slot is how a branch encodes "no
	// value here", so an empty value is never stored.
	ErrEmptyValue = errors.New("trie: empty value")

	// ErrInvalidNibbleLength is returned when an odd-length nibble
	// sequence is presented where a whole number of bytes is required.
	ErrInvalidNibbleLength = errors.New("trie: odd nibble length")

	// ErrInvalidPathEncoding is returned when encoded path bytes violate
	// the hex-prefix kind/parity rules.
	ErrInvalidPathEncoding = errors.New("trie: invalid path encoding")

	// ErrMalformedNode is returned when node decoding fails a structural
	// check (wrong list length, leaf/extension prefix mismatch, ...).
	ErrMalformedNode = errors.New("trie: malformed node")
)

// MissingNodeError is returned when a 32-byte reference cannot be
// resolved against the backing store. It carries the path that led to
// the missing node so callers can tell which part of the trie is gone.
type MissingNodeError struct {
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // hex-encoded nibble path to the missing node
	err      error       // wrapped lookup error, if any
}

func (e *MissingNodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("missing trie node %x (path %x): %v", e.NodeHash, e.Path, e.err)
	}
	return fmt.Sprintf("missing trie node %x (path %x)", e.NodeHash, e.Path)
}

func (e *MissingNodeError) Unwrap() error { return e.err }

// Package trie implements a Modified Merkle Patricia Trie: an
// authenticated key-value structure over byte-string keys in which
// every distinct set of key-value pairs has exactly one canonical
// 32-byte root hash.
//
// A Trie holds its working set of nodes in memory and delegates
// durable storage of anything 32 bytes or larger to a Store, keyed by
// its own Keccak-256 digest (the Reference Rule). Smaller nodes are
// kept inline in their parent and never touch the Store, with one
// exception: Hash always persists the root node under its digest,
// whatever its length.
package trie

package trie

import (
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// hasher implements the Reference Rule (spec component D) using a
// pooled Keccak-256 sponge, mirroring go-ethereum's own use of
// crypto.NewKeccakState for allocation-free hashing.
type hasher struct {
	sha crypto.KeccakState
}

var hasherPool = sync.Pool{
	New: func() any {
		return &hasher{sha: crypto.NewKeccakState()}
	},
}

func newHasher() *hasher {
	return hasherPool.Get().(*hasher)
}

func returnHasherToPool(h *hasher) {
	hasherPool.Put(h)
}

func (h *hasher) hashData(data []byte) hashNode {
	n := make(hashNode, hashLen)
	h.sha.Reset()
	h.sha.Write(data)
	h.sha.Read(n)
	return n
}

// store applies the Reference Rule to a freshly rebuilt node: if its
// serialization is shorter than 32 bytes it is kept inline (embedded
// directly in the parent, no store write); otherwise it is hashed and
// persisted under that hash. valueNode and nil (Blank) pass through
// unchanged - they are never themselves subject to the rule, only the
// Extension/Branch slots that point at them.
func (h *hasher) store(n node, db Store) (node, error) {
	if n == nil {
		return nil, nil
	}
	if _, ok := n.(valueNode); ok {
		return n, nil
	}
	blob := nodeToBytes(n)
	if len(blob) < hashLen {
		return n, nil
	}
	hash := h.hashData(blob)
	if err := db.Put(hash, blob); err != nil {
		return nil, err
	}
	return hash, nil
}

// forceHash always hashes and persists blob under its digest,
// regardless of length. Used only for the trie's root (see
// DESIGN.md's Open Question 1).
func (h *hasher) forceHash(blob []byte, db Store) (hashNode, error) {
	hash := h.hashData(blob)
	if err := db.Put(hash, blob); err != nil {
		return nil, err
	}
	return hash, nil
}

package trie

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// EmptyRootHash is the Keccak-256 digest of the RLP encoding of an empty
// byte string, i.e. the canonical root hash of a trie holding no
// key-value pairs. It is the base case every Hash call bottoms out at.
var EmptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// Trie is an in-memory Modified Merkle Patricia Trie (spec component
// E) backed by a content-addressed Store. The zero value is not
// usable; construct one with New.
type Trie struct {
	db   Store
	root node
}

// New opens the trie rooted at root. A nil or empty root (or the
// canonical empty-trie hash) yields an empty trie. A root shorter than
// a hash is treated as an inline serialized node and decoded directly.
// A full 32-byte root is resolved lazily: New never touches db, so a
// dangling reference only surfaces as a *MissingNodeError from the
// first Get/Update/Delete that actually needs it.
func New(db Store, root []byte) (*Trie, error) {
	t := &Trie{db: db}
	if len(root) == 0 || bytes.Equal(root, EmptyRootHash.Bytes()) {
		return t, nil
	}
	if len(root) < hashLen {
		n, err := decodeNode(root)
		if err != nil {
			return nil, fmt.Errorf("trie: corrupt root node: %w", err)
		}
		t.root = n
		return t, nil
	}
	t.root = hashNode(common.BytesToHash(root).Bytes())
	return t, nil
}

// Get looks up key, returning ErrKeyNotFound if the trie has no value
// for it.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *Trie) get(n node, key []byte, pos int) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, ErrKeyNotFound
	case valueNode:
		return []byte(n), nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytes.Equal(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, ErrKeyNotFound
		}
		return t.get(n.Val, key, pos+len(n.Key))
	case *fullNode:
		return t.get(n.Children[key[pos]], key, pos+1)
	case hashNode:
		child, err := t.resolveHash(n, key[:pos])
		if err != nil {
			return nil, err
		}
		return t.get(child, key, pos)
	default:
		panic(fmt.Sprintf("trie: unexpected node type %T", n))
	}
}

// Update associates key with value, overwriting any prior value.
// ErrEmptyValue is returned for a zero-length value: an empty branch
// terminator is how a branch encodes "no value here", so an empty
// value could not be told apart from an absent key.
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return ErrEmptyValue
	}
	h := newHasher()
	defer returnHasherToPool(h)

	_, n, err := t.insert(h, t.root, nil, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(h *hasher, n node, prefix, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytes.Equal(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(h, n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			stored, err := t.store(h, &shortNode{n.Key, nn})
			return err == nil, stored, err
		}
		branch := &fullNode{}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(h, nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(h, nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		stored, err := t.store(h, branch)
		if err != nil {
			return false, nil, err
		}
		if matchlen == 0 {
			return true, stored, nil
		}
		stored, err = t.store(h, &shortNode{key[:matchlen], stored})
		return err == nil, stored, err
	case *fullNode:
		dirty, nn, err := t.insert(h, n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.Children[key[0]] = nn
		stored, err := t.store(h, n)
		return err == nil, stored, err
	case nil:
		stored, err := t.store(h, &shortNode{key, value})
		return err == nil, stored, err
	case hashNode:
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.insert(h, rn, prefix, key, value)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil
	default:
		panic(fmt.Sprintf("trie: unexpected node type %T", n))
	}
}

// store applies the Reference Rule (component D) to a node this call
// just rebuilt, persisting it under its hash when its encoding is 32
// bytes or longer and leaving it embedded inline otherwise. Every
// insert/delete recursion level funnels its freshly built node through
// here before handing it back to its parent.
func (t *Trie) store(h *hasher, n node) (node, error) {
	return h.store(n, t.db)
}

// Delete removes key's value. ErrKeyNotFound is returned if the key
// has no value, whether because the trie is empty, the key's path
// diverges from every stored path, or it ends one branch slot short
// of a value - delete never silently no-ops.
func (t *Trie) Delete(key []byte) error {
	h := newHasher()
	defer returnHasherToPool(h)

	_, n, err := t.delete(h, t.root, nil, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(h *hasher, n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case nil:
		return false, nil, ErrKeyNotFound
	case valueNode:
		return true, nil, nil
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, ErrKeyNotFound
		}
		if matchlen == len(key) {
			return true, nil, nil
		}
		dirty, nn, err := t.delete(h, n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		stored, err := t.normalizeShort(h, prefix, n.Key, nn)
		return err == nil, stored, err
	case *fullNode:
		dirty, nn, err := t.delete(h, n.Children[key[0]], append(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.Children[key[0]] = nn
		stored, err := t.normalizeFull(h, n, prefix)
		return err == nil, stored, err
	case hashNode:
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.delete(h, rn, prefix, key)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil
	default:
		panic(fmt.Sprintf("trie: unexpected node type %T", n))
	}
}

// normalizeShort folds a shortNode's child back in after a delete,
// merging two chained shortNodes into one (Extension+Extension or
// Extension+Leaf collapse into a single path) rather than leaving a
// dangling single-nibble hop.
func (t *Trie) normalizeShort(h *hasher, prefix, key []byte, child node) (node, error) {
	resolved, err := t.resolve(child, concat(prefix, key...))
	if err != nil {
		return nil, err
	}
	if cs, ok := resolved.(*shortNode); ok {
		return h.store(&shortNode{concat(key, cs.Key...), cs.Val}, t.db)
	}
	return h.store(&shortNode{key, child}, t.db)
}

// normalizeFull folds a fullNode with a single remaining child down to
// a shortNode, covering the branch-collapse half of the spec's six
// delete-normalization rules: a branch with one child left is no
// longer a branch. A branch that keeps more than one entry is passed
// through the Reference Rule as it is.
func (t *Trie) normalizeFull(h *hasher, n *fullNode, prefix []byte) (node, error) {
	pos := -1
	for i, cld := range &n.Children {
		if cld != nil {
			if pos == -1 {
				pos = i
			} else {
				pos = -2
				break
			}
		}
	}
	if pos < 0 {
		return h.store(n, t.db)
	}
	if pos != 16 {
		resolved, err := t.resolve(n.Children[pos], concat(prefix, byte(pos)))
		if err != nil {
			return nil, err
		}
		if cs, ok := resolved.(*shortNode); ok {
			k := append([]byte{byte(pos)}, cs.Key...)
			return h.store(&shortNode{k, cs.Val}, t.db)
		}
	}
	return h.store(&shortNode{[]byte{byte(pos)}, n.Children[pos]}, t.db)
}

func concat(a []byte, b ...byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func (t *Trie) resolveHash(n hashNode, prefix []byte) (node, error) {
	blob, err := t.db.Get(n)
	if err != nil || blob == nil {
		log.Debug("trie: node resolution failed", "hash", common.BytesToHash(n), "path", fmt.Sprintf("%x", prefix), "err", err)
		return nil, &MissingNodeError{NodeHash: common.BytesToHash(n), Path: prefix, err: err}
	}
	return decodeNode(blob)
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn, prefix)
	}
	return n, nil
}

// Hash computes and returns the trie's root hash. Unlike every other
// node reference, the root is always hashed and persisted under its
// digest regardless of its serialized length - this is what lets New
// reconstruct a trie from nothing but a previously observed root hash
// even when the whole trie fits in a single node shorter than 32
// bytes (see DESIGN.md's root-persistence decision).
func (t *Trie) Hash() (common.Hash, error) {
	if t.root == nil {
		return EmptyRootHash, nil
	}
	if hn, ok := t.root.(hashNode); ok {
		// A hashNode root (given to New, or left by an Update/Delete
		// whose rebuilt root encodes to 32 bytes or more) is already the
		// digest of a node that is in the store.
		return common.BytesToHash(hn), nil
	}
	blob := nodeToBytes(t.root)
	h := newHasher()
	defer returnHasherToPool(h)
	hash, err := h.forceHash(blob, t.db)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hash), nil
}

// Root is Hash with the digest returned as a plain byte slice, for
// callers that store or transmit it opaquely.
func (t *Trie) Root() ([]byte, error) {
	hash, err := t.Hash()
	if err != nil {
		return nil, err
	}
	return hash.Bytes(), nil
}

// Copy returns an independent trie sharing the same backing Store.
// Because every node the copy starts from has already been through the
// Reference Rule (persisted under its hash, or kept inline) and is
// never modified in place, mutating the copy never touches the nodes
// the original still references - only the path from root to the
// edited key is ever rebuilt.
func (t *Trie) Copy() *Trie {
	return &Trie{db: t.db, root: t.root}
}

// Prove returns the chain of RLP-encoded nodes - root first - visited
// while resolving key, regardless of whether key has a value. A
// caller holding just the root hash can use this chain to recompute
// the root and so verify that a (key, value) pair is or is not part
// of the trie without holding the rest of the data set.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	var proof [][]byte
	hexKey := keybytesToHex(key)
	n := t.root
	pos := 0
	for {
		switch cur := n.(type) {
		case nil:
			return proof, nil
		case valueNode:
			return proof, nil
		case *shortNode:
			proof = append(proof, nodeToBytes(cur))
			if len(hexKey)-pos < len(cur.Key) || !bytes.Equal(cur.Key, hexKey[pos:pos+len(cur.Key)]) {
				return proof, nil
			}
			n, pos = cur.Val, pos+len(cur.Key)
		case *fullNode:
			proof = append(proof, nodeToBytes(cur))
			if pos >= len(hexKey) {
				return proof, nil
			}
			n, pos = cur.Children[hexKey[pos]], pos+1
		case hashNode:
			resolved, err := t.resolveHash(cur, hexKey[:pos])
			if err != nil {
				return proof, err
			}
			n = resolved
		default:
			panic(fmt.Sprintf("trie: unexpected node type %T", cur))
		}
	}
}


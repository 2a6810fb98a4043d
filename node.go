package trie

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// node is the trie's node algebra (spec component C). Blank is the nil
// interface value; valueNode (a user value) and hashNode (a 32-byte
// digest reference) are raw byte strings that encode the same way and
// differ only in how the trie treats them; shortNode stands in for both Leaf and
// Extension (disambiguated by hasTerm(Key)); fullNode is Branch, with
// Children[16] holding the terminator value.
type node interface {
	encode(w rlp.EncoderBuffer)
	fstring(indent string) string
}

type (
	fullNode struct {
		Children [17]node
	}
	shortNode struct {
		Key []byte
		Val node
	}
	hashNode  []byte
	valueNode []byte
)

func (n *fullNode) copy() *fullNode {
	c := *n
	return &c
}

// isLeaf reports whether a shortNode represents a Leaf (true) or an
// Extension (false).
func (n *shortNode) isLeaf() bool { return hasTerm(n.Key) }

func (n *fullNode) encode(w rlp.EncoderBuffer) {
	offset := w.List()
	for _, c := range n.Children {
		if c != nil {
			c.encode(w)
		} else {
			w.Write(rlp.EmptyString)
		}
	}
	w.ListEnd(offset)
}

func (n *shortNode) encode(w rlp.EncoderBuffer) {
	offset := w.List()
	w.WriteBytes(hexToCompact(n.Key))
	if n.Val != nil {
		n.Val.encode(w)
	} else {
		w.Write(rlp.EmptyString)
	}
	w.ListEnd(offset)
}

func (n hashNode) encode(w rlp.EncoderBuffer) {
	w.WriteBytes(n)
}

func (n valueNode) encode(w rlp.EncoderBuffer) {
	w.WriteBytes(n)
}

// nodeToBytes serializes a node via the item codec (RLP). This is the
// forward half of spec component C's codec.
func nodeToBytes(n node) []byte {
	w := rlp.NewEncoderBuffer(nil)
	n.encode(w)
	result := w.ToBytes()
	w.Flush()
	return result
}

const hashLen = 32

// decodeNode parses the serialized form of a node (spec component C's
// decode direction). It fails with ErrMalformedNode on structural
// mismatches and ErrInvalidPathEncoding if an embedded path is corrupt.
func decodeNode(buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	elems, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	count, err := rlp.CountValues(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	switch count {
	case 2:
		n, err := decodeShort(elems)
		return n, wrapDecodeError(err, "short")
	case 17:
		n, err := decodeFull(elems)
		return n, wrapDecodeError(err, "full")
	default:
		return nil, fmt.Errorf("%w: invalid number of list elements: %d", ErrMalformedNode, count)
	}
}

func decodeShort(elems []byte) (node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, err
	}
	key, err := compactToHex(kbuf)
	if err != nil {
		return nil, err
	}
	if hasTerm(key) {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid leaf value: %v", ErrMalformedNode, err)
		}
		return &shortNode{Key: key, Val: valueNode(val)}, nil
	}
	r, _, err := decodeRef(rest)
	if err != nil {
		return nil, wrapDecodeError(err, "val")
	}
	return &shortNode{Key: key, Val: r}, nil
}

func decodeFull(elems []byte) (*fullNode, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		cld, rest, err := decodeRef(elems)
		if err != nil {
			return n, wrapDecodeError(err, indexKey(i))
		}
		n.Children[i], elems = cld, rest
	}
	val, _, err := rlp.SplitString(elems)
	if err != nil {
		return n, fmt.Errorf("%w: invalid branch terminator: %v", ErrMalformedNode, err)
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(val)
	}
	return n, nil
}

func decodeRef(buf []byte) (node, []byte, error) {
	kind, val, rest, err := rlp.Split(buf)
	if err != nil {
		return nil, buf, err
	}
	switch {
	case kind == rlp.List:
		// Embedded (inline) node reference; must be shorter than a hash.
		if size := len(buf) - len(rest); size >= hashLen {
			return nil, buf, fmt.Errorf("%w: oversized embedded node (size %d, want < %d)", ErrMalformedNode, size, hashLen)
		}
		n, err := decodeNode(buf)
		return n, rest, err
	case kind == rlp.String && len(val) == 0:
		return nil, rest, nil
	case kind == rlp.String && len(val) == hashLen:
		return hashNode(val), rest, nil
	default:
		return nil, nil, fmt.Errorf("%w: invalid RLP string size %d (want 0 or %d)", ErrMalformedNode, len(val), hashLen)
	}
}

func indexKey(i int) string { return fmt.Sprintf("[%d]", i) }

type decodeError struct {
	err   error
	stack []string
}

func wrapDecodeError(err error, ctx string) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*decodeError); ok {
		de.stack = append(de.stack, ctx)
		return de
	}
	return &decodeError{err: err, stack: []string{ctx}}
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("%v (decode path: %s)", e.err, joinStack(e.stack))
}

func (e *decodeError) Unwrap() error { return e.err }

func joinStack(stack []string) string {
	out := ""
	for i := len(stack) - 1; i >= 0; i-- {
		out += stack[i]
	}
	return out
}

func (n *fullNode) fstring(ind string) string {
	resp := "[\n" + ind + "  "
	for i, node := range n.Children {
		if node == nil {
			resp += fmt.Sprintf("%d: <nil> ", i)
			continue
		}
		resp += fmt.Sprintf("%d: %v", i, node.fstring(ind+"  "))
	}
	return resp + "\n" + ind + "]"
}

func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}

func (n hashNode) fstring(ind string) string {
	return fmt.Sprintf("<%x> ", []byte(n))
}

func (n valueNode) fstring(ind string) string {
	return fmt.Sprintf("%x ", []byte(n))
}

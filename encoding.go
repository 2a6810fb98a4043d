package trie

// Hex-prefix path encoding. A key's nibbles are routed through two
// related representations:
//
//   - "hex" form: one byte per nibble, used while walking the trie.
//     Internally a hex path built from a full key carries a trailing
//     terminator nibble (value 16, outside the 0-15 range) that marks
//     "this is where a value lives" - it is what lets a single
//     shortNode type stand in for both Leaf and Extension.
//   - "compact" form: the on-disk encoding stored in a node's path
//     field, two nibbles packed per byte with a leading prefix byte
//     carrying the kind (leaf/extension) and parity (odd/even) bits.
//     This is spec component A's "encoded path".
//
// compactLeafFlag and compactOddFlag sit in the high nibble of the
// prefix byte: bit 5 marks a leaf, bit 4 marks an odd-length path.
const (
	compactOddFlag  = 0x10
	compactLeafFlag = 0x20
)

// hasTerm reports whether a hex path ends in the terminator nibble.
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == 16
}

// keybytesToHex expands a byte string into its nibble form, high
// nibble first, and appends the terminator nibble.
func keybytesToHex(str []byte) []byte {
	l := len(str)*2 + 1
	nibbles := make([]byte, l)
	for i, b := range str {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[l-1] = 16
	return nibbles
}

// hexToKeybytes is the public from_nibbles operation: it packs a
// terminator-free nibble sequence back into bytes, and fails if the
// sequence has odd length.
func hexToKeybytes(hex []byte) ([]byte, error) {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		return nil, ErrInvalidNibbleLength
	}
	return decodeNibbles(hex), nil
}

func decodeNibbles(nibbles []byte) []byte {
	out := make([]byte, len(nibbles)/2)
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		out[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
	return out
}

// toNibbles is the public to_nibbles operation.
func toNibbles(key []byte) []byte {
	out := make([]byte, len(key)*2)
	for i, b := range key {
		out[i*2] = b >> 4
		out[i*2+1] = b & 0x0f
	}
	return out
}

// prefixLen returns the length of the longest shared nibble run
// between a and b.
func prefixLen(a, b []byte) int {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var i int
	for ; i < length; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// hexToCompact encodes a (possibly terminator-suffixed) hex path into
// its compact on-disk form.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = compactLeafFlag
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator
	if len(hex)&1 == 1 {
		buf[0] |= compactOddFlag
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	packNibblesInto(buf[1:], hex)
	return buf
}

func packNibblesInto(dst, hex []byte) {
	for bi, ni := 0, 0; ni < len(hex); bi, ni = bi+1, ni+2 {
		dst[bi] = hex[ni]<<4 | hex[ni+1]
	}
}

// compactToHex decodes a compact path back into hex form (with a
// trailing terminator nibble when the leaf flag is set), validating
// the prefix byte's unused bits along the way.
func compactToHex(compact []byte) ([]byte, error) {
	if len(compact) == 0 {
		return nil, ErrInvalidPathEncoding
	}
	if compact[0]&0xc0 != 0 {
		// Only the bottom two bits of the high nibble (leaf, odd) are
		// defined; anything above that is not a valid prefix.
		return nil, ErrInvalidPathEncoding
	}
	odd := compact[0]&compactOddFlag != 0
	if !odd && compact[0]&0x0f != 0 {
		// Even-length paths carry no packed nibble in the prefix byte;
		// the low nibble must be zero padding.
		return nil, ErrInvalidPathEncoding
	}
	base := keybytesToHex(compact)
	if base[0] < 2 {
		base = base[:len(base)-1]
	}
	chop := 2 - base[0]&1
	return base[chop:], nil
}

// isLeafCompact reports the leaf/extension bit of a compact path
// without fully decoding it.
func isLeafCompact(compact []byte) bool {
	return len(compact) > 0 && compact[0]&compactLeafFlag != 0
}

package merkle

import (
	"bytes"
	"encoding/hex"
)

// ToHex returns the lowercase hex encoding of b.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// lessHex reports whether the lowercase hex encoding of a sorts before that of
// b. Hex encoding preserves byte order so the raw bytes are compared directly.
func lessHex(a, b []byte) bool {
	return bytes.Compare(a, b) < 0
}

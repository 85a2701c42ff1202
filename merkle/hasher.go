package merkle

import "fmt"

// Hasher is the hash capability the tree, its partial forms and its proofs are
// built with. Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash returns the digest of data. Every digest has length Size().
	Hash(data []byte) []byte
	// Size is the digest length in bytes.
	Size() int
	// ConcatAndHash combines two sibling nodes. right is nil when left is the
	// last node on its layer and has no sibling.
	ConcatAndHash(left, right []byte) []byte
}

// TreeConfig carries the pairing options used when nodes are combined. The
// same configuration must be used to build a tree and to verify its proofs.
type TreeConfig struct {
	// SortedPairs orders each pair so that the node with the lexicographically
	// smaller hex encoding is hashed first.
	SortedPairs bool
}

// combine hashes a node with its right sibling according to cfg. A node with
// no right sibling is passed to the hasher alone.
func combine(hasher Hasher, left, right []byte, hasRight bool, cfg TreeConfig) []byte {
	if !hasRight {
		return hasher.ConcatAndHash(left, nil)
	}
	if cfg.SortedPairs && lessHex(right, left) {
		return hasher.ConcatAndHash(right, left)
	}
	return hasher.ConcatAndHash(left, right)
}

// checkHashSize fails with ErrHashSize unless every hash is exactly size
// bytes.
func checkHashSize(hashes [][]byte, size int, what string) error {
	for i, h := range hashes {
		if len(h) != size {
			return fmt.Errorf("%w: %s %d is %d bytes, expected %d", ErrHashSize, what, i, len(h), size)
		}
	}
	return nil
}

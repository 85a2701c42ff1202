package checkpoint

import (
	"time"

	"github.com/google/uuid"

	"github.com/forestrie/go-merkletree/merkle"
)

// TreeState defines the details included in a signed commitment to the
// committed state of a tree.
type TreeState struct {
	// TreeID distinguishes independent trees signed by the same issuer.
	TreeID uuid.UUID `cbor:"1,keyasint"`
	// The leaf count defines the shape of the tree, and with it the positions
	// every proof against Root is checked with.
	LeafCount uint64 `cbor:"2,keyasint"`
	Root      []byte `cbor:"3,keyasint"`
	// Timestamp is the unix time (milliseconds) read at the time the root was
	// signed. Including it allows for the same root to be re-signed.
	Timestamp int64 `cbor:"4,keyasint"`
	// The hash configuration is attested so that a verifier can not be misled
	// into checking proofs with a different algorithm or pairing.
	Algorithm   string `cbor:"5,keyasint"`
	SortedPairs bool   `cbor:"6,keyasint"`
}

// NewTreeState captures the committed state of tree.
func NewTreeState(
	treeID uuid.UUID, tree *merkle.Tree, algorithm string, cfg merkle.TreeConfig, now time.Time,
) TreeState {
	return TreeState{
		TreeID:      treeID,
		LeafCount:   uint64(tree.LeavesLen()),
		Root:        tree.Root(),
		Timestamp:   now.UnixMilli(),
		Algorithm:   algorithm,
		SortedPairs: cfg.SortedPairs,
	}
}

func (s TreeState) Config() merkle.TreeConfig {
	return merkle.TreeConfig{SortedPairs: s.SortedPairs}
}

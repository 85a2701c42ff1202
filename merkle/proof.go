package merkle

import (
	"bytes"
	"fmt"
	"slices"
)

// Proof is an ordered list of node hashes that, together with a set of leaves,
// is sufficient to recompute the root of a tree.
//
// The hashes are ordered bottom layer first and left to right within a layer,
// see ProofPositionsByLayer. The binary form is the plain concatenation of the
// hashes.
type Proof struct {
	hasher Hasher
	hashes [][]byte
}

// NewProof creates a proof from its hashes. Every hash must be
// hasher.Size() bytes long.
func NewProof(hasher Hasher, hashes [][]byte) (*Proof, error) {
	if err := checkHashSize(hashes, hasher.Size(), "proof hash"); err != nil {
		return nil, err
	}
	cloned := make([][]byte, 0, len(hashes))
	for _, h := range hashes {
		cloned = append(cloned, bytes.Clone(h))
	}
	return &Proof{hasher: hasher, hashes: cloned}, nil
}

// ProofFromBytes decodes the binary form of a proof. data must divide into
// whole digests of hasher.Size() bytes.
func ProofFromBytes(hasher Hasher, data []byte) (*Proof, error) {
	size := hasher.Size()
	if size <= 0 || len(data)%size != 0 {
		return nil, fmt.Errorf(
			"%w: proof of size %d bytes can not be divided into chunks of %d bytes",
			ErrMalformedProof, len(data), size)
	}
	hashes := make([][]byte, 0, len(data)/size)
	for i := 0; i < len(data); i += size {
		hashes = append(hashes, bytes.Clone(data[i:i+size]))
	}
	return &Proof{hasher: hasher, hashes: hashes}, nil
}

// Bytes returns the binary form of the proof.
func (p *Proof) Bytes() []byte {
	var buf bytes.Buffer
	for _, h := range p.hashes {
		buf.Write(h)
	}
	return buf.Bytes()
}

// Hashes returns the proof hashes in order.
func (p *Proof) Hashes() [][]byte {
	return slices.Clone(p.hashes)
}

// HashesHex returns the proof hashes hex encoded.
func (p *Proof) HashesHex() []string {
	hexes := make([]string, 0, len(p.hashes))
	for _, h := range p.hashes {
		hexes = append(hexes, ToHex(h))
	}
	return hexes
}

// Len is the number of hashes in the proof.
func (p *Proof) Len() int {
	return len(p.hashes)
}

// Root recomputes the root of a tree of leafCount leaves from the proof and
// the leaves it proves. leafPositions[i] is the position of leafHashes[i], the
// pairs may be given in any order.
//
// The proof must provide exactly the hashes ProofPositionsByLayer requires.
// Too few hashes fail with ErrInsufficientNodes, unused hashes with
// ErrMalformedProof. Leaf and proof hashes that are not hasher.Size() bytes
// fail with ErrHashSize.
func (p *Proof) Root(
	leafPositions []uint64, leafHashes [][]byte, leafCount uint64, cfg TreeConfig,
) ([]byte, error) {
	leaves, err := LeafLayer(leafPositions, leafHashes)
	if err != nil {
		return nil, fmt.Errorf("%w: %d positions, %d hashes", err, len(leafPositions), len(leafHashes))
	}
	if err = checkHashSize(leafHashes, p.hasher.Size(), "leaf hash"); err != nil {
		return nil, err
	}
	if err = checkHashSize(p.hashes, p.hasher.Size(), "proof hash"); err != nil {
		return nil, err
	}
	sortLayer(leaves)
	for i, leaf := range leaves {
		if leaf.Pos >= leafCount {
			return nil, fmt.Errorf("%w: position %d, leaf count %d", ErrLeafPositionOutOfRange, leaf.Pos, leafCount)
		}
		if i > 0 && leaves[i-1].Pos == leaf.Pos {
			return nil, fmt.Errorf("%w: position %d", ErrDuplicateLeafPosition, leaf.Pos)
		}
	}

	required := ProofPositionsByLayer(leaves.Positions(), leafCount)
	depth := TreeDepth(leafCount)

	layers := make([]Layer, depth+1)
	layers[0] = leaves
	next := 0
	for layer, positions := range required {
		for _, pos := range positions {
			if next >= len(p.hashes) {
				return nil, fmt.Errorf(
					"%w: proof has %d hashes, more are required at layer %d",
					ErrInsufficientNodes, len(p.hashes), layer)
			}
			layers[layer] = append(layers[layer], Node{Pos: pos, Hash: p.hashes[next]})
			next++
		}
	}
	if next != len(p.hashes) {
		return nil, fmt.Errorf(
			"%w: %d of %d proof hashes were not used", ErrMalformedProof, len(p.hashes)-next, len(p.hashes))
	}

	tree, err := BuildPartialTree(p.hasher, layers, depth, cfg)
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root could be computed", ErrInsufficientNodes)
	}
	return root, nil
}

// RootHex is Root, hex encoded.
func (p *Proof) RootHex(
	leafPositions []uint64, leafHashes [][]byte, leafCount uint64, cfg TreeConfig,
) (string, error) {
	root, err := p.Root(leafPositions, leafHashes, leafCount, cfg)
	if err != nil {
		return "", err
	}
	return ToHex(root), nil
}

// Verify reports whether the proof shows the leaves are included in the tree
// with the given root. Any failure to compute a root is reported as false.
func (p *Proof) Verify(
	root []byte, leafPositions []uint64, leafHashes [][]byte, leafCount uint64, cfg TreeConfig,
) bool {
	computed, err := p.Root(leafPositions, leafHashes, leafCount, cfg)
	if err != nil {
		return false
	}
	return bytes.Equal(computed, root)
}

package merkle

import (
	"cmp"
	"slices"
)

// Node is a hash at a position within its layer.
type Node struct {
	Pos  uint64
	Hash []byte
}

// Layer is the set of known nodes on one layer of a tree, ascending by
// position. Layers of partial trees are sparse.
type Layer []Node

// LeafLayer pairs each position with the leaf hash at the same index.
func LeafLayer(positions []uint64, leafHashes [][]byte) (Layer, error) {
	if len(positions) != len(leafHashes) {
		return nil, ErrMismatchedLeafCounts
	}
	layer := make(Layer, 0, len(positions))
	for i, pos := range positions {
		layer = append(layer, Node{Pos: pos, Hash: leafHashes[i]})
	}
	return layer, nil
}

// Hashes returns the node hashes in position order.
func (l Layer) Hashes() [][]byte {
	hashes := make([][]byte, 0, len(l))
	for _, n := range l {
		hashes = append(hashes, n.Hash)
	}
	return hashes
}

// Positions returns the node positions in order.
func (l Layer) Positions() []uint64 {
	positions := make([]uint64, 0, len(l))
	for _, n := range l {
		positions = append(positions, n.Pos)
	}
	return positions
}

// Get returns the hash at pos, the layer must be sorted.
func (l Layer) Get(pos uint64) ([]byte, bool) {
	i, found := slices.BinarySearchFunc(l, pos, func(n Node, pos uint64) int {
		return cmp.Compare(n.Pos, pos)
	})
	if !found {
		return nil, false
	}
	return l[i].Hash, true
}

// sortLayer orders the layer by position in place. The sort is stable so
// callers can detect duplicates deterministically.
func sortLayer(l Layer) {
	slices.SortStableFunc(l, func(a, b Node) int {
		return cmp.Compare(a.Pos, b.Pos)
	})
}

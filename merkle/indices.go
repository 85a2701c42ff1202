package merkle

import (
	"math/bits"
	"slices"
)

// TreeDepth returns the number of layers above the leaves in a tree of
// leafCount leaves. It is 0 for zero or one leaf, and ceil(log2(leafCount))
// otherwise.
//
//	leafCount  1 2 3 4 5 6 7 8 9
//	depth      0 1 2 2 3 3 3 3 4
func TreeDepth(leafCount uint64) int {
	if leafCount <= 1 {
		return 0
	}
	return bits.Len64(leafCount - 1)
}

// SiblingPosition returns the position of the node paired with pos on the same
// layer.
func SiblingPosition(pos uint64) uint64 {
	return pos ^ 1
}

// ParentPosition returns the position of the parent of pos on the layer above.
func ParentPosition(pos uint64) uint64 {
	return pos >> 1
}

// ParentPositions maps each position to its parent and returns the distinct
// parents in ascending order.
func ParentPositions(positions []uint64) []uint64 {
	parents := make([]uint64, 0, len(positions))
	for _, pos := range positions {
		parents = append(parents, ParentPosition(pos))
	}
	slices.Sort(parents)
	return slices.Compact(parents)
}

// LayerWidth returns the number of nodes on layer in a tree of leafCount
// leaves.
func LayerWidth(leafCount uint64, layer int) uint64 {
	width := leafCount
	for i := 0; i < layer && width > 1; i++ {
		width = width/2 + width%2
	}
	return width
}

// ProofPositionsByLayer returns, for every layer below the root, the positions
// of the nodes a verifier needs in addition to the given leaves in order to
// recompute the root.
//
// On each layer the sibling of every known node is required unless it is
// itself known or it lies beyond the end of the layer. Nodes without a sibling
// are carried up alone, so nothing is required for them. The parents of the
// known nodes become the known nodes of the next layer.
//
// For six leaves and leaf positions {3, 4} the result is [[2 5] [0] []]:
//
//	2         0           1
//	        /   \         |
//	1     0       1       2
//	     / \     / \     / \
//	0   0   1  [2]  3   4  [5]
//
// The result always holds TreeDepth(leafCount) layers, leaf layer first.
// Duplicate leaf positions are ignored.
func ProofPositionsByLayer(leafPositions []uint64, leafCount uint64) [][]uint64 {
	depth := TreeDepth(leafCount)
	known := slices.Clone(leafPositions)
	slices.Sort(known)
	known = slices.Compact(known)

	byLayer := make([][]uint64, 0, depth)
	width := leafCount
	for layer := 0; layer < depth; layer++ {
		required := []uint64{}
		for i, pos := range known {
			sibling := SiblingPosition(pos)
			if sibling >= width {
				continue
			}
			// known is sorted so a known sibling is adjacent
			if sibling < pos && i > 0 && known[i-1] == sibling {
				continue
			}
			if sibling > pos && i+1 < len(known) && known[i+1] == sibling {
				continue
			}
			required = append(required, sibling)
		}
		byLayer = append(byLayer, required)
		known = ParentPositions(known)
		width = width/2 + width%2
	}
	return byLayer
}

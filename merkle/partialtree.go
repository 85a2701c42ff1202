package merkle

import (
	"fmt"
	"slices"
)

// PartialTree holds a subset of the nodes of a tree, layer by layer. A full
// tree is the special case where every node is present.
//
// The layers of a PartialTree are never modified in place once built. Clone
// is therefore cheap and the clones may be read concurrently.
type PartialTree struct {
	layers []Layer
}

// NewPartialTree returns an empty partial tree.
func NewPartialTree() *PartialTree {
	return &PartialTree{}
}

// BuildPartialTree computes every node that can be derived from the supplied
// nodes, up to the layer depth.
//
// layers[i] holds nodes supplied for layer i, in any order. On each layer the
// supplied nodes are merged with those computed from the layer below, and the
// pairs (2k, 2k+1) are hashed into the parent at k. A node at 2k without a
// right sibling is passed to the hasher alone. A node at 2k+1 without its left sibling
// can not be hashed and the build fails with ErrInsufficientNodes.
//
// The build also fails if the root layer ends up with more than one node,
// which means the supplied nodes were inconsistent with depth, and with
// ErrHashSize if a supplied hash is not hasher.Size() bytes.
func BuildPartialTree(hasher Hasher, layers []Layer, depth int, cfg TreeConfig) (*PartialTree, error) {
	for i := depth + 1; i < len(layers); i++ {
		if len(layers[i]) != 0 {
			return nil, fmt.Errorf("%w: layer %d, depth %d", ErrLayerAboveRoot, i, depth)
		}
	}
	for i, layer := range layers {
		if err := checkHashSize(layer.Hashes(), hasher.Size(), fmt.Sprintf("layer %d node", i)); err != nil {
			return nil, err
		}
	}

	tree := &PartialTree{layers: make([]Layer, 0, depth+1)}

	var current Layer
	for layer := 0; layer < depth; layer++ {
		current = withSupplied(current, layers, layer)
		if err := checkUnique(current, layer); err != nil {
			return nil, err
		}
		tree.layers = append(tree.layers, current)

		parents := make(Layer, 0, len(current)/2+1)
		for i := 0; i < len(current); i++ {
			left := current[i]
			if left.Pos%2 == 1 {
				return nil, fmt.Errorf(
					"%w: layer %d position %d has no left sibling", ErrInsufficientNodes, layer, left.Pos)
			}
			var right []byte
			hasRight := i+1 < len(current) && current[i+1].Pos == left.Pos+1
			if hasRight {
				right = current[i+1].Hash
				i++
			}
			parents = append(parents, Node{
				Pos:  ParentPosition(left.Pos),
				Hash: combine(hasher, left.Hash, right, hasRight, cfg),
			})
		}
		current = parents
	}

	current = withSupplied(current, layers, depth)
	if err := checkUnique(current, depth); err != nil {
		return nil, err
	}
	if len(current) > 1 {
		return nil, fmt.Errorf(
			"%w: %d nodes on the root layer %d", ErrInsufficientNodes, len(current), depth)
	}
	tree.layers = append(tree.layers, current)
	return tree, nil
}

// PartialTreeFromLeaves builds the complete tree over leaves.
func PartialTreeFromLeaves(hasher Hasher, leaves [][]byte, cfg TreeConfig) (*PartialTree, error) {
	leafLayer := make(Layer, 0, len(leaves))
	for i, leaf := range leaves {
		leafLayer = append(leafLayer, Node{Pos: uint64(i), Hash: leaf})
	}
	return BuildPartialTree(hasher, []Layer{leafLayer}, TreeDepth(uint64(len(leaves))), cfg)
}

// withSupplied returns computed extended by the nodes supplied for layer,
// sorted by position. computed is never modified.
func withSupplied(computed Layer, layers []Layer, layer int) Layer {
	if layer >= len(layers) || len(layers[layer]) == 0 {
		return computed
	}
	merged := make(Layer, 0, len(computed)+len(layers[layer]))
	merged = append(merged, computed...)
	merged = append(merged, layers[layer]...)
	sortLayer(merged)
	return merged
}

func checkUnique(l Layer, layer int) error {
	for i := 1; i < len(l); i++ {
		if l[i].Pos == l[i-1].Pos {
			return fmt.Errorf("%w: layer %d position %d", ErrDuplicateNode, layer, l[i].Pos)
		}
	}
	return nil
}

// Root returns the root hash, or nil if the tree does not hold one.
func (t *PartialTree) Root() []byte {
	if len(t.layers) == 0 {
		return nil
	}
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return nil
	}
	return top[0].Hash
}

// Depth is the index of the root layer. An empty tree has depth 0.
func (t *PartialTree) Depth() int {
	if len(t.layers) == 0 {
		return 0
	}
	return len(t.layers) - 1
}

// Contains reports whether the tree holds a node at pos on layer.
func (t *PartialTree) Contains(layer int, pos uint64) bool {
	_, ok := t.Get(layer, pos)
	return ok
}

// Get returns the hash at pos on layer.
func (t *PartialTree) Get(layer int, pos uint64) ([]byte, bool) {
	if layer < 0 || layer >= len(t.layers) {
		return nil, false
	}
	return t.layers[layer].Get(pos)
}

// Layers returns the layers of the tree, leaves first. The returned layers
// must not be modified.
func (t *PartialTree) Layers() []Layer {
	return slices.Clone(t.layers)
}

// LayerNodes returns the node hashes of each layer, leaves first.
func (t *PartialTree) LayerNodes() [][][]byte {
	nodes := make([][][]byte, 0, len(t.layers))
	for _, l := range t.layers {
		nodes = append(nodes, l.Hashes())
	}
	return nodes
}

// Clone returns a copy of the tree that can be merged into without affecting
// the original.
func (t *PartialTree) Clone() *PartialTree {
	return &PartialTree{layers: slices.Clone(t.layers)}
}

// Clear removes every node.
func (t *PartialTree) Clear() {
	t.layers = nil
}

// MergeUnverified splices other into t layer by layer. Where both trees hold
// a node at the same position, the node from other wins. Nothing is rehashed,
// so the result is only consistent if other was built over the same leaves
// (typically a subtree rebuilt after new leaves were added).
func (t *PartialTree) MergeUnverified(other *PartialTree) {
	depth := max(len(t.layers), len(other.layers))
	merged := make([]Layer, 0, depth)
	for i := 0; i < depth; i++ {
		var mine, theirs Layer
		if i < len(t.layers) {
			mine = t.layers[i]
		}
		if i < len(other.layers) {
			theirs = other.layers[i]
		}
		if len(theirs) == 0 {
			merged = append(merged, mine)
			continue
		}

		layer := make(Layer, 0, len(mine)+len(theirs))
		for _, n := range mine {
			if _, replaced := theirs.Get(n.Pos); !replaced {
				layer = append(layer, n)
			}
		}
		layer = append(layer, theirs...)
		sortLayer(layer)
		merged = append(merged, layer)
	}
	t.layers = merged
}

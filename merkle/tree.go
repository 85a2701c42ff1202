package merkle

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/forestrie/go-merkletree/metrics"
)

// snapshot is a committed state. Neither field is modified once the snapshot
// is taken.
type snapshot struct {
	leaves [][]byte
	tree   *PartialTree
}

// Tree is a Merkle tree with staged additions and a history of committed
// states.
//
// Leaves are staged by Insert and Append and become part of the tree on
// Commit. Each commit that adds leaves remembers the state it replaced so that
// Rollback can restore it.
//
// Commit only rehashes the branches touched by the new leaves. For six
// committed leaves and one staged leaf at position 6, the nodes marked * are
// recomputed and the nodes in brackets are read from the committed tree:
//
//	3               *
//	            /       \
//	2        [0]          *
//	        /   \         |
//	1     0       1       *
//	     / \     / \     / \
//	0   0   1   2   3  [4] [5]  *6
//
// A Tree is not safe for concurrent mutation. Reads may run concurrently with
// each other.
type Tree struct {
	opts    TreeOptions
	hasher  Hasher
	log     *zap.Logger
	metrics *metrics.Metrics
	proofs  *lru.Cache

	committed snapshot
	staged    [][]byte
	history   []snapshot
}

// NewTree returns an empty tree.
func NewTree(hasher Hasher, opts ...Option) (*Tree, error) {
	t := &Tree{
		hasher:    hasher,
		committed: snapshot{tree: NewPartialTree()},
	}
	for _, o := range opts {
		o(&t.opts)
	}

	t.log = t.opts.Logger
	if t.log == nil {
		t.log = zap.NewNop()
	}
	t.metrics = t.opts.Metrics

	if t.opts.ProofCacheSize > 0 {
		cache, err := lru.New(t.opts.ProofCacheSize)
		if err != nil {
			return nil, err
		}
		t.proofs = cache
	}
	return t, nil
}

// TreeFromLeaves returns a tree with leaves committed. The empty tree is the
// single entry in its history.
func TreeFromLeaves(hasher Hasher, leaves [][]byte, cfg TreeConfig, opts ...Option) (*Tree, error) {
	t, err := NewTree(hasher, opts...)
	if err != nil {
		return nil, err
	}
	if err = t.Append(leaves); err != nil {
		return nil, err
	}
	if err = t.Commit(cfg); err != nil {
		return nil, err
	}
	return t, nil
}

// Hasher returns the hasher the tree was created with.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Insert stages a single leaf hash.
func (t *Tree) Insert(leaf []byte) error {
	return t.Append([][]byte{leaf})
}

// Append stages leaf hashes in order. Nothing is staged if any of the hashes
// has the wrong size.
func (t *Tree) Append(leaves [][]byte) error {
	size := t.hasher.Size()
	for i, leaf := range leaves {
		if len(leaf) != size {
			return fmt.Errorf("%w: leaf %d has %d bytes, expected %d", ErrHashSize, i, len(leaf), size)
		}
	}
	for _, leaf := range leaves {
		t.staged = append(t.staged, bytes.Clone(leaf))
	}
	t.metrics.SetStaged(len(t.staged))
	return nil
}

// Commit folds the staged leaves into the committed tree. Committing with
// nothing staged does nothing, in particular it does not add a history entry.
//
// The configuration must be the one the committed tree was built with.
func (t *Tree) Commit(cfg TreeConfig) error {
	if len(t.staged) == 0 {
		return nil
	}
	start := time.Now()

	next, err := t.stagedTree(cfg)
	if err != nil {
		return err
	}

	t.history = append(t.history, t.committed)
	if t.opts.HistoryLimit > 0 && len(t.history) > t.opts.HistoryLimit {
		t.history = slices.Delete(t.history, 0, len(t.history)-t.opts.HistoryLimit)
	}
	t.committed = snapshot{
		leaves: append(slices.Clip(t.committed.leaves), t.staged...),
		tree:   next,
	}
	added := len(t.staged)
	t.staged = nil
	t.purgeProofs()

	t.metrics.ObserveCommit(len(t.committed.leaves), time.Since(start))
	t.log.Debug("committed",
		zap.Int("added", added),
		zap.Int("leaves", len(t.committed.leaves)),
		zap.String("root", ToHex(t.committed.tree.Root())),
		zap.Int("history", len(t.history)))
	return nil
}

// stagedTree returns the committed tree extended by the staged leaves. The
// committed tree is not modified.
func (t *Tree) stagedTree(cfg TreeConfig) (*PartialTree, error) {
	oldCount := uint64(len(t.committed.leaves))
	newCount := oldCount + uint64(len(t.staged))

	positions := make([]uint64, 0, len(t.staged))
	leaves := make(Layer, 0, len(t.staged))
	for i, leaf := range t.staged {
		positions = append(positions, oldCount+uint64(i))
		leaves = append(leaves, Node{Pos: oldCount + uint64(i), Hash: leaf})
	}

	// Every helper is the root of a complete subtree of old leaves, so the
	// committed tree holds it.
	helpers := ProofPositionsByLayer(positions, newCount)
	layers := make([]Layer, max(len(helpers), 1))
	for layer, required := range helpers {
		for _, pos := range required {
			hash, ok := t.committed.tree.Get(layer, pos)
			if !ok {
				return nil, fmt.Errorf("%w: layer %d position %d", ErrMissingCommitted, layer, pos)
			}
			layers[layer] = append(layers[layer], Node{Pos: pos, Hash: hash})
		}
	}
	layers[0] = append(layers[0], leaves...)

	diff, err := BuildPartialTree(t.hasher, layers, TreeDepth(newCount), cfg)
	if err != nil {
		return nil, err
	}
	next := t.committed.tree.Clone()
	next.MergeUnverified(diff)
	return next, nil
}

// Rollback restores the state that preceded the most recent commit and
// discards any staged leaves. It does nothing if there is no earlier state.
func (t *Tree) Rollback() {
	if len(t.history) == 0 {
		return
	}
	last := len(t.history) - 1
	t.committed = t.history[last]
	t.history[last] = snapshot{}
	t.history = t.history[:last]
	t.staged = nil
	t.purgeProofs()

	t.metrics.ObserveRollback(len(t.committed.leaves))
	t.log.Debug("rolled back",
		zap.Int("leaves", len(t.committed.leaves)),
		zap.String("root", ToHex(t.committed.tree.Root())),
		zap.Int("history", len(t.history)))
}

// Root returns the committed root, or nil for a tree with no committed leaves.
func (t *Tree) Root() []byte {
	return t.committed.tree.Root()
}

// RootHex is Root hex encoded, empty when there is no root.
func (t *Tree) RootHex() string {
	return ToHex(t.Root())
}

// UncommittedRoot returns the root the tree would have if the staged leaves
// were committed with cfg. It equals Root when nothing is staged.
func (t *Tree) UncommittedRoot(cfg TreeConfig) ([]byte, error) {
	if len(t.staged) == 0 {
		return t.Root(), nil
	}
	tree, err := t.stagedTree(cfg)
	if err != nil {
		return nil, err
	}
	return tree.Root(), nil
}

// UncommittedRootHex is UncommittedRoot hex encoded.
func (t *Tree) UncommittedRootHex(cfg TreeConfig) (string, error) {
	root, err := t.UncommittedRoot(cfg)
	if err != nil {
		return "", err
	}
	return ToHex(root), nil
}

// Leaves returns a copy of the committed leaves in order, nil when there are
// none.
func (t *Tree) Leaves() [][]byte {
	if len(t.committed.leaves) == 0 {
		return nil
	}
	leaves := make([][]byte, 0, len(t.committed.leaves))
	for _, leaf := range t.committed.leaves {
		leaves = append(leaves, bytes.Clone(leaf))
	}
	return leaves
}

// LeavesLen is the number of committed leaves.
func (t *Tree) LeavesLen() int {
	return len(t.committed.leaves)
}

// Depth is the depth of the committed tree.
func (t *Tree) Depth() int {
	return TreeDepth(uint64(len(t.committed.leaves)))
}

// StagedLen is the number of leaves waiting to be committed.
func (t *Tree) StagedLen() int {
	return len(t.staged)
}

// HistoryLen is the number of states Rollback can restore.
func (t *Tree) HistoryLen() int {
	return len(t.history)
}

// Layers returns the committed tree, leaves first. The node hashes are shared
// with the tree and must not be modified.
func (t *Tree) Layers() []Layer {
	return t.committed.tree.Layers()
}

// Proof returns the proof of inclusion of the committed leaves at
// leafPositions. The proof verifies against Root with LeavesLen as the leaf
// count.
func (t *Tree) Proof(leafPositions []uint64) (*Proof, error) {
	count := uint64(len(t.committed.leaves))
	for _, pos := range leafPositions {
		if pos >= count {
			return nil, fmt.Errorf("%w: position %d, leaf count %d", ErrLeafPositionOutOfRange, pos, count)
		}
	}

	var key string
	if t.proofs != nil {
		key = proofCacheKey(leafPositions)
		if cached, ok := t.proofs.Get(key); ok {
			t.metrics.ObserveProof(true)
			return cached.(*Proof), nil
		}
	}

	byLayer := ProofPositionsByLayer(leafPositions, count)
	n := 0
	for _, required := range byLayer {
		n += len(required)
	}
	hashes := make([][]byte, 0, n)
	for layer, required := range byLayer {
		for _, pos := range required {
			hash, ok := t.committed.tree.Get(layer, pos)
			if !ok {
				return nil, fmt.Errorf("%w: layer %d position %d", ErrMissingCommitted, layer, pos)
			}
			hashes = append(hashes, hash)
		}
	}
	proof := &Proof{hasher: t.hasher, hashes: hashes}

	if t.proofs != nil {
		t.proofs.Add(key, proof)
	}
	t.metrics.ObserveProof(false)
	return proof, nil
}

func (t *Tree) purgeProofs() {
	if t.proofs != nil {
		t.proofs.Purge()
	}
}

func proofCacheKey(positions []uint64) string {
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	return fmt.Sprint(slices.Compact(sorted))
}

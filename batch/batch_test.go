package batch

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-merkletree/merkle"
	"github.com/forestrie/go-merkletree/merkletesting"
	"github.com/forestrie/go-merkletree/metrics"
)

func TestProveAllVerifyAll(t *testing.T) {
	tc := merkletesting.NewTestContext(t, merkletesting.TestConfig{Seed: 3})
	cfg := merkle.TreeConfig{SortedPairs: true}
	leaves := tc.RandomLeaves(100)
	tree, err := merkle.TreeFromLeaves(tc.Hasher, leaves, cfg, merkle.WithProofCache(16))
	require.NoError(t, err)

	sets := make([][]uint64, 0, 40)
	for i := 0; i < 40; i++ {
		sets = append(sets, tc.RandomPositions(uint64(len(leaves))))
	}

	proofs, err := ProveAll(context.Background(), tree, sets, WithConcurrency(4), merkle.WithLogger(tc.Log))
	require.NoError(t, err)
	require.Len(t, proofs, len(sets))

	jobs := make([]Job, 0, len(sets))
	for i, set := range sets {
		jobs = append(jobs, Job{
			Proof:      proofs[i],
			Root:       tree.Root(),
			Positions:  set,
			LeafHashes: merkletesting.Select(leaves, set),
			LeafCount:  uint64(len(leaves)),
		})
	}
	// spoil every third job
	for i := 0; i < len(jobs); i += 3 {
		jobs[i].Root = tc.Hasher.Hash([]byte("not the root"))
	}

	m := metrics.New("")
	results, err := VerifyAll(context.Background(), jobs, cfg, WithConcurrency(3), merkle.WithMetrics(m))
	require.NoError(t, err)
	valid := 0
	for i, ok := range results {
		assert.Equal(t, i%3 != 0, ok, "job %d", i)
		if ok {
			valid++
		}
	}
	assert.Equal(t, float64(valid), testutil.ToFloat64(m.Verifications.WithLabelValues("valid")))
	assert.Equal(t, float64(len(jobs)-valid), testutil.ToFloat64(m.Verifications.WithLabelValues("invalid")))
}

func TestProveAll_Error(t *testing.T) {
	tc := merkletesting.NewTestContext(t, merkletesting.TestConfig{})
	tree, err := merkle.TreeFromLeaves(tc.Hasher, tc.LetterLeaves(4), merkle.TreeConfig{})
	require.NoError(t, err)

	_, err = ProveAll(context.Background(), tree, [][]uint64{{0}, {9}, {1, 2}})
	assert.ErrorIs(t, err, merkle.ErrLeafPositionOutOfRange)
}

func TestCancelled(t *testing.T) {
	tc := merkletesting.NewTestContext(t, merkletesting.TestConfig{})
	tree, err := merkle.TreeFromLeaves(tc.Hasher, tc.LetterLeaves(4), merkle.TreeConfig{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ProveAll(ctx, tree, [][]uint64{{0}, {1}})
	assert.ErrorIs(t, err, context.Canceled)

	proof, err := tree.Proof([]uint64{0})
	require.NoError(t, err)
	_, err = VerifyAll(ctx, []Job{{Proof: proof, Root: tree.Root(), Positions: []uint64{0}, LeafHashes: tc.LetterLeaves(1), LeafCount: 4}}, merkle.TreeConfig{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOptions(t *testing.T) {
	o := newOptions(nil)
	assert.Positive(t, o.Concurrency)
	assert.NotNil(t, o.Logger)

	o = newOptions([]merkle.Option{WithConcurrency(2), merkle.WithHistoryLimit(5)})
	assert.Equal(t, 2, o.Concurrency)
	assert.Equal(t, 5, o.HistoryLimit)
}

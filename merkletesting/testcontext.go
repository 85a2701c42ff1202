// Package merkletesting provides fixtures shared by the tests of the tree,
// receipt, checkpoint and batch packages.
package merkletesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	mathrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/forestrie/go-merkletree/algorithms"
)

// Letters are the leaf values the fixed test vectors are computed over. The
// first n values are hashed to produce the leaves of an n leaf tree.
var Letters = []string{"a", "b", "c", "d", "e", "f", "g", "h", "k", "l", "m", "o", "p", "r", "s"}

type TestConfig struct {
	// Algorithm selects the hasher by name, defaults to sha256.
	Algorithm string
	// We seed the RNG with Seed. It is normal to force it to some fixed value
	// so that the generated data is the same from run to run.
	Seed int64
}

type TestContext struct {
	Log    *zap.Logger
	Hasher *algorithms.Algorithm
	T      *testing.T
	rng    *mathrand.Rand
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	name := cfg.Algorithm
	if name == "" {
		name = algorithms.NameSHA256
	}
	hasher, err := algorithms.ByName(name)
	require.NoError(t, err)

	return TestContext{
		Log:    zaptest.NewLogger(t),
		Hasher: hasher,
		T:      t,
		rng:    mathrand.New(mathrand.NewSource(cfg.Seed)),
	}
}

// LeafHashes hashes each value to produce a leaf.
func (c *TestContext) LeafHashes(values ...string) [][]byte {
	leaves := make([][]byte, 0, len(values))
	for _, v := range values {
		leaves = append(leaves, c.Hasher.Hash([]byte(v)))
	}
	return leaves
}

// LetterLeaves returns the leaves for the first n Letters.
func (c *TestContext) LetterLeaves(n int) [][]byte {
	require.LessOrEqual(c.T, n, len(Letters))
	return c.LeafHashes(Letters[:n]...)
}

// RandomLeaves returns n leaves derived from the seeded RNG.
func (c *TestContext) RandomLeaves(n int) [][]byte {
	leaves := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		value := make([]byte, 16)
		c.rng.Read(value)
		leaves = append(leaves, c.Hasher.Hash(value))
	}
	return leaves
}

// RandomPositions returns a non empty, ascending set of distinct positions
// below n. It returns nil when n is 0.
func (c *TestContext) RandomPositions(n uint64) []uint64 {
	if n == 0 {
		return nil
	}
	var positions []uint64
	for pos := uint64(0); pos < n; pos++ {
		if c.rng.Intn(2) == 0 {
			positions = append(positions, pos)
		}
	}
	if len(positions) == 0 {
		positions = append(positions, uint64(c.rng.Int63n(int64(n))))
	}
	return positions
}

// Subsets calls fn for every non empty subset of the positions below n, each
// ascending. n must be small, there are 2^n - 1 subsets.
func Subsets(n int, fn func(positions []uint64)) {
	for mask := uint64(1); mask < uint64(1)<<n; mask++ {
		positions := make([]uint64, 0, n)
		for pos := 0; pos < n; pos++ {
			if mask&(uint64(1)<<pos) != 0 {
				positions = append(positions, uint64(pos))
			}
		}
		fn(positions)
	}
}

// Select returns the leaves at positions.
func Select(leaves [][]byte, positions []uint64) [][]byte {
	selected := make([][]byte, 0, len(positions))
	for _, pos := range positions {
		selected = append(selected, leaves[pos])
	}
	return selected
}

func GenerateECKey(t *testing.T, curve elliptic.Curve) *ecdsa.PrivateKey {
	privateKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return privateKey
}

// Package algorithms provides the hash functions trees are built with.
//
// Every algorithm carries a lone node up unchanged: ConcatAndHash(left, nil)
// returns left.
package algorithms

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"slices"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

const (
	NameSHA256    = "sha256"
	NameKeccak256 = "keccak256"
	NameBlake3    = "blake3"
)

var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Algorithm adapts a hash.Hash constructor to the tree hashing interface.
type Algorithm struct {
	name    string
	newHash func() hash.Hash
	size    int
}

// New creates an algorithm from a hash constructor. Each call to Hash or
// ConcatAndHash uses a fresh hash.Hash so the algorithm is safe for concurrent
// use.
func New(name string, newHash func() hash.Hash) *Algorithm {
	return &Algorithm{name: name, newHash: newHash, size: newHash().Size()}
}

func SHA256() *Algorithm {
	return New(NameSHA256, sha256.New)
}

// Keccak256 is the legacy Keccak variant used by Ethereum, not FIPS-202
// SHA3-256.
func Keccak256() *Algorithm {
	return New(NameKeccak256, sha3.NewLegacyKeccak256)
}

func Blake3() *Algorithm {
	return New(NameBlake3, func() hash.Hash { return blake3.New() })
}

// ByName returns the algorithm registered under name.
func ByName(name string) (*Algorithm, error) {
	switch name {
	case NameSHA256:
		return SHA256(), nil
	case NameKeccak256:
		return Keccak256(), nil
	case NameBlake3:
		return Blake3(), nil
	}
	return nil, fmt.Errorf("%w: %q, expected one of %v", ErrUnknownAlgorithm, name, Names())
}

// Names lists the algorithms ByName knows, sorted.
func Names() []string {
	names := []string{NameSHA256, NameKeccak256, NameBlake3}
	slices.Sort(names)
	return names
}

func (a *Algorithm) Name() string {
	return a.name
}

func (a *Algorithm) Size() int {
	return a.size
}

func (a *Algorithm) Hash(data []byte) []byte {
	h := a.newHash()
	h.Write(data)
	return h.Sum(nil)
}

func (a *Algorithm) ConcatAndHash(left, right []byte) []byte {
	if right == nil {
		return left
	}
	h := a.newHash()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Package receipt carries a multi leaf proof together with everything a
// verifier needs besides the root: the leaf positions and hashes, the tree
// size, and the hashing configuration.
//
// Receipts are CBOR maps with small integer keys, encoded deterministically:
//
//	{
//	  1: tstr,   algorithm name
//	  2: bool,   sorted pairs
//	  3: uint,   leaf count
//	  4: [uint], leaf positions
//	  5: [bstr], leaf hashes
//	  6: bstr,   proof hashes, concatenated
//	}
package receipt

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-merkletree/algorithms"
	"github.com/forestrie/go-merkletree/cborcodec"
	"github.com/forestrie/go-merkletree/merkle"
)

var (
	ErrReceiptMalformed  = errors.New("receipt malformed")
	ErrAlgorithmMismatch = errors.New("the hasher does not match the receipt algorithm")
)

type Receipt struct {
	Algorithm   string   `cbor:"1,keyasint"`
	SortedPairs bool     `cbor:"2,keyasint"`
	LeafCount   uint64   `cbor:"3,keyasint"`
	Positions   []uint64 `cbor:"4,keyasint"`
	LeafHashes  [][]byte `cbor:"5,keyasint"`
	Proof       []byte   `cbor:"6,keyasint"`
}

// New creates a receipt for the committed leaves of tree at positions.
// algorithm names the tree hasher, see algorithms.ByName.
func New(tree *merkle.Tree, positions []uint64, cfg merkle.TreeConfig, algorithm string) (*Receipt, error) {
	proof, err := tree.Proof(positions)
	if err != nil {
		return nil, err
	}
	leaves := tree.Leaves()
	leafHashes := make([][]byte, 0, len(positions))
	for _, pos := range positions {
		leafHashes = append(leafHashes, leaves[pos])
	}
	return &Receipt{
		Algorithm:   algorithm,
		SortedPairs: cfg.SortedPairs,
		LeafCount:   uint64(len(leaves)),
		Positions:   append([]uint64{}, positions...),
		LeafHashes:  leafHashes,
		Proof:       proof.Bytes(),
	}, nil
}

func (r *Receipt) Config() merkle.TreeConfig {
	return merkle.TreeConfig{SortedPairs: r.SortedPairs}
}

// Hasher resolves the receipt algorithm.
func (r *Receipt) Hasher() (*algorithms.Algorithm, error) {
	return algorithms.ByName(r.Algorithm)
}

func (r *Receipt) Marshal(codec cborcodec.Codec) ([]byte, error) {
	return codec.MarshalCBOR(r)
}

// Unmarshal decodes a receipt and checks it is well formed. It does not check
// the proof.
func Unmarshal(codec cborcodec.Codec, data []byte) (*Receipt, error) {
	var r Receipt
	if err := codec.UnmarshalInto(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptMalformed, err)
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Receipt) check() error {
	if len(r.Positions) == 0 {
		return fmt.Errorf("%w: no leaf positions", ErrReceiptMalformed)
	}
	if len(r.Positions) != len(r.LeafHashes) {
		return fmt.Errorf("%w: %d positions, %d leaf hashes", ErrReceiptMalformed, len(r.Positions), len(r.LeafHashes))
	}
	return nil
}

// Verify reports whether the receipt proves its leaves against root. A
// receipt that can not be checked at all, because it is malformed or hasher
// is of the wrong size, is an error. A proof that does not lead to root is
// not.
func (r *Receipt) Verify(hasher merkle.Hasher, root []byte) (bool, error) {
	if err := r.check(); err != nil {
		return false, err
	}
	if named, ok := hasher.(*algorithms.Algorithm); ok && named.Name() != r.Algorithm {
		return false, fmt.Errorf("%w: %s, receipt uses %s", ErrAlgorithmMismatch, named.Name(), r.Algorithm)
	}
	for i, leaf := range r.LeafHashes {
		if len(leaf) != hasher.Size() {
			return false, fmt.Errorf("%w: %w: leaf hash %d is %d bytes, expected %d",
				ErrReceiptMalformed, merkle.ErrHashSize, i, len(leaf), hasher.Size())
		}
	}
	proof, err := merkle.ProofFromBytes(hasher, r.Proof)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrReceiptMalformed, err)
	}
	return proof.Verify(root, r.Positions, r.LeafHashes, r.LeafCount, r.Config()), nil
}

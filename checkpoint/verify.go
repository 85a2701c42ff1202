package checkpoint

import (
	"crypto"
	"fmt"

	"github.com/forestrie/go-merkletree/cborcodec"
	"github.com/forestrie/go-merkletree/merkle"
)

// DecodeSignedState decodes the TreeState from a signed message. The returned
// state has no root and will not verify as it is, see VerifySignedState.
func DecodeSignedState(codec cborcodec.Codec, msg []byte) (*Sign1Message, TreeState, error) {
	signed, err := NewSign1MessageFromCBOR(msg)
	if err != nil {
		return nil, TreeState{}, err
	}
	var unverifiedState TreeState
	if err = codec.UnmarshalInto(signed.Payload, &unverifiedState); err != nil {
		return nil, TreeState{}, err
	}
	return signed, unverifiedState, nil
}

// VerifySignedState applies the provided state to the signed message and
// verifies the result.
//
// Verification of a signed state is a 3 step process:
//  1. Use DecodeSignedState to obtain the TreeState from the signed message.
//     This state will not verify as the root has been removed after signing.
//  2. Use TreeState.LeafCount to obtain the root of the tree at that size.
//  3. Set TreeState.Root to the derived root and call this function to
//     complete the verification.
func VerifySignedState(
	codec cborcodec.Codec, publicKey crypto.PublicKey, signed *Sign1Message, unverifiedState TreeState, external []byte,
) error {
	if unverifiedState.Root == nil {
		return ErrRootMissing
	}
	payload, err := codec.MarshalCBOR(unverifiedState)
	if err != nil {
		return err
	}
	signed.Payload = payload
	return signed.VerifyWithPublicKey(publicKey, external)
}

// VerifyTree checks a signed state against the committed state of tree. The
// tree must be at the signed size.
func VerifyTree(
	codec cborcodec.Codec, publicKey crypto.PublicKey, msg []byte, tree *merkle.Tree, external []byte,
) (TreeState, error) {
	signed, state, err := DecodeSignedState(codec, msg)
	if err != nil {
		return TreeState{}, err
	}
	if state.LeafCount != uint64(tree.LeavesLen()) {
		return TreeState{}, fmt.Errorf(
			"%w: signed %d, tree has %d", ErrLeafCountMismatch, state.LeafCount, tree.LeavesLen())
	}
	state.Root = tree.Root()
	if err = VerifySignedState(codec, publicKey, signed, state, external); err != nil {
		return TreeState{}, err
	}
	return state, nil
}

package checkpoint

import (
	"crypto/rand"

	"github.com/veraison/go-cose"

	"github.com/forestrie/go-merkletree/cborcodec"
)

// Signer produces signatures over tree states. The signature commits to a
// tree state, and should only be created and published after checking the
// tree is an extension of the last signed state.
type Signer struct {
	issuer    string
	cborCodec cborcodec.Codec
}

func NewSigner(issuer string, cborCodec cborcodec.Codec) Signer {
	return Signer{
		issuer:    issuer,
		cborCodec: cborCodec,
	}
}

// issuedAt is the state timestamp in whole seconds, the unit of the iat claim.
func issuedAt(state TreeState) uint64 {
	if state.Timestamp <= 0 {
		return 0
	}
	return uint64(state.Timestamp / 1000)
}

// Sign1 signs state and returns the encoded COSE_Sign1 message. The root is
// removed from the payload after signing so that verifiers are forced to
// recompute it from the tree, see VerifySignedState.
func (s Signer) Sign1(
	coseSigner cose.Signer, keyIdentifier string, subject string, state TreeState, external []byte,
) ([]byte, error) {
	if state.Root == nil {
		return nil, ErrRootMissing
	}
	payload, err := s.cborCodec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: coseSigner.Algorithm(),
				cose.HeaderLabelKeyID:     []byte(keyIdentifier),
				HeaderLabelCWTClaims:      newCWTClaims(s.issuer, subject, issuedAt(state)),
			},
		},
		Payload: payload,
	}
	if err = msg.Sign(rand.Reader, external, coseSigner); err != nil {
		return nil, err
	}

	state.Root = nil
	if msg.Payload, err = s.cborCodec.MarshalCBOR(state); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

package checkpoint

import (
	"crypto/elliptic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/go-cose"

	"github.com/forestrie/go-merkletree/algorithms"
	"github.com/forestrie/go-merkletree/cborcodec"
	"github.com/forestrie/go-merkletree/merkle"
	"github.com/forestrie/go-merkletree/merkletesting"
)

func testNewSigner(t *testing.T, issuer string) Signer {
	codec, err := cborcodec.New()
	require.NoError(t, err)
	return NewSigner(issuer, codec)
}

func TestSigner_Sign1(t *testing.T) {
	type fields struct {
		issuer string
		kid    string
	}
	type args struct {
		subject  string
		state    TreeState
		external []byte
	}
	tests := []struct {
		name    string
		fields  fields
		args    args
		wantErr error
	}{
		{
			name:   "common case P-256 & ES256",
			fields: fields{issuer: "synsation.org", kid: "tree attestation key 1"},
			args: args{
				subject: "merkletree-attestor",
				state: TreeState{
					TreeID:    uuid.New(),
					LeafCount: 1,
					Root:      []byte{1},
					Timestamp: 1234,
					Algorithm: algorithms.NameSHA256,
				},
			},
		},
		{
			name:   "external data",
			fields: fields{issuer: "synsation.org", kid: "tree attestation key 1"},
			args: args{
				subject:  "merkletree-attestor",
				state:    TreeState{LeafCount: 9, Root: []byte{2, 3}, SortedPairs: true},
				external: []byte("bound to this"),
			},
		},
		{
			name:    "root missing",
			fields:  fields{issuer: "synsation.org"},
			args:    args{state: TreeState{LeafCount: 1}},
			wantErr: ErrRootMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := merkletesting.GenerateECKey(t, elliptic.P256())
			rs := testNewSigner(t, tt.fields.issuer)
			coseSigner, err := cose.NewSigner(cose.AlgorithmES256, key)
			require.NoError(t, err)

			msg, err := rs.Sign1(coseSigner, tt.fields.kid, tt.args.subject, tt.args.state, tt.args.external)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			signed, state, err := DecodeSignedState(rs.cborCodec, msg)
			require.NoError(t, err)
			assert.Nil(t, state.Root)
			assert.Equal(t, tt.args.state.LeafCount, state.LeafCount)
			assert.Equal(t, tt.args.state.TreeID, state.TreeID)

			claims, err := signed.CWTClaims()
			require.NoError(t, err)
			assert.Equal(t, CWTClaims{
				Issuer:   tt.fields.issuer,
				Subject:  tt.args.subject,
				IssuedAt: uint64(tt.args.state.Timestamp / 1000),
			}, claims)
			kid, err := signed.KeyID()
			require.NoError(t, err)
			assert.Equal(t, tt.fields.kid, kid)

			// verification must fail if we haven't put the root in
			err = VerifySignedState(rs.cborCodec, &key.PublicKey, signed, state, tt.args.external)
			assert.ErrorIs(t, err, ErrRootMissing)

			// nor does the wrong root verify
			state.Root = []byte{0xff}
			err = VerifySignedState(rs.cborCodec, &key.PublicKey, signed, state, tt.args.external)
			assert.Error(t, err)

			// Usually the root is recomputed from the tree at the signed size
			state.Root = tt.args.state.Root
			err = VerifySignedState(rs.cborCodec, &key.PublicKey, signed, state, tt.args.external)
			assert.NoError(t, err)

			other := merkletesting.GenerateECKey(t, elliptic.P256())
			err = VerifySignedState(rs.cborCodec, &other.PublicKey, signed, state, tt.args.external)
			assert.Error(t, err)
		})
	}
}

func TestVerifyTree(t *testing.T) {
	tc := merkletesting.NewTestContext(t, merkletesting.TestConfig{})
	cfg := merkle.TreeConfig{}
	tree, err := merkle.TreeFromLeaves(tc.Hasher, tc.LetterLeaves(6), cfg)
	require.NoError(t, err)

	key := merkletesting.GenerateECKey(t, elliptic.P256())
	coseSigner, err := cose.NewSigner(cose.AlgorithmES256, key)
	require.NoError(t, err)
	rs := testNewSigner(t, "synsation.org")

	treeID := uuid.New()
	now := time.UnixMilli(1700000000000)
	msg, err := rs.Sign1(coseSigner, "kid", "tree", NewTreeState(treeID, tree, algorithms.NameSHA256, cfg, now), nil)
	require.NoError(t, err)

	state, err := VerifyTree(rs.cborCodec, &key.PublicKey, msg, tree, nil)
	require.NoError(t, err)
	assert.Equal(t, treeID, state.TreeID)
	assert.Equal(t, merkletesting.SHA256Vectors.Root, merkle.ToHex(state.Root))
	assert.Equal(t, now.UnixMilli(), state.Timestamp)
	assert.Equal(t, cfg, state.Config())

	// the tree grew, the signed state is for an older size
	require.NoError(t, tree.Insert(tc.Hasher.Hash([]byte("g"))))
	require.NoError(t, tree.Commit(cfg))
	_, err = VerifyTree(rs.cborCodec, &key.PublicKey, msg, tree, nil)
	assert.ErrorIs(t, err, ErrLeafCountMismatch)

	// same size, different leaves
	other, err := merkle.TreeFromLeaves(tc.Hasher, tc.LeafHashes("u", "v", "w", "x", "y", "z"), cfg)
	require.NoError(t, err)
	_, err = VerifyTree(rs.cborCodec, &key.PublicKey, msg, other, nil)
	assert.Error(t, err)
}

func TestDecodeSignedState_Malformed(t *testing.T) {
	codec, err := cborcodec.New()
	require.NoError(t, err)
	_, _, err = DecodeSignedState(codec, []byte("not cose"))
	assert.Error(t, err)
}

func TestSign1Message_ValidateClaims(t *testing.T) {
	key := merkletesting.GenerateECKey(t, elliptic.P256())
	coseSigner, err := cose.NewSigner(cose.AlgorithmES256, key)
	require.NoError(t, err)
	rs := testNewSigner(t, "synsation.org")
	now := time.UnixMilli(1700000000000)

	sign := func(timestamp time.Time) *Sign1Message {
		state := TreeState{LeafCount: 1, Root: []byte{1}, Timestamp: timestamp.UnixMilli()}
		msg, err := rs.Sign1(coseSigner, "kid", "tree", state, nil)
		require.NoError(t, err)
		signed, _, err := DecodeSignedState(rs.cborCodec, msg)
		require.NoError(t, err)
		return signed
	}

	signed := sign(now)
	claims, err := signed.CWTClaims()
	require.NoError(t, err)
	assert.Equal(t, uint64(now.Unix()), claims.IssuedAt)

	assert.NoError(t, signed.ValidateClaims("synsation.org", now))
	assert.NoError(t, signed.ValidateClaims("synsation.org", now.Add(time.Hour)))
	assert.ErrorIs(t, signed.ValidateClaims("someone.else", now), ErrCWTClaimsInvalid)

	// issued after the time it is checked at
	assert.ErrorIs(t, sign(now.Add(time.Hour)).ValidateClaims("synsation.org", now), ErrCWTClaimsInvalid)

	// no timestamp, no iat claim to check
	assert.NoError(t, sign(time.UnixMilli(0)).ValidateClaims("synsation.org", now))
}

package checkpoint

import (
	"crypto"
	"fmt"
	"time"

	"github.com/ldclabs/cose/go/cwt"
	"github.com/ldclabs/cose/go/key"
	"github.com/veraison/go-cose"
)

/**
 * COSE Sign1 ergonomics, see RFC 9052 and, for the claims header, RFC 9597
 */

const (
	HeaderLabelCWTClaims int64 = 15
)

// CWTClaims are the claims carried in the protected header of a signed tree
// state. IssuedAt is in seconds since the epoch, zero when absent.
type CWTClaims struct {
	Issuer   string
	Subject  string
	IssuedAt uint64
}

// Sign1Message extends cose.Sign1Message with accessors for the headers a
// signed tree state carries.
type Sign1Message struct {
	*cose.Sign1Message
}

// NewSign1MessageFromCBOR decodes a cbor encoded COSE_Sign1 message.
func NewSign1MessageFromCBOR(data []byte) (*Sign1Message, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return &Sign1Message{Sign1Message: &msg}, nil
}

// newCWTClaims creates the claims for the protected header. issuedAt is
// omitted when zero.
func newCWTClaims(issuer, subject string, issuedAt uint64) cwt.ClaimsMap {
	claims := cwt.ClaimsMap{
		cwt.KeyIss: issuer,
		cwt.KeySub: subject,
	}
	if issuedAt > 0 {
		claims[cwt.KeyIat] = issuedAt
	}
	return claims
}

func (m *Sign1Message) valueFromProtectedHeader(label int64) (any, error) {
	value, ok := m.Headers.Protected[label]
	if !ok {
		return nil, fmt.Errorf("%w: label %d", ErrNoProtectedHeader, label)
	}
	return value, nil
}

// KeyID returns the kid from the protected header.
func (m *Sign1Message) KeyID() (string, error) {
	kid, err := m.valueFromProtectedHeader(cose.HeaderLabelKeyID)
	if err != nil {
		return "", err
	}
	kidBytes, ok := kid.([]byte)
	if !ok {
		return "", fmt.Errorf("%w: kid is %T", ErrUnexpectedHeader, kid)
	}
	return string(kidBytes), nil
}

// claimsMap returns the claims from the protected header. Claims with labels
// that are not integers are dropped.
func (m *Sign1Message) claimsMap() (cwt.ClaimsMap, error) {
	raw, err := m.valueFromProtectedHeader(HeaderLabelCWTClaims)
	if err != nil {
		return nil, err
	}
	decoded, ok := raw.(map[any]any)
	if !ok {
		return nil, fmt.Errorf("%w: cwt claims are %T", ErrUnexpectedHeader, raw)
	}
	claims := make(cwt.ClaimsMap, len(decoded))
	for k, v := range decoded {
		if label, ok := intLabel(k); ok {
			claims[key.IntKey(label)] = v
		}
	}
	return claims, nil
}

// CWTClaims returns the issuer, subject and issue time from the protected
// header.
func (m *Sign1Message) CWTClaims() (CWTClaims, error) {
	claims, err := m.claimsMap()
	if err != nil {
		return CWTClaims{}, err
	}
	if !claims.Has(cwt.KeyIss) {
		return CWTClaims{}, ErrCWTClaimsNoIssuer
	}
	if !claims.Has(cwt.KeySub) {
		return CWTClaims{}, ErrCWTClaimsNoSubject
	}
	issuer, err := claims.GetString(cwt.KeyIss)
	if err != nil {
		return CWTClaims{}, fmt.Errorf("%w: %v", ErrCWTClaimsNotStrings, err)
	}
	subject, err := claims.GetString(cwt.KeySub)
	if err != nil {
		return CWTClaims{}, fmt.Errorf("%w: %v", ErrCWTClaimsNotStrings, err)
	}
	issuedAt, err := claims.GetUint(cwt.KeyIat)
	if err != nil {
		return CWTClaims{}, fmt.Errorf("%w: iat: %v", ErrUnexpectedHeader, err)
	}
	return CWTClaims{Issuer: issuer, Subject: subject, IssuedAt: issuedAt}, nil
}

// ValidateClaims checks the claims were made by issuer and, when an issue
// time is present, that it is not after now.
func (m *Sign1Message) ValidateClaims(issuer string, now time.Time) error {
	claims, err := m.claimsMap()
	if err != nil {
		return err
	}
	validator, err := cwt.NewValidator(&cwt.ValidatorOpts{
		ExpectedIssuer:         issuer,
		AllowMissingExpiration: true,
		ExpectIssuedInThePast:  true,
		ClockSkew:              time.Minute,
		FixedNow:               now,
	})
	if err != nil {
		return err
	}
	if err = validator.ValidateMap(claims); err != nil {
		return fmt.Errorf("%w: %v", ErrCWTClaimsInvalid, err)
	}
	return nil
}

// intLabel normalises a decoded integer map key. Positive integers may decode
// as either signed or unsigned depending on the decoder options.
func intLabel(k any) (int64, bool) {
	switch v := k.(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case int:
		return int64(v), true
	}
	return 0, false
}

// VerifyWithPublicKey verifies the message signature with publicKey, using the
// algorithm from the protected header.
func (m *Sign1Message) VerifyWithPublicKey(publicKey crypto.PublicKey, external []byte) error {
	algorithm, err := m.Headers.Protected.Algorithm()
	if err != nil {
		return err
	}
	verifier, err := cose.NewVerifier(algorithm, publicKey)
	if err != nil {
		return err
	}
	return m.Verify(external, verifier)
}

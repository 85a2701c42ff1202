package checkpoint

import "errors"

var (
	ErrRootMissing         = errors.New("the root field of a tree state was nil when it should have been provided")
	ErrLeafCountMismatch   = errors.New("the signed leaf count does not match the tree")
	ErrNoProtectedHeader   = errors.New("protected header value not present")
	ErrUnexpectedHeader    = errors.New("protected header value has an unexpected type")
	ErrCWTClaimsNoIssuer   = errors.New("cwt claims do not include an issuer")
	ErrCWTClaimsNoSubject  = errors.New("cwt claims do not include a subject")
	ErrCWTClaimsNotStrings = errors.New("cwt issuer and subject must be strings")
	ErrCWTClaimsInvalid    = errors.New("cwt claims failed validation")
)

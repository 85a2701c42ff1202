package merkle

import "errors"

var (
	ErrMismatchedLeafCounts   = errors.New("the number of leaf positions does not match the number of leaf hashes")
	ErrInsufficientNodes      = errors.New("not enough nodes to compute the next layer of the tree")
	ErrMalformedProof         = errors.New("malformed proof")
	ErrLeafPositionOutOfRange = errors.New("leaf position is not below the leaf count")
	ErrDuplicateLeafPosition  = errors.New("leaf position occurs more than once")
	ErrHashSize               = errors.New("hash length does not match the hasher digest size")
)

var (
	ErrDuplicateNode    = errors.New("two nodes share the same position on a layer")
	ErrLayerAboveRoot   = errors.New("nodes were supplied for a layer above the root")
	ErrMissingCommitted = errors.New("a node required from the committed tree is missing")
)

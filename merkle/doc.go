// Package merkle builds binary hash trees over an ordered list of leaf hashes,
// produces compact proofs of inclusion for arbitrary subsets of those leaves,
// and verifies such proofs against a known root.
//
// Positions are counted per layer. Layer 0 holds the leaves, the last layer
// holds the single root node. A node at position p on layer i has its parent
// at position p/2 on layer i+1 and its sibling at p^1.
//
// For six leaves the layers look like this:
//
//	3               0
//	            /       \
//	2         0           1
//	        /   \         |
//	1     0       1       2
//	     / \     / \     / \
//	0   0   1   2   3   4   5
//
// Position 2 on layer 2 has no right sibling. It is carried up alone, and how
// it is combined is left to the Hasher (the algorithms in this module return
// it unchanged).
//
// A proof is the ordered list of sibling hashes a verifier cannot compute
// from the leaves it already holds, bottom layer first and left to right
// within a layer. The positions of those hashes are not encoded. They are
// recomputed from the proven leaf positions and the total leaf count, see
// ProofPositionsByLayer.
//
// Tree applies additions in two phases. Insert and Append stage leaves, Commit
// folds them into the committed tree by rehashing only the branches they
// touch, and Rollback restores the state prior to the most recent commit.
package merkle

package merkle

import (
	"crypto/subtle"
	"fmt"
)

// InclusionProof is the sequence of sibling hashes, bottom-up, needed to
// recompute the root from a single leaf hash, at a fixed tree size.
type InclusionProof struct {
	LeafIndex LeafIndex
	TreeSize  uint64
	Hashes    [][]byte
}

// ConsistencyProof is the sequence of hashes, bottom-up from the old
// root, needed to show that the tree at FirstSize is a prefix of the
// tree at SecondSize.
type ConsistencyProof struct {
	FirstSize  uint64
	SecondSize uint64
	Hashes     [][]byte
}

// RootFromInclusionProof recomputes the root hash of a tree of treeSize
// leaves given a leaf's hash and its inclusion proof hashes, replaying
// the same walk InclusionProofIndices would have recorded.
func RootFromInclusionProof(newHash HashFunc, leaf LeafIndex, treeSize uint64, leafHash []byte, proof [][]byte) ([]byte, error) {
	x := leaf.ToInternal()
	root := RootIndex(treeSize)
	cur := leafHash
	i := 0
	for x != root {
		if i >= len(proof) {
			return nil, fmt.Errorf("merkle: inclusion proof too short: need more than %d hashes", len(proof))
		}
		if IsLeft(x) {
			cur = ParentHash(newHash, cur, proof[i])
		} else {
			cur = ParentHash(newHash, proof[i], cur)
		}
		i++
		x = Parent(x)
	}
	if i != len(proof) {
		return nil, fmt.Errorf("merkle: inclusion proof too long: %d unused hashes", len(proof)-i)
	}
	return cur, nil
}

// VerifyInclusion checks that leafHash is included at leaf in a tree of
// treeSize leaves with the given root, using a constant-time comparison
// of the recomputed root.
func VerifyInclusion(newHash HashFunc, root []byte, leaf LeafIndex, treeSize uint64, leafHash []byte, proof [][]byte) error {
	if uint64(leaf) >= treeSize {
		return fmt.Errorf("merkle: leaf index %d out of range for tree size %d", leaf, treeSize)
	}
	got, err := RootFromInclusionProof(newHash, leaf, treeSize, leafHash, proof)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(got, root) != 1 {
		return fmt.Errorf("merkle: inclusion proof did not recompute the expected root")
	}
	return nil
}

// RootFromConsistencyProof recomputes the SecondSize root given the
// already-known FirstSize root and a consistency proof, by replaying
// the same RFC 6962 §2.1.2 SUBPROOF(m, D[n], b) recursion
// ConsistencyProofIndices used to select the proof's node indices (see
// its doc comment for why a plain climb between root indices is
// wrong). subProofHash consumes the supplied hashes in exactly the
// order subProofIndices produced them, combining each with ParentHash
// according to which side of a split it falls on, and seeds the
// recursion's base case with oldRoot wherever the old tree's full leaf
// range is still trusted input rather than proof material.
func RootFromConsistencyProof(newHash HashFunc, oldSize, newSize uint64, oldRoot []byte, proof [][]byte) ([]byte, error) {
	if oldSize == 0 {
		return nil, fmt.Errorf("merkle: consistency proof from tree size 0 is undefined")
	}
	if oldSize > newSize {
		return nil, fmt.Errorf("merkle: old tree size %d exceeds new tree size %d", oldSize, newSize)
	}
	if oldSize == newSize {
		if len(proof) != 0 {
			return nil, fmt.Errorf("merkle: consistency proof for equal sizes must be empty")
		}
		return oldRoot, nil
	}
	i := 0
	root, err := subProofHash(newHash, oldRoot, proof, &i, oldSize, newSize, true)
	if err != nil {
		return nil, err
	}
	if i != len(proof) {
		return nil, fmt.Errorf("merkle: consistency proof has %d unused hashes", len(proof)-i)
	}
	return root, nil
}

// subProofHash mirrors subProofIndices' recursion, reconstructing the
// hash of D[first:first+size) (first is implicit: the recursion never
// needs it, only relative sizes) instead of collecting indices.
func subProofHash(newHash HashFunc, oldRoot []byte, proof [][]byte, i *int, m, size uint64, haveRoot bool) ([]byte, error) {
	if m == size {
		if haveRoot {
			return oldRoot, nil
		}
		return nextProofHash(proof, i)
	}
	k := largestPowerOfTwoBelow(size)
	if m <= k {
		left, err := subProofHash(newHash, oldRoot, proof, i, m, k, haveRoot)
		if err != nil {
			return nil, err
		}
		right, err := nextProofHash(proof, i)
		if err != nil {
			return nil, err
		}
		return ParentHash(newHash, left, right), nil
	}
	right, err := subProofHash(newHash, oldRoot, proof, i, m-k, size-k, false)
	if err != nil {
		return nil, err
	}
	left, err := nextProofHash(proof, i)
	if err != nil {
		return nil, err
	}
	return ParentHash(newHash, left, right), nil
}

func nextProofHash(proof [][]byte, i *int) ([]byte, error) {
	if *i >= len(proof) {
		return nil, fmt.Errorf("merkle: consistency proof too short: need more than %d hashes", len(proof))
	}
	h := proof[*i]
	*i++
	return h, nil
}

// VerifyConsistency checks that newRoot is a valid extension of oldRoot
// from oldSize to newSize leaves.
func VerifyConsistency(newHash HashFunc, oldSize, newSize uint64, oldRoot, newRoot []byte, proof [][]byte) error {
	got, err := RootFromConsistencyProof(newHash, oldSize, newSize, oldRoot, proof)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(got, newRoot) != 1 {
		return fmt.Errorf("merkle: consistency proof did not recompute the expected new root")
	}
	return nil
}

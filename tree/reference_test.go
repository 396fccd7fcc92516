package tree

import "github.com/Barre/compact-log/merkle"

// refTree is an independent, from-scratch reference implementation
// used only by tests: it recomputes every node hash directly from the
// leaves with no KV backend and no incremental/versioned state,
// mirroring the ghost-zero-fill convention in merkle/index.go. Tree
// properties are checked by comparing the engine's output against this
// reference rather than against itself.
type refTree struct {
	hashFn merkle.HashFunc
	leaves [][]byte
}

func newRefTree(hashFn merkle.HashFunc) *refTree {
	return &refTree{hashFn: hashFn}
}

func (r *refTree) push(items ...[]byte) {
	r.leaves = append(r.leaves, items...)
}

// nodeHash recomputes the hash at internal index x for a tree holding
// exactly n of r's leaves (n may be less than len(r.leaves), to compute
// a past root).
func (r *refTree) nodeHash(x merkle.InternalIndex, n uint64) []byte {
	if merkle.IsGhost(x, n) {
		return merkle.GhostHash(r.hashFn)
	}
	if merkle.Level(x) == 0 {
		return merkle.LeafHash(r.hashFn, r.leaves[x.ToLeaf()])
	}
	l := merkle.Level(x)
	step := uint64(1) << (l - 1)
	left := merkle.InternalIndex(uint64(x) - step)
	right := merkle.InternalIndex(uint64(x) + step)
	return merkle.ParentHash(r.hashFn, r.nodeHash(left, n), r.nodeHash(right, n))
}

// root returns the root hash of a tree holding exactly n of r's
// leaves.
func (r *refTree) root(n uint64) []byte {
	if n == 0 {
		return merkle.EmptyRootHash(r.hashFn)
	}
	return r.nodeHash(merkle.RootIndex(n), n)
}

// inclusionProofHashes returns the sibling hashes proving leaf i's
// inclusion in a tree of n of r's leaves.
func (r *refTree) inclusionProofHashes(i merkle.LeafIndex, n uint64) [][]byte {
	indices := merkle.InclusionProofIndices(n, i)
	out := make([][]byte, len(indices))
	for idx, x := range indices {
		out[idx] = r.nodeHash(x, n)
	}
	return out
}

// consistencyProofHashes returns the hashes proving that the tree at
// oldSize is a prefix of the tree at newSize, both against r's leaves.
func (r *refTree) consistencyProofHashes(oldSize, newSize uint64) [][]byte {
	indices := merkle.ConsistencyProofIndices(oldSize, newSize)
	out := make([][]byte, len(indices))
	for idx, x := range indices {
		out[idx] = r.nodeHash(x, newSize)
	}
	return out
}

package tree

import (
	"context"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/Barre/compact-log/kv"
	"github.com/Barre/compact-log/merkle"
)

// ProveInclusion proves leaf i's inclusion in the tree at its current
// size.
func (t *Tree[T]) ProveInclusion(ctx context.Context, i merkle.LeafIndex) (*merkle.InclusionProof, error) {
	return t.ProveInclusionAtSize(ctx, i, t.Len())
}

// ProveInclusionAtSize proves leaf i's inclusion in the tree as of the
// historical size N (N <= current num_leaves). Versioned-node entries
// are consulted first; if one is absent for a touched index, the node
// has not changed since size N and the current-node entry is
// authoritative by invariant 4.
func (t *Tree[T]) ProveInclusionAtSize(ctx context.Context, i merkle.LeafIndex, N uint64) (*merkle.InclusionProof, error) {
	start := time.Now()
	numLeaves := t.Len()
	if N > numLeaves {
		return nil, newError(InconsistentState, "requested size %d exceeds current tree size %d", N, numLeaves)
	}
	if uint64(i) >= N {
		return nil, newError(InconsistentState, "leaf index %d out of range for size %d", i, N)
	}
	glog.V(2).Infof("tree: proving inclusion of leaf %d at size %d", i, N)

	indices := merkle.InclusionProofIndices(N, i)
	hashes, err := t.fetchHashesAtSize(ctx, indices, N)
	if err != nil {
		return nil, err
	}
	t.metrics.ObserveProof("inclusion", time.Since(start))
	return &merkle.InclusionProof{LeafIndex: i, TreeSize: N, Hashes: hashes}, nil
}

// ProveConsistency proves that the tree at oldSize is a prefix of the
// tree at its current size.
func (t *Tree[T]) ProveConsistency(ctx context.Context, oldSize uint64) (*merkle.ConsistencyProof, error) {
	return t.ProveConsistencyBetween(ctx, oldSize, t.Len())
}

// ProveConsistencyBetween proves that the tree at oldSize is a prefix
// of the tree at newSize, with 0 < oldSize <= newSize <= num_leaves.
func (t *Tree[T]) ProveConsistencyBetween(ctx context.Context, oldSize, newSize uint64) (*merkle.ConsistencyProof, error) {
	start := time.Now()
	numLeaves := t.Len()
	if oldSize == 0 {
		return nil, newError(InconsistentState, "old size must be greater than 0")
	}
	if oldSize > newSize {
		return nil, newError(InconsistentState, "old size %d exceeds new size %d", oldSize, newSize)
	}
	if newSize > numLeaves {
		return nil, newError(InconsistentState, "new size %d exceeds current tree size %d", newSize, numLeaves)
	}
	glog.V(2).Infof("tree: proving consistency between sizes %d and %d", oldSize, newSize)

	if oldSize == newSize {
		t.metrics.ObserveProof("consistency", time.Since(start))
		return &merkle.ConsistencyProof{FirstSize: oldSize, SecondSize: newSize}, nil
	}

	indices := merkle.ConsistencyProofIndices(oldSize, newSize)
	hashes, err := t.fetchHashesAtSize(ctx, indices, newSize)
	if err != nil {
		return nil, err
	}
	t.metrics.ObserveProof("consistency", time.Since(start))
	return &merkle.ConsistencyProof{FirstSize: oldSize, SecondSize: newSize, Hashes: hashes}, nil
}

// fetchHashesAtSize fetches, concurrently and in order, the hash each
// index held at the moment the tree first reached atSize: the
// versioned-node entry if one was recorded, else the current-node
// entry (invariant 4 guarantees the latter is authoritative when no
// versioned snapshot exists). When atSize equals the current tree
// size this degenerates to plain current-node reads.
func (t *Tree[T]) fetchHashesAtSize(ctx context.Context, indices []merkle.InternalIndex, atSize uint64) ([][]byte, error) {
	hashes := make([][]byte, len(indices))
	if len(indices) == 0 {
		return hashes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, x := range indices {
		i, x := i, x
		g.Go(func() error {
			h, err := t.fetchHashAtSize(gctx, x, atSize)
			if err != nil {
				return err
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hashes, nil
}

func (t *Tree[T]) fetchHashAtSize(ctx context.Context, x merkle.InternalIndex, atSize uint64) ([]byte, error) {
	// A ghost index was never materialized by the append engine — no
	// NODE or VNODE entry for it exists at any size — so its hash is
	// always the zero convention, never a KV lookup.
	if merkle.IsGhost(x, atSize) {
		return merkle.GhostHash(t.hashFn), nil
	}

	if atSize == t.Len() {
		return t.GetNodeHash(ctx, x)
	}

	val, ok, err := t.reader.Get(ctx, kv.VersionedNodeKey(x, atSize))
	if err != nil {
		glog.Errorf("tree: reading versioned node %d@%d: %v", x, atSize, err)
		return nil, wrapBackend(err)
	}
	if ok {
		if len(val) != t.hashFn().Size() {
			return nil, newError(Encoding, "versioned node %d@%d hash has length %d, want %d", x, atSize, len(val), t.hashFn().Size())
		}
		return val, nil
	}

	// No snapshot was ever recorded for (x, atSize): by invariant 4 the
	// node has not changed since atSize, so the current entry is the
	// historical value too.
	return t.GetNodeHash(ctx, x)
}

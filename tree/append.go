package tree

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/Barre/compact-log/kv"
	"github.com/Barre/compact-log/merkle"
)

// Push appends a single item. It fails with InconsistentState("tree
// full") once num_leaves has reached 2^63 (§9's resolved open
// question: stricter than the theoretical 2^64-1 capacity, to leave
// headroom in the 2*i internal-index arithmetic).
func (t *Tree[T]) Push(ctx context.Context, item T) error {
	_, err := t.BatchPush(ctx, []T{item})
	return err
}

// BatchPush appends items atomically and returns the index the first
// of them landed at.
func (t *Tree[T]) BatchPush(ctx context.Context, items []T) (uint64, error) {
	return t.BatchPushWithData(ctx, items, nil)
}

// BatchPushWithData appends items and co-commits extras (arbitrary
// caller key/value pairs) in the same atomic batch. Callers are
// responsible for not colliding with the leaf/node/vnode/meta
// namespaces (§6).
func (t *Tree[T]) BatchPushWithData(ctx context.Context, items []T, extras []kv.Entry) (uint64, error) {
	start := time.Now()
	if t.readOnly() {
		return 0, newError(InconsistentState, "cannot write to read-only database")
	}

	S := t.Len()
	k := uint64(len(items))

	if k == 0 {
		if len(extras) == 0 {
			return S, nil
		}
		var batch kv.Batch
		for _, e := range extras {
			batch.Put(e.Key, e.Value)
		}
		batch.Put(kv.MetaKey(), kv.EncodeLeafCount(S))
		if err := t.writer.Write(ctx, batch); err != nil {
			glog.Errorf("tree: committing extras-only batch: %v", err)
			return 0, wrapBackend(err)
		}
		return S, nil
	}

	if S >= fullnessBound || S+k > fullnessBound {
		return 0, newError(InconsistentState, "tree full")
	}

	glog.V(1).Infof("tree: appending %d leaves starting at %d", k, S)

	prefetched, err := t.prefetchDependencies(ctx, S, k)
	if err != nil {
		return 0, err
	}

	batch, computed, newSize, err := t.recomputeAndBuildBatch(ctx, items, S, k, prefetched)
	if err != nil {
		return 0, err
	}

	for _, e := range extras {
		batch.Put(e.Key, e.Value)
	}
	batch.Put(kv.MetaKey(), kv.EncodeLeafCount(newSize))

	if err := t.writer.Write(ctx, batch); err != nil {
		glog.Errorf("tree: committing append batch: %v", err)
		return 0, wrapBackend(err)
	}

	t.numLeaves.Store(newSize)
	if t.cache != nil {
		for idx, h := range computed {
			t.cache.Put(idx, h)
		}
	}
	t.metrics.ObserveAppend(int(k), time.Since(start))
	return S, nil
}

// prefetchDependencies implements §4.4 steps 1-2: discover every
// sibling index required by the batch that existed before it started
// (every leaf below s is older than S, i.e. s + 2^Level(s) - 1 < 2*S),
// then read them all concurrently. Siblings that cover a leaf of this
// batch are left to recomputeAndBuildBatch, which computes them first.
func (t *Tree[T]) prefetchDependencies(ctx context.Context, S, k uint64) (map[merkle.InternalIndex][]byte, error) {
	deps := map[merkle.InternalIndex]struct{}{}
	for p := S; p < S+k; p++ {
		newSize := p + 1
		x := merkle.LeafIndex(p).ToInternal()
		root := merkle.RootIndex(newSize)
		for x != root {
			s := merkle.Sibling(x)
			if uint64(s)+(uint64(1)<<merkle.Level(s))-1 < 2*S {
				deps[s] = struct{}{}
			}
			x = merkle.Parent(x)
		}
	}

	prefetched := make(map[merkle.InternalIndex][]byte, len(deps))
	if len(deps) == 0 {
		return prefetched, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for s := range deps {
		s := s
		g.Go(func() error {
			h, err := t.GetNodeHash(gctx, s)
			if err != nil {
				return err
			}
			mu.Lock()
			prefetched[s] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prefetched, nil
}

// recomputeAndBuildBatch implements §4.4 step 3: for each new leaf in
// order, write the leaf and walk up to its size's root, resolving each
// sibling via the four-tier computed/ghost/prefetched/KV-read lookup
// and writing both the current-node and versioned-node entries at
// every touched level.
func (t *Tree[T]) recomputeAndBuildBatch(ctx context.Context, items []T, S, k uint64, prefetched map[merkle.InternalIndex][]byte) (kv.Batch, map[merkle.InternalIndex][]byte, uint64, error) {
	var batch kv.Batch
	computed := make(map[merkle.InternalIndex][]byte)

	for p := S; p < S+k; p++ {
		item := items[p-S]
		leafBytes, err := t.codec.Marshal(item)
		if err != nil {
			return kv.Batch{}, nil, 0, newError(Encoding, "marshaling leaf %d: %w", p, err)
		}
		batch.Put(kv.LeafKey(merkle.LeafIndex(p)), leafBytes)

		newSize := p + 1
		x := merkle.LeafIndex(p).ToInternal()
		cur := merkle.LeafHash(t.hashFn, leafBytes)
		computed[x] = cur
		batch.Put(kv.NodeKey(x), cur)
		batch.Put(kv.VersionedNodeKey(x, newSize), cur)

		root := merkle.RootIndex(newSize)
		for x != root {
			s := merkle.Sibling(x)
			sHash, err := t.resolveAppendSibling(ctx, s, S, computed, prefetched)
			if err != nil {
				return kv.Batch{}, nil, 0, err
			}

			var parentHash []byte
			if merkle.IsLeft(x) {
				parentHash = merkle.ParentHash(t.hashFn, cur, sHash)
			} else {
				parentHash = merkle.ParentHash(t.hashFn, sHash, cur)
			}

			x = merkle.Parent(x)
			cur = parentHash
			computed[x] = cur
			batch.Put(kv.NodeKey(x), cur)
			batch.Put(kv.VersionedNodeKey(x, newSize), cur)
		}
	}

	return batch, computed, S + k, nil
}

// resolveAppendSibling implements the four-tier lookup from §4.4 step
// 3, in priority order: already computed earlier in this batch, ghost
// (index at or beyond 2*S and not computed — not yet materialized
// before this append), previously prefetched, or a direct KV read as a
// correctness backstop.
func (t *Tree[T]) resolveAppendSibling(ctx context.Context, s merkle.InternalIndex, S uint64, computed, prefetched map[merkle.InternalIndex][]byte) ([]byte, error) {
	if h, ok := computed[s]; ok {
		return h, nil
	}
	if uint64(s) >= 2*S {
		return merkle.GhostHash(t.hashFn), nil
	}
	if h, ok := prefetched[s]; ok {
		return h, nil
	}
	glog.V(2).Infof("tree: sibling %d missing from prefetch map, falling back to a direct read", s)
	return t.GetNodeHash(ctx, s)
}

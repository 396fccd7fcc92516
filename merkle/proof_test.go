package merkle

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// refNodeHash recomputes the hash stored at internal index x for a tree
// of n leaves, independent of the proof-index machinery under test. It
// mirrors the ghost-sibling convention directly: any node with no real
// leaf below it (see IsGhost) is the all-zero ghost hash, and
// every other node is the domain-separated hash of its two children,
// recursing all the way to real leaf hashes.
func refNodeHash(hashFn HashFunc, x InternalIndex, leaves [][]byte) []byte {
	n := uint64(len(leaves))
	if IsGhost(x, n) {
		return GhostHash(hashFn)
	}
	if Level(x) == 0 {
		return LeafHash(hashFn, leaves[x.ToLeaf()])
	}
	l := Level(x)
	step := uint64(1) << (l - 1)
	left := InternalIndex(uint64(x) - step)
	right := InternalIndex(uint64(x) + step)
	return ParentHash(hashFn, refNodeHash(hashFn, left, leaves), refNodeHash(hashFn, right, leaves))
}

// refRoot computes the root hash of a tree of n leaves via refNodeHash,
// taking the empty-tree case separately since it has no internal index.
func refRoot(hashFn HashFunc, leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return EmptyRootHash(hashFn)
	}
	return refNodeHash(hashFn, RootIndex(uint64(len(leaves))), leaves)
}

func makeLeaves(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	return out
}

func TestInclusionProofAgainstReferenceRoot(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17, 31, 32, 33} {
		leaves := makeLeaves(n)
		want := refRoot(sha256.New, leaves)
		for i := 0; i < n; i++ {
			idxs := InclusionProofIndices(uint64(n), LeafIndex(i))
			var hashes [][]byte
			for _, x := range idxs {
				hashes = append(hashes, refNodeHash(sha256.New, x, leaves))
			}
			got, err := RootFromInclusionProof(sha256.New, LeafIndex(i), uint64(n), LeafHash(sha256.New, leaves[i]), hashes)
			if err != nil {
				t.Fatalf("n=%d leaf=%d: %v", n, i, err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("n=%d leaf=%d: root mismatch (-want +got):\n%s", n, i, diff)
			}
			if err := VerifyInclusion(sha256.New, want, LeafIndex(i), uint64(n), LeafHash(sha256.New, leaves[i]), hashes); err != nil {
				t.Fatalf("n=%d leaf=%d: VerifyInclusion failed: %v", n, i, err)
			}
		}
	}
}

func TestConsistencyProofAgainstReferenceRoot(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 7, 8, 9, 15, 16, 17, 31, 32, 33}
	leaves := makeLeaves(33)
	for _, oldN := range sizes {
		for _, newN := range sizes {
			if oldN > newN {
				continue
			}
			oldRoot := refRoot(sha256.New, leaves[:oldN])
			newRoot := refRoot(sha256.New, leaves[:newN])
			idxs := ConsistencyProofIndices(uint64(oldN), uint64(newN))
			var hashes [][]byte
			for _, x := range idxs {
				hashes = append(hashes, refNodeHash(sha256.New, x, leaves[:newN]))
			}
			if err := VerifyConsistency(sha256.New, uint64(oldN), uint64(newN), oldRoot, newRoot, hashes); err != nil {
				t.Fatalf("old=%d new=%d: %v", oldN, newN, err)
			}
		}
	}
}

func TestVerifyInclusionRejectsWrongRoot(t *testing.T) {
	leaves := makeLeaves(8)
	idxs := InclusionProofIndices(8, 3)
	var hashes [][]byte
	for _, x := range idxs {
		hashes = append(hashes, refNodeHash(sha256.New, x, leaves))
	}
	badRoot := make([]byte, sha256.Size)
	if err := VerifyInclusion(sha256.New, badRoot, 3, 8, LeafHash(sha256.New, leaves[3]), hashes); err == nil {
		t.Error("expected VerifyInclusion to reject a wrong root")
	}
}

func TestVersionedNodeChangesAtMostOnceAcrossGrowth(t *testing.T) {
	// The hash at an internal index computed while its sibling is still a
	// ghost can differ from the hash once the sibling becomes real, but
	// never changes again after that: once both children are real, the
	// node's hash is a pure function of its children's (now-fixed) hashes.
	leaves := makeLeaves(6)
	x := InternalIndex(1) // parent of leaves 0 and 1
	atThree := refNodeHash(sha256.New, x, leaves[:3])
	atFour := refNodeHash(sha256.New, x, leaves[:4])
	atSix := refNodeHash(sha256.New, x, leaves[:6])
	if diff := cmp.Diff(atThree, atFour); diff != "" {
		t.Fatalf("node 1 should be identical once both its children (leaves 0,1) are real, regardless of the rest of the tree's size (-atThree +atFour):\n%s", diff)
	}
	if diff := cmp.Diff(atFour, atSix); diff != "" {
		t.Fatalf("node 1 should remain stable once fully real (-atFour +atSix):\n%s", diff)
	}
}

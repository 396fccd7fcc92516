// Package compactlog is the module root for github.com/Barre/compact-log,
// an append-only Merkle hash tree designed to back a Certificate
// Transparency log or any system requiring tamper-evident append-only
// logs with RFC 6962-style inclusion and consistency proofs. The tree
// follows RFC 6962 §2.1's domain-separated leaf/parent hashing and
// §2.1.2's recursive proof decomposition, but diverges from it at
// partially-filled subtrees: rather than leaving an odd node's sibling
// out of the hash path, this engine substitutes an all-zero "ghost"
// hash for it (see merkle.IsGhost), so it is not a drop-in replacement
// for an RFC 6962 verifier expecting the unpadded tree shape.
//
// The engine lives in the merkle, kv, storage/cache, and tree
// subpackages; this file only re-exports the handful of names most
// callers need to get started, so that cmd/compactlogctl and other
// consumers can depend on a single import when they don't need the
// subpackages directly.
package compactlog

import (
	"github.com/Barre/compact-log/kv"
	"github.com/Barre/compact-log/merkle"
	"github.com/Barre/compact-log/tree"
)

// BytesTree is the common case of a Tree[T] holding opaque []byte
// leaves, the shape most callers and this module's own tests use.
type BytesTree = tree.Tree[[]byte]

// OpenReadWrite and OpenReadOnly construct a BytesTree over a KV
// backend. Callers needing a structured leaf type should call
// tree.OpenReadWrite / tree.OpenReadOnly directly with their own type
// parameter.
var (
	OpenReadWrite = tree.OpenReadWrite[[]byte]
	OpenReadOnly  = tree.OpenReadOnly[[]byte]
)

// BytesCodec is the identity leaf codec for opaque []byte leaves.
type BytesCodec = kv.BytesCodec

// HashFunc is the hash constructor contract the tree is parameterized
// over, matching crypto/sha256.New's shape.
type HashFunc = merkle.HashFunc

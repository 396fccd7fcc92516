// Package kv defines the storage contract the tree engine is built
// against, plus the key encoding that gives the four namespaces
// (leaves, current nodes, versioned nodes, and the leaf-count meta
// entry) byte-lexicographic order matching their numeric order.
package kv

import (
	"context"
	"encoding/binary"

	"github.com/Barre/compact-log/merkle"
)

// ReadOnlyBackend is the read surface the tree engine needs to answer
// Get/proof queries against a fixed snapshot of the keyspace.
type ReadOnlyBackend interface {
	// Get returns the value stored at key, or ok == false if absent.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)
}

// Backend is the full read-write surface. Write must apply every put in
// a batch atomically: either all of them are visible to subsequent Gets,
// or none are, even across a crash.
type Backend interface {
	ReadOnlyBackend
	Write(ctx context.Context, batch Batch) error
}

// Entry is a single key/value write queued in a Batch.
type Entry struct {
	Key   []byte
	Value []byte
}

// Batch is an ordered list of key/value writes to apply atomically.
type Batch struct {
	entries []Entry
}

// Put appends a write to the batch and returns the batch for chaining.
func (b *Batch) Put(key, value []byte) *Batch {
	b.entries = append(b.entries, Entry{Key: key, Value: value})
	return b
}

// Len reports how many puts are queued.
func (b *Batch) Len() int {
	return len(b.entries)
}

// Entries returns the queued key/value pairs in insertion order.
func (b *Batch) Entries() []Entry {
	return b.entries
}

const (
	leafPrefix     = 'L'
	nodePrefix     = 'N'
	versionedNode  = 'V'
	metaKeyLiteral = "meta"
)

// LeafKey encodes the key under which a leaf's codec-marshaled bytes are
// stored.
func LeafKey(i merkle.LeafIndex) []byte {
	key := make([]byte, 1+8)
	key[0] = leafPrefix
	binary.BigEndian.PutUint64(key[1:], uint64(i))
	return key
}

// NodeKey encodes the key for the current (latest-known) hash of
// internal index x.
func NodeKey(x merkle.InternalIndex) []byte {
	key := make([]byte, 1+8)
	key[0] = nodePrefix
	binary.BigEndian.PutUint64(key[1:], uint64(x))
	return key
}

// VersionedNodeKey encodes the key for the hash internal index x had
// when the tree held exactly treeSize leaves. The append engine writes
// it for every node it recomputes during the append that grows the tree
// to treeSize, alongside the node's current entry.
func VersionedNodeKey(x merkle.InternalIndex, treeSize uint64) []byte {
	key := make([]byte, 1+8+8)
	key[0] = versionedNode
	binary.BigEndian.PutUint64(key[1:9], uint64(x))
	binary.BigEndian.PutUint64(key[9:17], treeSize)
	return key
}

// MetaKey encodes the single key holding the current leaf count.
func MetaKey() []byte {
	return []byte(metaKeyLiteral)
}

// EncodeLeafCount encodes a leaf count for storage under MetaKey.
func EncodeLeafCount(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

// DecodeLeafCount decodes a value previously written by
// EncodeLeafCount.
func DecodeLeafCount(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

package kv

import "encoding/json"

// LeafCodec marshals and unmarshals application leaf values of type T to
// and from the opaque bytes the engine hashes and stores under a leaf
// key. Implementations must be deterministic: the same T must always
// marshal to the same bytes, since the leaf hash is computed over the
// marshaled form.
type LeafCodec[T any] interface {
	Marshal(T) ([]byte, error)
	Unmarshal([]byte) (T, error)
}

// BytesCodec is the identity codec for opaque []byte leaves, mirroring
// how the reference tree implementation's own test suite pushes raw
// byte slices throughout.
type BytesCodec struct{}

// Marshal returns b unchanged.
func (BytesCodec) Marshal(b []byte) ([]byte, error) { return b, nil }

// Unmarshal returns b unchanged.
func (BytesCodec) Unmarshal(b []byte) ([]byte, error) { return b, nil }

// JSONCodec marshals structured leaves of type T via encoding/json, for
// callers that want typed leaves instead of raw bytes.
type JSONCodec[T any] struct{}

// Marshal encodes v as JSON.
func (JSONCodec[T]) Marshal(v T) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON bytes into a T.
func (JSONCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

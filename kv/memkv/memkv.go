// Package memkv is the in-memory reference implementation of
// kv.Backend, used by the test suite and by the compactlogctl CLI. It
// offers atomic batch writes and a frozen read-only view for
// concurrent readers that must not observe in-flight writes.
package memkv

import (
	"context"
	"sync"

	"github.com/Barre/compact-log/kv"
)

// gobDecoder and gobEncoder are satisfied by *gob.Decoder / *gob.Encoder;
// defined locally so this package doesn't need to import encoding/gob
// itself just to name the parameter types.
type gobDecoder interface {
	Decode(e any) error
}

type gobEncoder interface {
	Encode(e any) error
}

// Store is an in-memory, mutex-guarded kv.Backend.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get implements kv.ReadOnlyBackend.
func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	// Return a copy: callers must not be able to mutate our storage
	// through the returned slice.
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Write implements kv.Backend, applying every entry in the batch under
// a single lock so no reader observes a partial write.
func (s *Store) Write(_ context.Context, batch kv.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range batch.Entries() {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		s.data[string(e.Key)] = v
	}
	return nil
}

// ReadOnlyView returns a kv.ReadOnlyBackend snapshotting the store's
// current contents. Later writes to s are not visible through the
// returned view, matching the read-only handle's isolation contract.
func (s *Store) ReadOnlyView() kv.ReadOnlyBackend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		snapshot[k] = cp
	}
	return &readOnlyView{data: snapshot}
}

// SaveGob encodes the store's current contents, used by compactlogctl's
// optional snapshot-to-file persistence demo.
func (s *Store) SaveGob(enc gobEncoder) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return enc.Encode(s.data)
}

// LoadGob replaces the store's contents with a snapshot previously
// written by SaveGob.
func (s *Store) LoadGob(dec gobDecoder) error {
	var data map[string][]byte
	if err := dec.Decode(&data); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

type readOnlyView struct {
	data map[string][]byte
}

func (r *readOnlyView) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, ok := r.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Faulty wraps a Store and rejects whole Write calls once a configured
// number of Writes have succeeded, applying none of the rejected batch's
// entries; it is used to check that a failed commit leaves the tree's
// stored state unchanged.
type Faulty struct {
	inner     *Store
	failAfter int
}

// NewFaulty wraps store so that the first failAfter Write calls succeed
// and every Write call after them returns an error without modifying
// any key. A failAfter of 0 makes every Write fail.
func NewFaulty(store *Store, failAfter int) *Faulty {
	return &Faulty{inner: store, failAfter: failAfter}
}

func (f *Faulty) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	return f.inner.Get(ctx, key)
}

func (f *Faulty) Write(ctx context.Context, batch kv.Batch) error {
	if f.failAfter <= 0 {
		return errInjectedFault
	}
	f.failAfter--
	return f.inner.Write(ctx, batch)
}

var errInjectedFault = faultError{}

type faultError struct{}

func (faultError) Error() string { return "memkv: injected write fault" }

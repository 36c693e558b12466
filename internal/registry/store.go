package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errReadOnly = errors.New("registry: write in read-only transaction")

// Bucket names a keyspace inside a Store.
type Bucket string

// Buckets used by the registry.
const (
	// BucketDevices maps device code to operator.
	BucketDevices Bucket = "devices"
	// BucketOperators maps operator to device code.
	BucketOperators Bucket = "operators"
	// BucketPending holds operators that are waiting to send a device code.
	BucketPending Bucket = "pending"
)

// Tx is a view of the store inside a single transaction.
type Tx interface {
	// Get returns ErrNotFound when key is absent.
	Get(bucket Bucket, key string) (string, error)
	Put(bucket Bucket, key, value string) error
	// Delete is a no-op for absent keys.
	Delete(bucket Bucket, key string) error
	// Keys returns the keys of bucket in ascending order.
	Keys(bucket Bucket) ([]string, error)
}

// Store is the persistence abstraction behind the Registry.
//
// Update runs fn in a read-write transaction: every write made through the
// Tx is committed together if fn returns nil and discarded otherwise.
// Implementations must be safe for concurrent use.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// MemoryStore is a Store held entirely in process memory. Entries are lost
// on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Bucket]map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Bucket]map[string]string)}
}

// View implements Store.
func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{base: s.data, readOnly: true})
}

// Update implements Store. Writes are staged and applied only when fn
// succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{base: s.data, staged: make(map[Bucket]map[string]*string)}
	if err := fn(tx); err != nil {
		return err
	}

	for bucket, writes := range tx.staged {
		m := s.data[bucket]
		if m == nil {
			m = make(map[string]string)
			s.data[bucket] = m
		}
		for key, value := range writes {
			if value == nil {
				delete(m, key)
			} else {
				m[key] = *value
			}
		}
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

type memTx struct {
	base     map[Bucket]map[string]string
	staged   map[Bucket]map[string]*string // nil value marks a delete
	readOnly bool
}

func (t *memTx) Get(bucket Bucket, key string) (string, error) {
	if v, ok := t.staged[bucket][key]; ok {
		if v == nil {
			return "", ErrNotFound
		}
		return *v, nil
	}
	if v, ok := t.base[bucket][key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (t *memTx) Put(bucket Bucket, key, value string) error {
	return t.stage(bucket, key, &value)
}

func (t *memTx) Delete(bucket Bucket, key string) error {
	return t.stage(bucket, key, nil)
}

func (t *memTx) stage(bucket Bucket, key string, value *string) error {
	if t.readOnly {
		return errReadOnly
	}
	if t.staged[bucket] == nil {
		t.staged[bucket] = make(map[string]*string)
	}
	t.staged[bucket][key] = value
	return nil
}

func (t *memTx) Keys(bucket Bucket) ([]string, error) {
	seen := make(map[string]bool)
	for k := range t.base[bucket] {
		seen[k] = true
	}
	for k, v := range t.staged[bucket] {
		seen[k] = v != nil
	}

	keys := make([]string, 0, len(seen))
	for k, present := range seen {
		if present {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

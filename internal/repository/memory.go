package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store, safe for concurrent use.
// Data is lost when the process exits.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Collection]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	data := make(map[Collection]map[string][]byte, len(Collections))
	for _, c := range Collections {
		data[c] = make(map[string][]byte)
	}
	return &MemoryStore{data: data}
}

// View implements Store.
func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{base: s.data, readOnly: true})
}

// Update implements Store. Writes are buffered in an overlay and applied only when fn succeeds.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{base: s.data, overlay: make(map[Collection]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for c, writes := range tx.overlay {
		for key, value := range writes {
			if value == nil {
				delete(s.data[c], key)
				continue
			}
			s.data[c][key] = value
		}
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	base     map[Collection]map[string][]byte
	overlay  map[Collection]map[string][]byte // nil value marks a deletion
	readOnly bool
}

func (t *memoryTx) bucket(c Collection) (map[string][]byte, error) {
	b, ok := t.base[c]
	if !ok {
		return nil, fmt.Errorf("bucket %s not found", c)
	}
	return b, nil
}

func (t *memoryTx) Get(_ context.Context, c Collection, key string) ([]byte, error) {
	b, err := t.bucket(c)
	if err != nil {
		return nil, err
	}
	if value, ok := t.overlay[c][key]; ok {
		if value == nil {
			return nil, ErrNotFound
		}
		return clone(value), nil
	}
	value, ok := b[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(value), nil
}

func (t *memoryTx) Put(_ context.Context, c Collection, key string, data []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := t.bucket(c); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	t.write(c, key, clone(data))
	return nil
}

func (t *memoryTx) Delete(_ context.Context, c Collection, key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := t.bucket(c); err != nil {
		return err
	}
	t.write(c, key, nil)
	return nil
}

func (t *memoryTx) List(_ context.Context, c Collection) ([][]byte, error) {
	b, err := t.bucket(c)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte, len(b))
	for k, v := range b {
		merged[k] = v
	}
	for k, v := range t.overlay[c] {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([][]byte, 0, len(keys))
	for _, k := range keys {
		results = append(results, clone(merged[k]))
	}
	return results, nil
}

func (t *memoryTx) write(c Collection, key string, value []byte) {
	writes, ok := t.overlay[c]
	if !ok {
		writes = make(map[string][]byte)
		t.overlay[c] = writes
	}
	writes[key] = value
}

func clone(b []byte) []byte {
	copied := make([]byte, len(b))
	copy(copied, b)
	return copied
}

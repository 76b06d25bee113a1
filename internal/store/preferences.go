package store

import "sync"

// Preferences is a string key-value store that survives page loads.
type Preferences interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Bucket is one visitor's view of a FileStore.
type Bucket struct {
	store  *FileStore
	name   string
	source string
}

// WithSource returns a copy of the bucket that tags writes with source.
func (b *Bucket) WithSource(source string) *Bucket {
	c := *b
	c.source = source
	return &c
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Get returns a persisted value.
func (b *Bucket) Get(key string) (string, bool) {
	e, ok := b.store.get(b.name, key)
	if !ok {
		return "", false
	}
	return e.Value, true
}

// Set persists a value immediately.
func (b *Bucket) Set(key, value string) error {
	return b.store.set(b.name, key, value, b.source)
}

// Delete removes a persisted value.
func (b *Bucket) Delete(key string) error {
	return b.store.delete(b.name, key)
}

// MemoryStore is a process-local Preferences used for ephemeral sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore, optionally seeded.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// Get returns a stored value.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores a value.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes a value.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

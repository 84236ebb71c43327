package store

import "sync"

// MemoryBackend keeps collections in process memory. It does not survive a
// restart and is meant for tests and dry runs.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string][]byte)}
}

func (m *MemoryBackend) Load(collection string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.data[collection]))
	for k, v := range m.data[collection] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (m *MemoryBackend) Put(collection string, records map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[collection]
	if !ok {
		c = make(map[string][]byte)
		m.data[collection] = c
	}
	for k, v := range records {
		c[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryBackend) Delete(collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], key)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

package service

import (
	"errors"
	"sync"
	"time"
)

// memoryStore is an in-memory KeyValueStore
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (m *memoryStore) GetValue(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryStore) SetValue(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.writes++
	return nil
}

func (m *memoryStore) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

var errStoreDown = errors.New("store down")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

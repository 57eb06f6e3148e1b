package inmem

import (
	"sync"

	"github.com/trezcool/fypdesk/core"
)

// Store is a process-local key-value store.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ core.KeyValueStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key], nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

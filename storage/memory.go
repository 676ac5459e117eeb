package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemStore is an in-memory Store with change notification. It backs tests and
// acts as the no-backend variant of the substrate; two components holding the
// same MemStore observe each other's writes the way two tabs share browser
// storage.
type MemStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[int]chan Event
	nextID   int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		data:     make(map[string][]byte),
		watchers: make(map[int]chan Event),
	}
}

func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(val), nil
}

func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.data[key] = slices.Clone(value)
	s.mu.Unlock()

	s.notify(Event{Key: key})
	return nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()

	if existed {
		s.notify(Event{Key: key, Removed: true})
	}
	return nil
}

func (s *MemStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch implements Watcher. Events are delivered best-effort: a receiver that
// falls behind the buffer drops notifications rather than blocking writers.
func (s *MemStore) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 16)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *MemStore) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}

package state

import (
	"context"
	"sync"

	"github.com/matst80/slask-crossfilter/pkg/types"
)

// Store holds the selection shared between charts. Each handled selection
// event results in exactly one Save; how the new value reaches other views
// is up to the implementation.
type Store interface {
	Load(ctx context.Context) (types.IdSet, error)
	Save(ctx context.Context, ids types.IdSet) error
}

type Listener func(ids types.IdSet)

type MemoryStore struct {
	mu        sync.RWMutex
	ids       types.IdSet
	listeners []Listener
}

func NewMemoryStore(initial ...string) *MemoryStore {
	return &MemoryStore{
		ids: types.NewIdSet(initial...),
	}
}

func (s *MemoryStore) Load(_ context.Context) (types.IdSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ids.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, ids types.IdSet) error {
	s.mu.Lock()
	s.ids = ids.Clone()
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(ids.Clone())
	}
	return nil
}

// Subscribe registers fn to be called after every Save.
func (s *MemoryStore) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

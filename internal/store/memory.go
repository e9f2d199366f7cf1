package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ljungman/calendard/internal/domain"
)

// MemoryStore keeps events in process memory, in insertion order. It is the
// default backend and the one the tests run against.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	events map[string]domain.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]domain.Event)}
}

func (s *MemoryStore) List(context.Context) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.events[id])
	}
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, ev domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if _, exists := s.events[ev.ID]; !exists {
		s.order = append(s.order, ev.ID)
	}
	s.events[ev.ID] = ev
	return ev, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, ev domain.Event) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[id]; !exists {
		return domain.Event{}, ErrNotFound
	}
	ev.ID = id
	s.events[id] = ev
	return ev, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[id]; !exists {
		return ErrNotFound
	}
	delete(s.events, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

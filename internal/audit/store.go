package audit

import (
	"context"
	"sync"

	id "resimed/pkg/domain"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByScholar(ctx context.Context, scholarID id.ScholarID) ([]Event, error)
}

// InMemoryStore keeps events in memory for tests and single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByScholar(_ context.Context, scholarID id.ScholarID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.ScholarID == scholarID {
			out = append(out, e)
		}
	}
	return out, nil
}

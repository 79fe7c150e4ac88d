package store

import (
	"context"
	"sync"
	"time"

	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

// MemoryStore keeps events in process. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]models.Event       // tenant -> events
	ids    map[string]map[string]struct{} // tenant -> event ids
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: map[string][]models.Event{},
		ids:    map[string]map[string]struct{}{},
	}
}

func (m *MemoryStore) InsertEvents(_ context.Context, events []models.Event) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, e := range events {
		seen, ok := m.ids[e.TenantID]
		if !ok {
			seen = map[string]struct{}{}
			m.ids[e.TenantID] = seen
		}
		if _, dup := seen[e.EventID]; dup {
			continue
		}
		seen[e.EventID] = struct{}{}
		e.Timestamp = e.Timestamp.UTC()
		m.events[e.TenantID] = append(m.events[e.TenantID], e)
		inserted++
	}
	return inserted, nil
}

// Scan returns the tenant's events with from <= timestamp <= to.
func (m *MemoryStore) Scan(_ context.Context, tenantID string, from, to time.Time) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Event
	for _, e := range m.events[tenantID] {
		if e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}
	sortEvents(out)
	return out, nil
}

// Len returns the number of stored events for a tenant.
func (m *MemoryStore) Len(tenantID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[tenantID])
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

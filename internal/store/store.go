// Package store persists events. PostgresStore backs both execution
// strategies; MemoryStore backs the in-process one for local runs and tests.
package store

import (
	"context"
	"sort"

	"github.com/PratikDhanave/analytics-workspace/internal/engine"
	"github.com/PratikDhanave/analytics-workspace/internal/models"
)

// Store is the event storage used by the HTTP layer.
type Store interface {
	engine.Scanner
	// InsertEvents stores events and returns how many were new. Events whose
	// (tenant, event id) already exists are skipped without error.
	InsertEvents(ctx context.Context, events []models.Event) (int, error)
	Ping(ctx context.Context) error
	Close()
}

var (
	_ Store             = (*PostgresStore)(nil)
	_ engine.Aggregator = (*PostgresStore)(nil)
	_ Store             = (*MemoryStore)(nil)
)

// sortEvents orders events by timestamp then event id, the scan order both
// stores guarantee.
func sortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].EventID < events[j].EventID
	})
}

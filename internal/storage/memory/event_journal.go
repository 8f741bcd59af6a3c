package memory

import (
	"context"
	"sort"
	"sync"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/storage"
)

// EventJournal is an in-memory implementation of storage.EventJournal.
type EventJournal struct {
	mu     sync.RWMutex
	events []*domain.Event // append order
}

// NewEventJournal creates a new in-memory event journal.
func NewEventJournal() *EventJournal {
	return &EventJournal{}
}

// Append adds events in order.
func (j *EventJournal) Append(_ context.Context, events []*domain.Event) error {
	for _, e := range events {
		if e == nil || e.Kind == "" {
			return storage.ErrInvalidInput
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range events {
		eventCopy := *e
		j.events = append(j.events, &eventCopy)
	}
	return nil
}

// GetByMint retrieves events for a mint within [start, end] (inclusive).
func (j *EventJournal) GetByMint(_ context.Context, mint string, start, end int64) ([]*domain.Event, error) {
	return j.filter(func(e *domain.Event) bool {
		return e.Mint == mint && e.Timestamp >= start && e.Timestamp <= end
	}), nil
}

// GetByKind retrieves events of a kind within [start, end] (inclusive).
func (j *EventJournal) GetByKind(_ context.Context, kind domain.EventKind, start, end int64) ([]*domain.Event, error) {
	return j.filter(func(e *domain.Event) bool {
		return e.Kind == kind && e.Timestamp >= start && e.Timestamp <= end
	}), nil
}

// Len returns the number of journaled events.
func (j *EventJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.events)
}

func (j *EventJournal) filter(keep func(*domain.Event) bool) []*domain.Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*domain.Event
	for _, e := range j.events {
		if keep(e) {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	// Stable keeps append order among equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result
}

var _ storage.EventJournal = (*EventJournal)(nil)

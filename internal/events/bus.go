// Package events fans committed ledger events out to sinks: the WebSocket
// hub, the event journal and anything else that implements Sink.
package events

import (
	"context"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/ledger"
	"launchpad-ledger/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink consumes published events.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string
	// Handle receives the events of one committed unit, in emission order.
	Handle(ctx context.Context, events []*domain.Event) error
}

// Bus delivers events to every registered sink. A failing sink is logged
// and counted; it never fails the operation that produced the events.
type Bus struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *zap.Logger
}

var _ ledger.Publisher = (*Bus)(nil)

// NewBus creates a Bus with the given sinks.
func NewBus(logger *zap.Logger, sinks ...Sink) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{sinks: sinks, logger: logger}
}

// Add registers another sink.
func (b *Bus) Add(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Publish implements ledger.Publisher.
func (b *Bus) Publish(ctx context.Context, events []*domain.Event) {
	if len(events) == 0 {
		return
	}

	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Handle(ctx, events); err != nil {
			observability.RecordEventDropped(s.Name())
			b.logger.Warn("event sink failed",
				zap.String("sink", s.Name()),
				zap.Int("events", len(events)),
				zap.Error(err),
			)
		}
	}
	for _, e := range events {
		observability.RecordEventPublished(string(e.Kind))
	}
}

// Recorder is a Sink that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []*domain.Event
}

// Name implements Sink.
func (r *Recorder) Name() string { return "recorder" }

// Handle implements Sink.
func (r *Recorder) Handle(_ context.Context, events []*domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []*domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind domain.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

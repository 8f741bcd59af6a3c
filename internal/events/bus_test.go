package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/storage/memory"
)

type failingSink struct{ calls int }

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Handle(context.Context, []*domain.Event) error {
	s.calls++
	return errors.New("sink down")
}

func TestBus_FanOut(t *testing.T) {
	first, second := &Recorder{}, &Recorder{}
	bus := NewBus(nil, first)
	bus.Add(second)

	events := []*domain.Event{
		{Kind: domain.EventSwap, Mint: "A", Timestamp: 1},
		{Kind: domain.EventStatusChanged, Mint: "A", Timestamp: 1},
	}
	bus.Publish(context.Background(), events)

	assert.Len(t, first.Events(), 2)
	assert.Len(t, second.Events(), 2)
	assert.Equal(t, 1, first.Count(domain.EventSwap))
}

func TestBus_FailingSinkDoesNotStopOthers(t *testing.T) {
	failing := &failingSink{}
	rec := &Recorder{}
	bus := NewBus(nil, failing, rec)

	bus.Publish(context.Background(), []*domain.Event{{Kind: domain.EventClaim}})

	assert.Equal(t, 1, failing.calls)
	assert.Len(t, rec.Events(), 1)
}

func TestBus_EmptyBatchIsIgnored(t *testing.T) {
	failing := &failingSink{}
	bus := NewBus(nil, failing)
	bus.Publish(context.Background(), nil)
	assert.Zero(t, failing.calls)
}

func TestJournalSink(t *testing.T) {
	journal := memory.NewEventJournal()
	bus := NewBus(nil, NewJournalSink(journal))

	bus.Publish(context.Background(), []*domain.Event{
		{Kind: domain.EventSwap, Mint: "A", Timestamp: 10},
		{Kind: domain.EventSwap, Mint: "B", Timestamp: 20},
	})

	got, err := journal.GetByMint(context.Background(), "A", 0, 100)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].Timestamp)
	assert.Equal(t, 2, journal.Len())
}

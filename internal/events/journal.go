package events

import (
	"context"
	"fmt"

	"launchpad-ledger/internal/domain"
	"launchpad-ledger/internal/storage"
)

// JournalSink appends events to a storage.EventJournal.
type JournalSink struct {
	journal storage.EventJournal
}

// NewJournalSink creates a sink writing to journal.
func NewJournalSink(journal storage.EventJournal) *JournalSink {
	return &JournalSink{journal: journal}
}

// Name implements Sink.
func (s *JournalSink) Name() string { return "journal" }

// Handle implements Sink.
func (s *JournalSink) Handle(ctx context.Context, events []*domain.Event) error {
	if err := s.journal.Append(ctx, events); err != nil {
		return fmt.Errorf("append %d events: %w", len(events), err)
	}
	return nil
}

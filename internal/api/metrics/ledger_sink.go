package metrics

import (
	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// LedgerSink counts token movements as they are journaled and forwards every
// entry to next.
type LedgerSink struct {
	next ports.JournalSink
}

func NewLedgerSink(next ports.JournalSink) *LedgerSink {
	return &LedgerSink{next: next}
}

func (s *LedgerSink) Enqueue(entry domain.JournalEntry) {
	if entry.Kind == domain.JournalTokenTransaction {
		switch {
		case entry.Amount > 0:
			TokensEarnedTotal.Add(float64(entry.Amount))
		case entry.Amount < 0:
			TokensRedeemedTotal.Add(float64(-entry.Amount))
		}
	}
	s.next.Enqueue(entry)
}

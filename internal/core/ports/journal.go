package ports

import (
	"context"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// JournalSink accepts committed ledger rows for asynchronous auditing.
// Enqueue must not block the caller for long and never fails the operation.
type JournalSink interface {
	Enqueue(entry domain.JournalEntry)
}

// JournalRepository persists audit copies of ledger rows.
type JournalRepository interface {
	Insert(ctx context.Context, entry domain.JournalEntry) error
}

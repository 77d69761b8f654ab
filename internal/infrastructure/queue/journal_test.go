package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/core/domain"
)

type stubJournalRepo struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	fail    bool
	block   chan struct{}
}

func (r *stubJournalRepo) Insert(_ context.Context, e domain.JournalEntry) error {
	if r.block != nil {
		<-r.block
	}
	if r.fail {
		return errors.New("mongo down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *stubJournalRepo) snapshot() []domain.JournalEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.JournalEntry(nil), r.entries...)
}

func TestJournalDispatcher_PreservesPerUserOrder(t *testing.T) {
	repo := &stubJournalRepo{}
	d := NewJournalDispatcher(3, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := int64(1); i <= 50; i++ {
		d.Enqueue(domain.JournalEntry{Kind: domain.JournalTokenTransaction, UserID: i % 2, RecordID: i})
	}
	cancel()
	d.Wait()

	got := repo.snapshot()
	if len(got) != 50 {
		t.Fatalf("expected 50 entries journaled, got %d", len(got))
	}
	last := map[int64]int64{}
	for _, e := range got {
		if e.RecordID <= last[e.UserID] {
			t.Fatalf("user %d: record %d journaled after %d", e.UserID, e.RecordID, last[e.UserID])
		}
		last[e.UserID] = e.RecordID
	}
}

func TestJournalDispatcher_ShardIndexStable(t *testing.T) {
	d := NewJournalDispatcher(4, &stubJournalRepo{}, zerolog.Nop())
	for _, id := range []int64{0, 1, 7, 1 << 40, -3} {
		a, b := d.shardIndex(id), d.shardIndex(id)
		if a != b || a < 0 || a >= 4 {
			t.Errorf("user %d: unstable or out of range shard %d/%d", id, a, b)
		}
	}
}

func TestJournalDispatcher_DropsWhenFull(t *testing.T) {
	repo := &stubJournalRepo{block: make(chan struct{})}
	d := NewJournalDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := range channelBuffer + 10 {
			d.Enqueue(domain.JournalEntry{UserID: 1, RecordID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	close(repo.block)
	cancel()
	d.Wait()

	if n := len(repo.snapshot()); n >= channelBuffer+10 {
		t.Errorf("expected some entries dropped, got %d journaled", n)
	}
}

func TestJournalDispatcher_WriteErrorsDoNotStopWorker(t *testing.T) {
	repo := &stubJournalRepo{fail: true}
	d := NewJournalDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(domain.JournalEntry{UserID: 1, RecordID: 1})
	d.Enqueue(domain.JournalEntry{UserID: 1, RecordID: 2})
	cancel()

	finished := make(chan struct{})
	go func() { d.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit")
	}
}

func TestJournalDispatcher_QueueDepthTracksAcceptedEntries(t *testing.T) {
	depth := metrics.JournalQueueDepth.WithLabelValues("0")
	before := testutil.ToFloat64(depth)

	repo := &stubJournalRepo{}
	d := NewJournalDispatcher(1, repo, zerolog.Nop())

	// Workers not started yet: the queue fills and the overflow is dropped.
	for i := range channelBuffer + 5 {
		d.Enqueue(domain.JournalEntry{UserID: 1, RecordID: int64(i)})
	}
	if got := testutil.ToFloat64(depth) - before; got != float64(channelBuffer) {
		t.Fatalf("expected depth %d after drops, got %v", channelBuffer, got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()

	if got := testutil.ToFloat64(depth) - before; got != 0 {
		t.Fatalf("expected depth back to 0, got %v", got)
	}
	if n := len(repo.snapshot()); n != channelBuffer {
		t.Fatalf("expected %d entries journaled, got %d", channelBuffer, n)
	}
}

package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// JournalDispatcher fans committed ledger rows out to a fixed set of writers.
// Entries are sharded by user id so one user's rows are journaled in order.
type JournalDispatcher struct {
	workers []chan domain.JournalEntry
	repo    ports.JournalRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.JournalSink = (*JournalDispatcher)(nil)

// NewJournalDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewJournalDispatcher(numWorkers int, repo ports.JournalRepository, log zerolog.Logger) *JournalDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &JournalDispatcher{
		workers: make([]chan domain.JournalEntry, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.JournalEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// flushes what is already queued and exits; Wait blocks until they are done.
func (d *JournalDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has exited.
func (d *JournalDispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands entry to the worker that owns its user. It never blocks: when
// that worker is full the entry is dropped and counted.
func (d *JournalDispatcher) Enqueue(entry domain.JournalEntry) {
	idx := d.shardIndex(entry.UserID)
	// Count before the send so the worker's Dec can never run first.
	depth := metrics.JournalQueueDepth.WithLabelValues(strconv.Itoa(idx))
	depth.Inc()
	select {
	case d.workers[idx] <- entry:
	default:
		depth.Dec()
		metrics.JournalWritesTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("kind", string(entry.Kind)).
			Int64("record_id", entry.RecordID).
			Int("worker_id", idx).
			Msg("journal queue full, entry dropped")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *JournalDispatcher) shardIndex(userID int64) int {
	n := int64(len(d.workers))
	return int(((userID % n) + n) % n)
}

func (d *JournalDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.JournalEntry) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case entry := <-ch:
			d.write(context.WithoutCancel(ctx), id, entry)
		}
	}
}

func (d *JournalDispatcher) drain(id int, ch <-chan domain.JournalEntry) {
	for {
		select {
		case entry := <-ch:
			d.write(context.Background(), id, entry)
		default:
			return
		}
	}
}

func (d *JournalDispatcher) write(ctx context.Context, id int, entry domain.JournalEntry) {
	metrics.JournalQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := d.repo.Insert(ctx, entry); err != nil {
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("kind", string(entry.Kind)).
			Int64("record_id", entry.RecordID).
			Int("worker_id", id).
			Msg("journal write failed")
		return
	}
	metrics.JournalWritesTotal.WithLabelValues("ok").Inc()
}

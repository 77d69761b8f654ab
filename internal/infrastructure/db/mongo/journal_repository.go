package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

const journalCollection = "ledger_journal"

// JournalRepository implements ports.JournalRepository on a MongoDB collection.
// Each ledger row is stored at most once, keyed by (kind, record_id).
type JournalRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ports.JournalRepository = (*JournalRepository)(nil)

func NewJournalRepository(db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		coll: db.Collection(journalCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the uniqueness and per-user lookup indexes.
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "record_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("kind_record_unique"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("user_occurred_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("journal indexes: %w", err)
	}
	return nil
}

// Insert persists entry. Replays of an already journaled row are ignored.
func (r *JournalRepository) Insert(ctx context.Context, entry domain.JournalEntry) error {
	_, err := r.coll.InsertOne(ctx, journalDocument(entry, r.now()))
	return ignoreDuplicate(err)
}

func journalDocument(entry domain.JournalEntry, recordedAt time.Time) bson.M {
	return bson.M{
		"kind":        string(entry.Kind),
		"user_id":     entry.UserID,
		"record_id":   entry.RecordID,
		"amount":      entry.Amount,
		"detail":      entry.Detail,
		"occurred_at": entry.OccurredAt.UTC(),
		"recorded_at": recordedAt,
	}
}

// ignoreDuplicate treats a unique-index violation as success: the row is
// already journaled.
func ignoreDuplicate(err error) error {
	if err == nil || mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return fmt.Errorf("journal insert: %w", err)
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags the direction of a token movement.
type TransactionType string

const (
	TransactionEarned   TransactionType = "earned"
	TransactionRedeemed TransactionType = "redeemed"
)

// TokenTransaction is an append-only ledger row. Earned rows carry a positive
// amount, redeemed rows a negative one.
type TokenTransaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Validate checks that the amount sign agrees with the type tag.
func (t TokenTransaction) Validate() error {
	switch t.Type {
	case TransactionEarned:
		if t.Amount <= 0 {
			return NewValidationError("earned transaction amount must be positive")
		}
	case TransactionRedeemed:
		if t.Amount >= 0 {
			return NewValidationError("redeemed transaction amount must be negative")
		}
	default:
		return NewValidationError("unknown transaction type %q", t.Type)
	}
	return nil
}

// ActivityIcon is the glyph the client renders next to an impact activity.
type ActivityIcon string

const (
	IconCheck ActivityIcon = "check"
	IconBolt  ActivityIcon = "bolt"
	IconClock ActivityIcon = "clock"
)

// ImpactActivity records a quantified environmental benefit.
type ImpactActivity struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"userId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CO2Saved    *decimal.Decimal `json:"co2Saved"`
	EnergySaved *decimal.Decimal `json:"energySaved"`
	Icon        ActivityIcon     `json:"icon"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// RedemptionOption is a reward that can be bought with tokens.
type RedemptionOption struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Category    string `json:"category"`
	Active      bool   `json:"active"`
}

// SelectedRoute records that a user has chosen a catalog route. The
// (UserID, RouteID) pair is unique.
type SelectedRoute struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	RouteID   int64     `json:"routeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// JournalKind names the ledger row type carried by a JournalEntry.
type JournalKind string

const (
	JournalTokenTransaction JournalKind = "token_transaction"
	JournalImpactActivity   JournalKind = "impact_activity"
	JournalRouteSelection   JournalKind = "route_selection"
)

// JournalEntry is an audit copy of a committed ledger row.
type JournalEntry struct {
	Kind       JournalKind
	UserID     int64
	RecordID   int64
	Amount     int64
	Detail     string
	OccurredAt time.Time
}

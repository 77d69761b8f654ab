package ports

import (
	"context"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// LedgerStore is the persistence port for every ledger entity.
//
// Lookups return the matching not-found sentinel from domain when a record is
// absent. Creates assign the next id for the entity class and stamp CreatedAt
// when the caller left it zero.
type LedgerStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)

	CreateRoute(ctx context.Context, r *domain.Route) (*domain.Route, error)
	GetRoute(ctx context.Context, id int64) (*domain.Route, error)
	ListRoutes(ctx context.Context) ([]*domain.Route, error)

	CreateStation(ctx context.Context, s *domain.ChargingStation) (*domain.ChargingStation, error)
	GetStation(ctx context.Context, id int64) (*domain.ChargingStation, error)
	ListStations(ctx context.Context) ([]*domain.ChargingStation, error)
	UpdateStation(ctx context.Context, id int64, patch domain.StationPatch) (*domain.ChargingStation, error)

	// CreateTokenTransaction appends a ledger row. It does not touch the
	// owner's balance; callers apply the amount themselves.
	CreateTokenTransaction(ctx context.Context, t *domain.TokenTransaction) (*domain.TokenTransaction, error)
	// ListTokenTransactionsByUser returns the user's rows, newest first.
	ListTokenTransactionsByUser(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error)
	ListTokenTransactions(ctx context.Context) ([]*domain.TokenTransaction, error)

	CreateImpactActivity(ctx context.Context, a *domain.ImpactActivity) (*domain.ImpactActivity, error)
	// ListImpactActivitiesByUser returns the user's activities, newest first.
	ListImpactActivitiesByUser(ctx context.Context, userID int64) ([]*domain.ImpactActivity, error)

	CreateRedemptionOption(ctx context.Context, o *domain.RedemptionOption) (*domain.RedemptionOption, error)
	GetRedemptionOption(ctx context.Context, id int64) (*domain.RedemptionOption, error)
	ListRedemptionOptions(ctx context.Context, activeOnly bool) ([]*domain.RedemptionOption, error)

	// CreateSelectedRoute fails with domain.ErrRouteAlreadySelected when the
	// (user, route) pair already exists.
	CreateSelectedRoute(ctx context.Context, s *domain.SelectedRoute) (*domain.SelectedRoute, error)
	ListSelectedRoutesByUser(ctx context.Context, userID int64) ([]*domain.SelectedRoute, error)
	ListSelectedRoutes(ctx context.Context) ([]*domain.SelectedRoute, error)

	// WithTx runs fn as a single unit of work. No other store operation
	// interleaves with fn, and every write made through tx is rolled back if
	// fn returns an error.
	WithTx(ctx context.Context, fn func(tx LedgerStore) error) error
}

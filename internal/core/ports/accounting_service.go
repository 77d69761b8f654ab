package ports

import (
	"context"
	"time"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// ImpactStats is the fixed-goal impact block of a user snapshot.
type ImpactStats struct {
	CO2Saved            float64 `json:"co2Saved"`
	EnergySaved         float64 `json:"energySaved"`
	RenewablePercentage int     `json:"renewablePercentage"`
	CO2Goal             float64 `json:"co2Goal"`
	EnergyGoal          float64 `json:"energyGoal"`
	RenewableGoal       int     `json:"renewableGoal"`
	CommunityCO2        float64 `json:"communityCo2"`
	CommunityEnergy     float64 `json:"communityEnergy"`
	TreesEquivalent     int     `json:"treesEquivalent"`
}

// TokenActivity sums the trailing week of ledger rows by direction.
type TokenActivity struct {
	Earned   int64 `json:"earned"`
	Redeemed int64 `json:"redeemed"`
}

// RecentActivity is one formatted entry of the snapshot activity feed.
type RecentActivity struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Time   string `json:"time"`
	Impact string `json:"impact"`
	Icon   string `json:"icon"`
}

// UserSnapshot is the dashboard read model for one user.
type UserSnapshot struct {
	Username         string           `json:"username"`
	Role             domain.Role      `json:"role"`
	Tokens           int64            `json:"tokens"`
	ImpactStats      ImpactStats      `json:"impactStats"`
	TokenActivity    TokenActivity    `json:"tokenActivity"`
	ImpactActivities []RecentActivity `json:"impactActivities"`
}

// ImpactActivityView is an activity as listed by the impact page.
type ImpactActivityView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CO2Saved    *float64  `json:"co2Saved"`
	EnergySaved *float64  `json:"energySaved"`
	Date        time.Time `json:"date"`
}

// ImpactSummary is the cumulative impact of a user plus the full activity list.
type ImpactSummary struct {
	CO2Saved    float64              `json:"co2Saved"`
	EnergySaved float64              `json:"energySaved"`
	Activities  []ImpactActivityView `json:"activities"`
}

// RouteView is a catalog route shaped for the map client.
type RouteView struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Type                string       `json:"type"`
	ETA                 string       `json:"eta"`
	Duration            string       `json:"duration"`
	RenewablePercentage int          `json:"renewablePercentage"`
	Tokens              int64        `json:"tokens"`
	StartLocation       string       `json:"startLocation"`
	EndLocation         string       `json:"endLocation"`
	TransportType       string       `json:"transportType"`
	TransportName       string       `json:"transportName"`
	CO2Saved            float64      `json:"co2Saved"`
	Color               string       `json:"color"`
	StartCoord          [2]float64   `json:"startCoord"`
	EndCoord            [2]float64   `json:"endCoord"`
	Points              [][2]float64 `json:"points"`
	Selected            bool         `json:"selected"`
}

// RedeemInput carries a redemption request.
type RedeemInput struct {
	UserID   int64
	OptionID int64
	Cost     int64
}

// AccountingService enforces the token and impact rules and builds the
// aggregated views consumed by the dashboards.
type AccountingService interface {
	RecordRouteSelection(ctx context.Context, userID, routeID int64) (*domain.SelectedRoute, error)
	RedeemTokens(ctx context.Context, in RedeemInput) (*domain.TokenTransaction, error)
	ComputeUserSnapshot(ctx context.Context, userID int64) (*UserSnapshot, error)
	ListRoutesForDisplay(ctx context.Context, userID int64) ([]RouteView, error)
	ListTransactions(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error)
	ImpactSummary(ctx context.Context, userID int64) (*ImpactSummary, error)
	ListRedemptionOptions(ctx context.Context) ([]*domain.RedemptionOption, error)
}

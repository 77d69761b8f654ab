package ports

import (
	"context"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// Dashboard is the role-specific landing payload. Exactly one of the
// variant fields is set, matching Role.
type Dashboard struct {
	Role        domain.Role           `json:"role"`
	Commuter    *CommuterDashboard    `json:"commuter,omitempty"`
	Business    *BusinessDashboard    `json:"business,omitempty"`
	CityPlanner *CityPlannerDashboard `json:"cityPlanner,omitempty"`
}

type CommuterDashboard struct {
	Snapshot *UserSnapshot `json:"snapshot"`
	Routes   []RouteView   `json:"routes"`
}

// RouteUsage counts how many users selected a catalog route.
type RouteUsage struct {
	RouteID    int64   `json:"routeId"`
	Name       string  `json:"name"`
	Selections int     `json:"selections"`
	CO2Saved   float64 `json:"co2Saved"`
}

type BusinessDashboard struct {
	Users             int          `json:"users"`
	TokensIssued      int64        `json:"tokensIssued"`
	TokensRedeemed    int64        `json:"tokensRedeemed"`
	TokensOutstanding int64        `json:"tokensOutstanding"`
	RouteUsage        []RouteUsage `json:"routeUsage"`
}

type CityPlannerDashboard struct {
	Stations               int            `json:"stations"`
	AvailableStations      int            `json:"availableStations"`
	AverageRenewable       float64        `json:"averageRenewable"`
	StationsByEnergySource map[string]int `json:"stationsByEnergySource"`
	CommunityCO2Saved      float64        `json:"communityCo2Saved"`
}

// DashboardService renders the dashboard variant for a role.
type DashboardService interface {
	Render(ctx context.Context, userID int64, role domain.Role) (*Dashboard, error)
}

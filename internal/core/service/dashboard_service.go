package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// DashboardRenderer builds the dashboard variant of one role.
type DashboardRenderer interface {
	Role() domain.Role
	Render(ctx context.Context, userID int64, d *ports.Dashboard) error
}

// DashboardService dispatches to the renderer registered for a role.
type DashboardService struct {
	store     ports.LedgerStore
	renderers map[domain.Role]DashboardRenderer
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService registers the commuter, business and city planner
// variants.
func NewDashboardService(store ports.LedgerStore, accounting ports.AccountingService) *DashboardService {
	svc := &DashboardService{store: store, renderers: make(map[domain.Role]DashboardRenderer)}
	svc.Register(commuterDashboard{accounting: accounting})
	svc.Register(businessDashboard{store: store})
	svc.Register(cityPlannerDashboard{store: store})
	return svc
}

// Register adds or replaces the renderer for r.Role().
func (s *DashboardService) Register(r DashboardRenderer) {
	s.renderers[r.Role()] = r
}

// Render builds the dashboard for role. An empty role falls back to the
// user's own role.
func (s *DashboardService) Render(ctx context.Context, userID int64, role domain.Role) (*ports.Dashboard, error) {
	if role == "" {
		u, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("render dashboard: %w", err)
		}
		role = u.Role
	}
	r, ok := s.renderers[role]
	if !ok {
		return nil, domain.NewValidationError("unknown role %q", role)
	}
	d := &ports.Dashboard{Role: role}
	if err := r.Render(ctx, userID, d); err != nil {
		return nil, fmt.Errorf("render %s dashboard: %w", role, err)
	}
	return d, nil
}

type commuterDashboard struct {
	accounting ports.AccountingService
}

func (commuterDashboard) Role() domain.Role { return domain.RoleCommuter }

func (c commuterDashboard) Render(ctx context.Context, userID int64, d *ports.Dashboard) error {
	snapshot, err := c.accounting.ComputeUserSnapshot(ctx, userID)
	if err != nil {
		return err
	}
	routes, err := c.accounting.ListRoutesForDisplay(ctx, userID)
	if err != nil {
		return err
	}
	d.Commuter = &ports.CommuterDashboard{Snapshot: snapshot, Routes: routes}
	return nil
}

type businessDashboard struct {
	store ports.LedgerStore
}

func (businessDashboard) Role() domain.Role { return domain.RoleBusiness }

func (b businessDashboard) Render(ctx context.Context, _ int64, d *ports.Dashboard) error {
	users, err := b.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	txs, err := b.store.ListTokenTransactions(ctx)
	if err != nil {
		return err
	}
	routes, err := b.store.ListRoutes(ctx)
	if err != nil {
		return err
	}
	selections, err := b.store.ListSelectedRoutes(ctx)
	if err != nil {
		return err
	}

	out := &ports.BusinessDashboard{Users: len(users)}
	for _, t := range txs {
		if t.Amount > 0 {
			out.TokensIssued += t.Amount
		} else {
			out.TokensRedeemed -= t.Amount
		}
	}
	for _, u := range users {
		out.TokensOutstanding += u.Tokens
	}

	counts := make(map[int64]int, len(routes))
	for _, sel := range selections {
		counts[sel.RouteID]++
	}
	out.RouteUsage = make([]ports.RouteUsage, 0, len(routes))
	for _, r := range routes {
		n := counts[r.ID]
		out.RouteUsage = append(out.RouteUsage, ports.RouteUsage{
			RouteID:    r.ID,
			Name:       r.Name,
			Selections: n,
			CO2Saved:   r.CO2Saved.Mul(decimal.NewFromInt(int64(n))).InexactFloat64(),
		})
	}
	sort.SliceStable(out.RouteUsage, func(i, j int) bool {
		return out.RouteUsage[i].Selections > out.RouteUsage[j].Selections
	})
	d.Business = out
	return nil
}

type cityPlannerDashboard struct {
	store ports.LedgerStore
}

func (cityPlannerDashboard) Role() domain.Role { return domain.RoleCityPlanner }

func (c cityPlannerDashboard) Render(ctx context.Context, _ int64, d *ports.Dashboard) error {
	stations, err := c.store.ListStations(ctx)
	if err != nil {
		return err
	}
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		return err
	}

	out := &ports.CityPlannerDashboard{
		Stations:               len(stations),
		StationsByEnergySource: make(map[string]int),
	}
	var renewable int
	for _, st := range stations {
		if st.Available {
			out.AvailableStations++
		}
		renewable += st.RenewablePercentage
		out.StationsByEnergySource[st.EnergySource]++
	}
	if len(stations) > 0 {
		out.AverageRenewable = float64(renewable) / float64(len(stations))
	}
	co2 := decimal.Zero
	for _, u := range users {
		co2 = co2.Add(u.CO2Saved)
	}
	out.CommunityCO2Saved = co2.InexactFloat64()
	d.CityPlanner = out
	return nil
}

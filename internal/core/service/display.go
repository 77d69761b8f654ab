package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

const (
	weeklyWindow       = 7 * 24 * time.Hour
	recentActivityCap  = 5
	placeholderETA     = "8:45 AM"
	routeJitterDegrees = 0.01
)

// Fixed goals and community figures shown next to a user's own impact.
const (
	snapshotRenewablePercentage = 74
	snapshotCO2Goal             = 50
	snapshotEnergyGoal          = 200
	snapshotRenewableGoal       = 80
	snapshotCommunityCO2        = 5284
	snapshotCommunityEnergy     = 12450
	snapshotTreesEquivalent     = 842
)

// relativeDayLabel buckets the age of ts by whole days. Anything a week or
// older collapses into "Last week"; future timestamps count as today.
func relativeDayLabel(now, ts time.Time) string {
	days := int(now.Sub(ts) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return "Last week"
	}
}

func impactText(a *domain.ImpactActivity) string {
	if a.CO2Saved != nil {
		return fmt.Sprintf("%s kg CO₂ saved", a.CO2Saved.String())
	}
	if a.EnergySaved != nil {
		return fmt.Sprintf("%s kWh from renewable energy", a.EnergySaved.String())
	}
	return ""
}

// generateRoutePoints returns {start, jittered midpoint, end}. Each midpoint
// axis moves by a uniform offset in [-0.005, 0.005).
func generateRoutePoints(rnd Random, start, end domain.Coordinates) [][2]float64 {
	mid := domain.Coordinates{
		Lat: (start.Lat+end.Lat)/2 + (rnd.Float64()-0.5)*routeJitterDegrees,
		Lng: (start.Lng+end.Lng)/2 + (rnd.Float64()-0.5)*routeJitterDegrees,
	}
	return [][2]float64{start.Pair(), mid.Pair(), end.Pair()}
}

func routeView(rnd Random, r *domain.Route, selected bool) ports.RouteView {
	start, end := r.Start(), r.End()
	return ports.RouteView{
		ID:                  fmt.Sprint(r.ID),
		Name:                r.Name,
		Type:                string(r.Type),
		ETA:                 placeholderETA,
		Duration:            r.Duration,
		RenewablePercentage: r.RenewablePercentage,
		Tokens:              r.Tokens,
		StartLocation:       r.StartLocation,
		EndLocation:         r.EndLocation,
		TransportType:       r.TransportType,
		TransportName:       r.TransportName,
		CO2Saved:            r.CO2Saved.InexactFloat64(),
		Color:               r.Color,
		StartCoord:          start.Pair(),
		EndCoord:            end.Pair(),
		Points:              generateRoutePoints(rnd, start, end),
		Selected:            selected,
	}
}

func stationView(s *domain.ChargingStation) ports.StationView {
	return ports.StationView{
		ID:                  fmt.Sprint(s.ID),
		Name:                s.Name,
		Position:            s.Position().Pair(),
		RenewablePercentage: s.RenewablePercentage,
		Available:           s.Available,
		EnergySource:        s.EnergySource,
	}
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

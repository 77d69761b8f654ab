package ports

import (
	"context"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// StationView is a charging station shaped for the map client.
type StationView struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Position            [2]float64 `json:"position"`
	RenewablePercentage int        `json:"renewablePercentage"`
	Available           bool       `json:"available"`
	EnergySource        string     `json:"energySource"`
}

// StationEvents receives station changes that must reach realtime clients.
type StationEvents interface {
	StationAvailabilityChanged(s *domain.ChargingStation)
	StationRenewableChanged(s *domain.ChargingStation)
}

// StationService owns station reads and every station mutation, whether it
// comes from REST, a websocket client or the simulator.
type StationService interface {
	ListStations(ctx context.Context) ([]*domain.ChargingStation, error)
	ListStationViews(ctx context.Context) ([]StationView, error)
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
	SetAvailability(ctx context.Context, stationID int64, available bool) (*domain.ChargingStation, error)
	// FlipRandomAvailability toggles one randomly chosen station.
	FlipRandomAvailability(ctx context.Context) (*domain.ChargingStation, error)
	// DriftRandomRenewable moves one randomly chosen station's renewable share
	// by a bounded random delta.
	DriftRandomRenewable(ctx context.Context) (*domain.ChargingStation, error)
}

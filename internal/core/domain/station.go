package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinRenewablePercentage = 30
	MaxRenewablePercentage = 95
)

// ChargingStation is an EV charging point shown on the map.
type ChargingStation struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Latitude            decimal.Decimal `json:"latitude"`
	Longitude           decimal.Decimal `json:"longitude"`
	RenewablePercentage int             `json:"renewablePercentage"`
	Available           bool            `json:"available"`
	EnergySource        string          `json:"energySource"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Position returns the station location as float coordinates.
func (s ChargingStation) Position() Coordinates {
	return Coordinates{Lat: s.Latitude.InexactFloat64(), Lng: s.Longitude.InexactFloat64()}
}

// StationPatch carries the mutable station fields. Nil fields are left as is.
type StationPatch struct {
	Available           *bool
	RenewablePercentage *int
}

// Apply merges p into s.
func (p StationPatch) Apply(s *ChargingStation) {
	if p.Available != nil {
		s.Available = *p.Available
	}
	if p.RenewablePercentage != nil {
		s.RenewablePercentage = *p.RenewablePercentage
	}
}

// ClampRenewable keeps a renewable share inside the simulated range.
func ClampRenewable(pct int) int {
	return max(MinRenewablePercentage, min(MaxRenewablePercentage, pct))
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RouteCategory is the trip purpose a catalog route is recommended for.
type RouteCategory string

const (
	RouteOffice   RouteCategory = "office"
	RouteShopping RouteCategory = "shopping"
	RouteLeisure  RouteCategory = "leisure"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pair returns the point as a [lat, lng] tuple, the shape map clients expect.
func (c Coordinates) Pair() [2]float64 {
	return [2]float64{c.Lat, c.Lng}
}

// Route is a read-only catalog entry describing an eco-friendly trip.
type Route struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	Type                RouteCategory   `json:"type"`
	StartLocation       string          `json:"startLocation"`
	EndLocation         string          `json:"endLocation"`
	StartLat            decimal.Decimal `json:"startLat"`
	StartLng            decimal.Decimal `json:"startLng"`
	EndLat              decimal.Decimal `json:"endLat"`
	EndLng              decimal.Decimal `json:"endLng"`
	Duration            string          `json:"duration"`
	Distance            decimal.Decimal `json:"distance"`
	RenewablePercentage int             `json:"renewablePercentage"`
	CO2Saved            decimal.Decimal `json:"co2Saved"`
	Tokens              int64           `json:"tokens"`
	TransportType       string          `json:"transportType"`
	TransportName       string          `json:"transportName"`
	Color               string          `json:"color"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// Start returns the route origin as float coordinates.
func (r Route) Start() Coordinates {
	return Coordinates{Lat: r.StartLat.InexactFloat64(), Lng: r.StartLng.InexactFloat64()}
}

// End returns the route destination as float coordinates.
func (r Route) End() Coordinates {
	return Coordinates{Lat: r.EndLat.InexactFloat64(), Lng: r.EndLng.InexactFloat64()}
}

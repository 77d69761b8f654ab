// Package realtime pushes station and route state to websocket clients.
package realtime

import (
	"encoding/json"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// Message tags.
const (
	TypeInitStations               = "INIT_STATIONS"
	TypeInitRoutes                 = "INIT_ROUTES"
	TypeStationAvailabilityUpdated = "STATION_AVAILABILITY_UPDATED"
	TypeStationRenewableUpdated    = "STATION_RENEWABLE_UPDATED"
	TypeError                      = "ERROR"

	TypeUpdateStationAvailability = "UPDATE_STATION_AVAILABILITY"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals a tagged message.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Type: msgType, Payload: payload})
}

// StationPayload carries coordinates as JSON numbers, like GET /api/stations.
type StationPayload struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	RenewablePercentage int     `json:"renewablePercentage"`
	Available           bool    `json:"available"`
	EnergySource        string  `json:"energySource"`
}

type RoutePayload struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	StartLocation       string  `json:"startLocation"`
	EndLocation         string  `json:"endLocation"`
	RenewablePercentage int     `json:"renewablePercentage"`
	CO2Saved            float64 `json:"co2Saved"`
	Tokens              int64   `json:"tokens"`
}

type AvailabilityPayload struct {
	ID        int64 `json:"id"`
	Available bool  `json:"available"`
}

type RenewablePayload struct {
	ID                  int64 `json:"id"`
	RenewablePercentage int   `json:"renewablePercentage"`
}

func StationsPayload(stations []*domain.ChargingStation) []StationPayload {
	out := make([]StationPayload, 0, len(stations))
	for _, s := range stations {
		out = append(out, StationPayload{
			ID:                  s.ID,
			Name:                s.Name,
			Latitude:            s.Latitude.InexactFloat64(),
			Longitude:           s.Longitude.InexactFloat64(),
			RenewablePercentage: s.RenewablePercentage,
			Available:           s.Available,
			EnergySource:        s.EnergySource,
		})
	}
	return out
}

func RoutesPayload(routes []*domain.Route) []RoutePayload {
	out := make([]RoutePayload, 0, len(routes))
	for _, r := range routes {
		out = append(out, RoutePayload{
			ID:                  r.ID,
			Name:                r.Name,
			Type:                string(r.Type),
			StartLocation:       r.StartLocation,
			EndLocation:         r.EndLocation,
			RenewablePercentage: r.RenewablePercentage,
			CO2Saved:            r.CO2Saved.InexactFloat64(),
			Tokens:              r.Tokens,
		})
	}
	return out
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/core/ports"
	"github.com/greenmiles/rewards-api/internal/infrastructure/realtime"
)

const wsCommandTimeout = 5 * time.Second

type updateAvailabilityCommand struct {
	StationID flexibleID `json:"stationId"`
	Available *bool      `json:"available"`
}

type wsErrorPayload struct {
	Message string `json:"message"`
}

// WebsocketHandler upgrades /ws connections, sends the initial station and
// route snapshot, then applies inbound commands through the station service.
type WebsocketHandler struct {
	hub      *realtime.Hub
	stations ports.StationService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWebsocketHandler builds the handler. An empty allowedOrigins accepts any
// Origin header.
func NewWebsocketHandler(hub *realtime.Hub, stations ports.StationService, allowedOrigins []string, log zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:      hub,
		stations: stations,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// Serve handles GET /ws. It blocks for the lifetime of the connection.
func (h *WebsocketHandler) Serve(c echo.Context) error {
	ctx := c.Request().Context()
	stations, err := h.stations.ListStations(ctx)
	if err != nil {
		return err
	}
	routes, err := h.stations.ListRoutes(ctx)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the failure response.
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := h.hub.Register(conn)
	if err := client.Send(realtime.TypeInitStations, realtime.StationsPayload(stations)); err != nil {
		client.Close()
		return nil
	}
	if err := client.Send(realtime.TypeInitRoutes, realtime.RoutesPayload(routes)); err != nil {
		client.Close()
		return nil
	}
	h.hub.Open(client)

	client.Run(h.handleMessage)
	return nil
}

func (h *WebsocketHandler) handleMessage(client *realtime.Client, data []byte) {
	var env realtime.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reject(client, "malformed message")
		return
	}

	switch env.Type {
	case realtime.TypeUpdateStationAvailability:
		var cmd updateAvailabilityCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil || cmd.StationID <= 0 || cmd.Available == nil {
			h.reject(client, "stationId and available are required")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), wsCommandTimeout)
		defer cancel()
		if _, err := h.stations.SetAvailability(ctx, int64(cmd.StationID), *cmd.Available); err != nil {
			h.log.Warn().Err(err).Str("client_id", client.ID()).Int64("station_id", int64(cmd.StationID)).Msg("websocket availability update failed")
			h.reject(client, "station update failed")
		}
	default:
		h.reject(client, "unknown message type "+env.Type)
	}
}

func (h *WebsocketHandler) reject(client *realtime.Client, msg string) {
	h.log.Debug().Str("client_id", client.ID()).Str("reason", msg).Msg("websocket message rejected")
	_ = client.Send(realtime.TypeError, wsErrorPayload{Message: msg})
}

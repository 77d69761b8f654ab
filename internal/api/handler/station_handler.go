package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/core/ports"
)

type StationHandler struct {
	stations ports.StationService
}

func NewStationHandler(stations ports.StationService) *StationHandler {
	return &StationHandler{stations: stations}
}

// List handles GET /api/stations.
//
// @Summary      Charging stations
// @Tags         stations
// @Produce      json
// @Success      200  {array}   ports.StationView
// @Failure      500  {object}  map[string]string
// @Router       /api/stations [get]
func (h *StationHandler) List(c echo.Context) error {
	views, err := h.stations.ListStationViews(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// UpdateAvailability handles PATCH /api/stations/:id/availability. Connected
// websocket clients are notified of the change.
//
// @Summary      Set station availability
// @Tags         stations
// @Accept       json
// @Produce      json
// @Param        id    path      int                        true  "Station id"
// @Param        body  body      updateAvailabilityRequest  true  "New availability"
// @Success      200   {object}  domain.ChargingStation
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/stations/{id}/availability [patch]
func (h *StationHandler) UpdateAvailability(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid station id")
	}
	var req updateAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	station, err := h.stations.SetAvailability(c.Request().Context(), id, *req.Available)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, station)
}

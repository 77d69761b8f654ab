package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

type RouteHandler struct {
	accounting ports.AccountingService
}

func NewRouteHandler(accounting ports.AccountingService) *RouteHandler {
	return &RouteHandler{accounting: accounting}
}

// List handles GET /api/routes.
//
// @Summary      Eco routes for the map
// @Tags         routes
// @Produce      json
// @Success      200  {array}   ports.RouteView
// @Failure      500  {object}  map[string]string
// @Router       /api/routes [get]
func (h *RouteHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	routes, err := h.accounting.ListRoutesForDisplay(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, routes)
}

// Select handles POST /api/routes/select.
//
// @Summary      Select a route and earn its tokens
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string              false  "Client retry key"
// @Param        body             body      selectRouteRequest  true   "Route to select"
// @Success      201              {object}  selectRouteResponse
// @Failure      400              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /api/routes/select [post]
func (h *RouteHandler) Select(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req selectRouteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sel, err := h.accounting.RecordRouteSelection(c.Request().Context(), userID, int64(req.RouteID))
	if err != nil {
		return err
	}
	metrics.RouteSelectionsTotal.WithLabelValues(strconv.FormatInt(sel.RouteID, 10)).Inc()
	return c.JSON(http.StatusCreated, selectRouteResponse{Success: true, SelectedRoute: sel})
}

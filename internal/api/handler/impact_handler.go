package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// ImpactHandler serves the impact page and the role dashboards.
type ImpactHandler struct {
	accounting ports.AccountingService
	dashboards ports.DashboardService
}

func NewImpactHandler(accounting ports.AccountingService, dashboards ports.DashboardService) *ImpactHandler {
	return &ImpactHandler{accounting: accounting, dashboards: dashboards}
}

// Summary handles GET /api/impact.
//
// @Summary      Cumulative impact and activity list
// @Tags         impact
// @Produce      json
// @Success      200  {object}  ports.ImpactSummary
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/impact [get]
func (h *ImpactHandler) Summary(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	summary, err := h.accounting.ImpactSummary(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Dashboard handles GET /api/dashboard?role=. Without a role the acting
// user's own role is used.
//
// @Summary      Role dashboard
// @Tags         impact
// @Produce      json
// @Param        role  query     string  false  "commuter, business or cityPlanner"
// @Success      200   {object}  ports.Dashboard
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/dashboard [get]
func (h *ImpactHandler) Dashboard(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var q dashboardQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	d, err := h.dashboards.Render(c.Request().Context(), userID, domain.Role(q.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

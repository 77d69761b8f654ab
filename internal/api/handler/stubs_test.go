package handler

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

type stubAccounting struct {
	selectFn   func(ctx context.Context, userID, routeID int64) (*domain.SelectedRoute, error)
	redeemFn   func(ctx context.Context, in ports.RedeemInput) (*domain.TokenTransaction, error)
	snapshotFn func(ctx context.Context, userID int64) (*ports.UserSnapshot, error)
	routesFn   func(ctx context.Context, userID int64) ([]ports.RouteView, error)
	txsFn      func(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error)
	impactFn   func(ctx context.Context, userID int64) (*ports.ImpactSummary, error)
	optionsFn  func(ctx context.Context) ([]*domain.RedemptionOption, error)
}

func (s *stubAccounting) RecordRouteSelection(ctx context.Context, userID, routeID int64) (*domain.SelectedRoute, error) {
	return s.selectFn(ctx, userID, routeID)
}

func (s *stubAccounting) RedeemTokens(ctx context.Context, in ports.RedeemInput) (*domain.TokenTransaction, error) {
	return s.redeemFn(ctx, in)
}

func (s *stubAccounting) ComputeUserSnapshot(ctx context.Context, userID int64) (*ports.UserSnapshot, error) {
	return s.snapshotFn(ctx, userID)
}

func (s *stubAccounting) ListRoutesForDisplay(ctx context.Context, userID int64) ([]ports.RouteView, error) {
	return s.routesFn(ctx, userID)
}

func (s *stubAccounting) ListTransactions(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error) {
	return s.txsFn(ctx, userID)
}

func (s *stubAccounting) ImpactSummary(ctx context.Context, userID int64) (*ports.ImpactSummary, error) {
	return s.impactFn(ctx, userID)
}

func (s *stubAccounting) ListRedemptionOptions(ctx context.Context) ([]*domain.RedemptionOption, error) {
	return s.optionsFn(ctx)
}

type stubUsers struct {
	signUpFn func(ctx context.Context, in ports.SignUpInput) (*domain.User, error)
	googleFn func(ctx context.Context, p ports.GoogleProfile) (*ports.GoogleLoginResult, error)
}

func (s *stubUsers) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubUsers) GoogleLogin(ctx context.Context, p ports.GoogleProfile) (*ports.GoogleLoginResult, error) {
	return s.googleFn(ctx, p)
}

type stubStations struct {
	ports.StationService
	setFn func(ctx context.Context, id int64, available bool) (*domain.ChargingStation, error)
}

func (s *stubStations) SetAvailability(ctx context.Context, id int64, available bool) (*domain.ChargingStation, error) {
	return s.setFn(ctx, id, available)
}

type stubDashboards struct {
	renderFn func(ctx context.Context, userID int64, role domain.Role) (*ports.Dashboard, error)
}

func (s *stubDashboards) Render(ctx context.Context, userID int64, role domain.Role) (*ports.Dashboard, error) {
	return s.renderFn(ctx, userID, role)
}

// newTestContext builds an echo context with the validator installed and the
// acting user set, as the router would.
func newTestContext(method, target string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(UserIDKey, int64(1))
	return c, rec
}

package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/api/handler"
	"github.com/greenmiles/rewards-api/internal/api/middleware"
	"github.com/greenmiles/rewards-api/internal/core/ports"
	ops "github.com/greenmiles/rewards-api/internal/infrastructure/http"
	"github.com/greenmiles/rewards-api/internal/infrastructure/http/handlers"
	"github.com/greenmiles/rewards-api/internal/infrastructure/realtime"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Accounting ports.AccountingService
	Users      ports.UserService
	Stations   ports.StationService
	Dashboards ports.DashboardService
	Hub        *realtime.Hub

	// Idempotency may be nil, in which case Idempotency-Key is ignored.
	Idempotency middleware.IdempotencyStore
	// Readiness lists the dependencies probed by /health/ready.
	Readiness map[string]handlers.Pinger

	DemoUserID     int64
	AllowedOrigins []string
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Metrics())

	// --- Dependencies ---
	userHandler := handler.NewUserHandler(d.Accounting, d.Users)
	routeHandler := handler.NewRouteHandler(d.Accounting)
	stationHandler := handler.NewStationHandler(d.Stations)
	tokenHandler := handler.NewTokenHandler(d.Accounting)
	impactHandler := handler.NewImpactHandler(d.Accounting, d.Dashboards)
	wsHandler := handler.NewWebsocketHandler(d.Hub, d.Stations, d.AllowedOrigins, d.Log)
	once := middleware.Idempotency(d.Idempotency, d.Log)

	// --- REST API, acting as the demo user ---
	g := e.Group("/api", middleware.CurrentUser(d.DemoUserID))

	g.GET("/user", userHandler.Current)
	g.POST("/users", userHandler.Create)
	g.POST("/auth/google", userHandler.GoogleLogin)

	g.GET("/routes", routeHandler.List)
	g.POST("/routes/select", routeHandler.Select, once)

	g.GET("/stations", stationHandler.List)
	g.PATCH("/stations/:id/availability", stationHandler.UpdateAvailability)

	g.GET("/tokens", tokenHandler.List)
	g.POST("/tokens/redeem", tokenHandler.Redeem, once)
	g.GET("/redemption-options", tokenHandler.Options)

	g.GET("/impact", impactHandler.Summary)
	g.GET("/dashboard", impactHandler.Dashboard)

	// --- Realtime ---
	e.GET("/ws", wsHandler.Serve)

	// --- Health probes and metrics ---
	ops.RegisterOps(e, d.Readiness)

	return e
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

func TestStationHandler_UpdateAvailability(t *testing.T) {
	stub := &stubStations{
		setFn: func(ctx context.Context, id int64, available bool) (*domain.ChargingStation, error) {
			if id != 3 || available {
				t.Fatalf("unexpected args: id=%d available=%v", id, available)
			}
			return &domain.ChargingStation{ID: id, Name: "Harbor Point", Available: available}, nil
		},
	}
	h := NewStationHandler(stub)

	c, rec := newTestContext(http.MethodPatch, "/api/stations/3/availability", strings.NewReader(`{"available":false}`))
	c.SetParamNames("id")
	c.SetParamValues("3")

	if err := h.UpdateAvailability(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestStationHandler_UpdateAvailability_BadInput(t *testing.T) {
	h := NewStationHandler(&stubStations{
		setFn: func(context.Context, int64, bool) (*domain.ChargingStation, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	})

	tests := []struct {
		name string
		id   string
		body string
	}{
		{"non numeric id", "abc", `{"available":true}`},
		{"zero id", "0", `{"available":true}`},
		{"missing available", "1", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPatch, "/", strings.NewReader(tt.body))
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			err := h.UpdateAvailability(c)
			var he *echo.HTTPError
			var ve *domain.ValidationError
			if !errors.As(err, &he) && !errors.As(err, &ve) {
				t.Fatalf("expected a 400-class error, got %v", err)
			}
		})
	}
}

func TestStationHandler_UpdateAvailability_NotFound(t *testing.T) {
	h := NewStationHandler(&stubStations{
		setFn: func(context.Context, int64, bool) (*domain.ChargingStation, error) {
			return nil, domain.ErrStationNotFound
		},
	})

	c, _ := newTestContext(http.MethodPatch, "/", strings.NewReader(`{"available":true}`))
	c.SetParamNames("id")
	c.SetParamValues("99")

	if err := h.UpdateAvailability(c); !errors.Is(err, domain.ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

func TestTokenHandler_Redeem_Success(t *testing.T) {
	stub := &stubAccounting{
		redeemFn: func(ctx context.Context, in ports.RedeemInput) (*domain.TokenTransaction, error) {
			if in.UserID != 1 || in.OptionID != 3 || in.Cost != 100 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.TokenTransaction{ID: 9, UserID: 1, Amount: -100, Type: domain.TransactionRedeemed, Description: "Redeemed: Coffee"}, nil
		},
	}
	h := NewTokenHandler(stub)

	// optionId arrives as a string from map clients.
	c, rec := newTestContext(http.MethodPost, "/api/tokens/redeem", strings.NewReader(`{"optionId":"3","cost":100}`))
	if err := h.Redeem(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp struct {
		Success     bool                    `json:"success"`
		Transaction domain.TokenTransaction `json:"transaction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Transaction.Amount != -100 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTokenHandler_Redeem_InvalidPayload(t *testing.T) {
	stub := &stubAccounting{
		redeemFn: func(context.Context, ports.RedeemInput) (*domain.TokenTransaction, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	h := NewTokenHandler(stub)

	cases := []string{
		`{"optionId":3}`,
		`{"optionId":3,"cost":-5}`,
		`{"cost":10}`,
		`{"optionId":"abc","cost":10}`,
	}
	for _, body := range cases {
		c, _ := newTestContext(http.MethodPost, "/api/tokens/redeem", strings.NewReader(body))
		err := h.Redeem(c)
		if err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestTokenHandler_Redeem_ServiceErrorPropagates(t *testing.T) {
	stub := &stubAccounting{
		redeemFn: func(context.Context, ports.RedeemInput) (*domain.TokenTransaction, error) {
			return nil, fmt.Errorf("redeem: %w", domain.ErrInsufficientBalance)
		},
	}
	h := NewTokenHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/api/tokens/redeem", strings.NewReader(`{"optionId":1,"cost":500}`))
	err := h.Redeem(c)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", domain.ErrInsufficientBalance), "insufficient_balance"},
		{domain.ErrRedemptionOptionNotFound, "not_found"},
		{domain.NewValidationError("cost must be positive"), "invalid"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := rejectReason(tt.err); got != tt.want {
			t.Errorf("rejectReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTokenHandler_List_RequiresActingUser(t *testing.T) {
	h := NewTokenHandler(&stubAccounting{})
	c, _ := newTestContext(http.MethodGet, "/api/tokens", nil)
	c.Set(UserIDKey, nil)

	if err := h.List(c); err == nil {
		t.Fatalf("expected error without acting user")
	}
}

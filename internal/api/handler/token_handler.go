package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

type TokenHandler struct {
	accounting ports.AccountingService
}

func NewTokenHandler(accounting ports.AccountingService) *TokenHandler {
	return &TokenHandler{accounting: accounting}
}

// List handles GET /api/tokens.
//
// @Summary      Token transaction history, newest first
// @Tags         tokens
// @Produce      json
// @Success      200  {array}   domain.TokenTransaction
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/tokens [get]
func (h *TokenHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	txs, err := h.accounting.ListTransactions(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txs)
}

// Redeem handles POST /api/tokens/redeem.
//
// @Summary      Redeem tokens for a reward
// @Tags         tokens
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string         false  "Client retry key"
// @Param        body             body      redeemRequest  true   "Reward and cost"
// @Success      201              {object}  redeemResponse
// @Failure      400              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /api/tokens/redeem [post]
func (h *TokenHandler) Redeem(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		metrics.RedemptionsRejectedTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RedemptionsRejectedTotal.WithLabelValues("invalid").Inc()
		return err
	}

	tx, err := h.accounting.RedeemTokens(c.Request().Context(), ports.RedeemInput{
		UserID:   userID,
		OptionID: int64(req.OptionID),
		Cost:     req.Cost,
	})
	if err != nil {
		metrics.RedemptionsRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		return err
	}
	return c.JSON(http.StatusCreated, redeemResponse{Success: true, Transaction: tx})
}

// Options handles GET /api/redemption-options.
//
// @Summary      Active reward catalog
// @Tags         tokens
// @Produce      json
// @Success      200  {array}   domain.RedemptionOption
// @Failure      500  {object}  map[string]string
// @Router       /api/redemption-options [get]
func (h *TokenHandler) Options(c echo.Context) error {
	opts, err := h.accounting.ListRedemptionOptions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, opts)
}

func rejectReason(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case domain.IsNotFound(err):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}

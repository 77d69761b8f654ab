package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/api/metrics"
)

// HeaderIdempotencyKey carries the client-chosen retry key.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// IdempotencyStore abstracts the key reservation backend (Redis).
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
}

// Idempotency applies a mutating request at most once per Idempotency-Key.
// Requests without the header, or with a nil store, pass straight through. A
// failed request releases its key so the client may retry; a backend outage
// lets the request proceed unguarded.
func Idempotency(store IdempotencyStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if store == nil {
			return next
		}
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return echo.NewHTTPError(http.StatusBadRequest, "idempotency key too long")
			}

			ctx := c.Request().Context()
			scope := c.Request().Method + " " + c.Path()
			reserved, err := store.Reserve(ctx, scope, key)
			if err != nil {
				log.Warn().Err(err).Str("scope", scope).Msg("idempotency check failed, processing anyway")
				return next(c)
			}
			if !reserved {
				metrics.IdempotencyReplaysTotal.Inc()
				return echo.NewHTTPError(http.StatusConflict, "duplicate request")
			}

			err = next(c)
			if err != nil || c.Response().Status >= http.StatusBadRequest {
				if relErr := store.Release(context.WithoutCancel(ctx), scope, key); relErr != nil {
					log.Warn().Err(relErr).Str("scope", scope).Msg("failed to release idempotency key")
				}
			}
			return err
		}
	}
}

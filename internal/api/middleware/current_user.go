package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/greenmiles/rewards-api/internal/api/handler"
)

// CurrentUser injects the fixed demo account as the acting user. There is no
// session model; every caller acts as userID.
func CurrentUser(userID int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(handler.UserIDKey, userID)
			return next(c)
		}
	}
}

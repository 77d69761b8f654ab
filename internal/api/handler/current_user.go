package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key holding the acting user's id.
const UserIDKey = "user_id"

// ctxUserID returns the acting user injected by middleware.CurrentUser and
// fails fast when the middleware did not run.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(UserIDKey).(int64)
	if id <= 0 {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "no acting user")
	}
	return id, nil
}

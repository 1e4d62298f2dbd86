package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelier-market/identity-api/internal/api/middleware"
	"github.com/atelier-market/identity-api/internal/core/domain"
)

// authContext extracts the acting identity injected by the Auth middleware.
// Presence of both values proves the middleware ran; anything else means the
// route was wired without it and the request must not proceed.
func authContext(c echo.Context) (*domain.User, string, error) {
	user, _ := c.Get(middleware.ContextKeyUser).(*domain.User)
	role, _ := c.Get(middleware.ContextKeyRole).(string)
	if user == nil || role == "" {
		return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	return user, role, nil
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/api/metrics"
	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

// Context keys set by Auth on success.
const (
	ContextKeyUser = "user"
	ContextKeyRole = "role"
)

// Auth is the per-request authorization gate. It extracts and verifies the
// bearer token, reloads the acting user, rejects tokens whose embedded role
// no longer matches the stored one, and enforces the manager-only route
// policy. Every failure mode is answered with the same 401; the distinction
// lives only in logs and metrics.
func Auth(codec ports.TokenCodec, repo ports.UserRepository, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return reject(log, c, "missing_header", "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return reject(log, c, "bad_header", "malformed authorization header")
			}

			claims, err := codec.Verify(parts[1])
			if err != nil {
				return reject(log, c, "invalid_token", "token verification failed")
			}

			if !domain.ValidRole(claims.Role) {
				return reject(log, c, "unknown_role", "token carries unknown role")
			}

			user, err := repo.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				return reject(log, c, "user_not_found", "token subject no longer exists")
			}

			// A token issued before a demotion still carries the old role.
			if domain.NormalizeRole(user.Role) != claims.Role {
				return reject(log, c, "stale_role", "token role does not match stored role")
			}

			if managerOnly(c.Request().Method, c.Path()) && claims.Role != domain.RoleManager {
				log.Warn().
					Str("path", c.Path()).
					Str("role", claims.Role).
					Msg("non-manager attempted restricted route")
				metrics.TokenRejectionsTotal.WithLabelValues("forbidden_route").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyRole, claims.Role)

			return next(c)
		}
	}
}

// managerOnly is the static route policy: user listing, role mutation, and
// audit reads require the manager role. Finer self-vs-other checks are the
// identity service's job.
func managerOnly(method, route string) bool {
	switch {
	case method == http.MethodGet && route == "/users":
		return true
	case route == "/users/:id/role":
		return true
	case method == http.MethodGet && route == "/users/:id/audit":
		return true
	}
	return false
}

func reject(log zerolog.Logger, c echo.Context, reason, detail string) error {
	log.Debug().Str("path", c.Path()).Str("reason", reason).Msg(detail)
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

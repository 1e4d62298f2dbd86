package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/atelier-market/identity-api/internal/api/metrics"
	"github.com/atelier-market/identity-api/internal/core/domain"
	"github.com/atelier-market/identity-api/internal/core/ports"
)

// LoginThrottle limits failed login attempts per email (Redis-backed).
type LoginThrottle interface {
	Allow(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// AuditRecorder is the interface the handlers use to enqueue audit events.
// Recording is fire-and-forget and never blocks or fails a request.
type AuditRecorder interface {
	Enqueue(event ports.AuditEventInput)
}

// UserHandler handles the identity HTTP surface.
type UserHandler struct {
	service  ports.UserService
	codec    ports.TokenCodec
	throttle LoginThrottle
	audit    AuditRecorder
	log      zerolog.Logger
}

func NewUserHandler(service ports.UserService, codec ports.TokenCodec, throttle LoginThrottle, audit AuditRecorder, log zerolog.Logger) *UserHandler {
	return &UserHandler{service: service, codec: codec, throttle: throttle, audit: audit, log: log}
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	allowed, err := h.throttle.Allow(ctx, req.Email)
	if err != nil {
		// Fail open: the throttle is abuse protection, not a dependency.
		h.log.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
		allowed = true
	}
	if !allowed {
		metrics.LoginsThrottledTotal.Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}

	user, err := h.service.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			if terr := h.throttle.RecordFailure(ctx, req.Email); terr != nil {
				h.log.Warn().Err(terr).Msg("failed to record login failure")
			}
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			h.audit.Enqueue(ports.AuditEventInput{
				Action:    domain.AuditLoginFailed,
				Detail:    req.Email,
				Timestamp: time.Now().UTC(),
			})
		}
		return err
	}

	if terr := h.throttle.Reset(ctx, req.Email); terr != nil {
		h.log.Warn().Err(terr).Msg("failed to reset login throttle")
	}

	token, err := h.codec.Issue(user.ID, domain.NormalizeRole(user.Role))
	if err != nil {
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.audit.Enqueue(ports.AuditEventInput{
		SubjectID: user.ID,
		ActorID:   user.ID,
		Action:    domain.AuditLogin,
		Timestamp: time.Now().UTC(),
	})

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Register creates a new user account with the member role.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Router       /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Register(c.Request().Context(), ports.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.Inc()
	h.audit.Enqueue(ports.AuditEventInput{
		SubjectID: user.ID,
		ActorID:   user.ID,
		Action:    domain.AuditRegistered,
		Timestamp: time.Now().UTC(),
	})

	return c.JSON(http.StatusCreated, user)
}

// List returns all users. Manager only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  errorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	_, role, err := authContext(c)
	if err != nil {
		return err
	}

	users, err := h.service.ListUsers(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get returns a single user. Self or manager.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, role, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUser(c.Request().Context(), id, role, actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update replaces a user's profile. Self or manager.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Updated profile"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, role, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateUser(c.Request().Context(), ports.UpdateUserInput{
		ID:         id,
		Email:      req.Email,
		Password:   req.Password,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
	}, role, actor.ID)
	if err != nil {
		return err
	}

	h.audit.Enqueue(ports.AuditEventInput{
		SubjectID: user.ID,
		ActorID:   actor.ID,
		Action:    domain.AuditUpdated,
		Timestamp: time.Now().UTC(),
	})

	return c.JSON(http.StatusOK, user)
}

// ChangeRole sets a user's role. Manager only.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      changeRoleRequest  true  "New role"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c echo.Context) error {
	actor, role, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req changeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.ChangeRole(c.Request().Context(), id, req.Role, role)
	if err != nil {
		return err
	}

	h.audit.Enqueue(ports.AuditEventInput{
		SubjectID: user.ID,
		ActorID:   actor.ID,
		Action:    domain.AuditRoleChanged,
		Detail:    req.Role,
		Timestamp: time.Now().UTC(),
	})

	return c.JSON(http.StatusOK, user)
}

// Delete removes a user. Manager only.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, role, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteUser(c.Request().Context(), id, role); err != nil {
		return err
	}

	h.audit.Enqueue(ports.AuditEventInput{
		SubjectID: id,
		ActorID:   actor.ID,
		Action:    domain.AuditDeleted,
		Timestamp: time.Now().UTC(),
	})

	return c.NoContent(http.StatusNoContent)
}

// pathID extracts and validates the :id path parameter.
func pathID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid user id", domain.ErrValidation)
	}
	return id, nil
}

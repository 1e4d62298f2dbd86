package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/atelier-market/identity-api/internal/core/ports"
)

// AuditHandler exposes the audit trail read endpoint.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// ListBySubject returns recent audit events for a user. Manager only
// (enforced by the authorization middleware's route policy).
//
// @Summary      List audit events for a user
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "User ID"
// @Param        limit  query     int     false  "Maximum events to return"
// @Success      200    {array}   domain.AuditEvent
// @Failure      401    {object}  errorResponse
// @Router       /users/{id}/audit [get]
func (h *AuditHandler) ListBySubject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	events, err := h.service.ListBySubject(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, events)
}

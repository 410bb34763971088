package telemed

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/domain/access"
	"github.com/carevista/carevista/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	gate *access.Gate
}

func NewHandler(svc *Service, gate *access.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/telemed/token", h.IssueToken)
}

type tokenRequest struct {
	Channel string `json:"channel"`
}

func (h *Handler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpRTCToken}); err != nil {
		return err
	}

	grant, err := h.svc.IssueToken(ctx, principal.ID, principal.Role, req.Channel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grant)
}

package triage

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
	api.GET("/triage/:caseID", h.Get)
	api.POST("/triage/:caseID/override", h.Override)
	api.POST("/triage/:caseID/handled", h.MarkHandled)
	api.GET("/queue", h.Queue)
}

func (h *Handler) principal(c echo.Context) access.Principal {
	ctx := c.Request().Context()
	return access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.gate.Require(ctx, access.Request{Principal: h.principal(c), Op: access.OpTriageRead}); err != nil {
		return err
	}

	rec, err := h.svc.GetByCase(ctx, c.Param("caseID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type overrideRequest struct {
	Level  string `json:"level"`
	Reason string `json:"reason"`
}

func (h *Handler) Override(c echo.Context) error {
	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpTriageOverride}); err != nil {
		return err
	}

	rec, err := h.svc.Override(ctx, principal.ID, principal.Role, c.Param("caseID"), req.Level, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) MarkHandled(c echo.Context) error {
	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpTriageOverride}); err != nil {
		return err
	}

	if err := h.svc.MarkHandled(ctx, principal.ID, principal.Role, c.Param("caseID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Queue(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.gate.Require(ctx, access.Request{Principal: h.principal(c), Op: access.OpQueueRead}); err != nil {
		return err
	}

	entries, err := h.svc.Queue(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/sessions", auth.RequireRole(auth.RoleHealthWorker))
	g.POST("", h.Start)
	g.GET("/current", h.Current)
	g.POST("/:id/heartbeat", h.Heartbeat)
	g.POST("/:id/end", h.End)
}

type startRequest struct {
	PatientID         string `json:"patient_id"`
	NewPatientName    string `json:"new_patient_name"`
	PresenceConfirmed bool   `json:"presence_confirmed"`
	Language          string `json:"language"`
}

func (h *Handler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	sess, err := h.svc.Start(ctx, auth.ActorIDFromContext(ctx), StartRequest{
		PatientID:         req.PatientID,
		NewPatientName:    req.NewPatientName,
		PresenceConfirmed: req.PresenceConfirmed,
		Language:          req.Language,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Current(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := h.svc.Current(ctx, auth.ActorIDFromContext(ctx))
	if err != nil {
		return err
	}
	if sess == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"session": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": sess})
}

func (h *Handler) Heartbeat(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	ctx := c.Request().Context()
	expiry, err := h.svc.Heartbeat(ctx, id, auth.ActorIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"expires_at": expiry})
}

func (h *Handler) End(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}

	ctx := c.Request().Context()
	if err := h.svc.End(ctx, id, auth.ActorIDFromContext(ctx)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

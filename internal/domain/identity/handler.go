package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/auth/me", h.Me)
	api.GET("/auth/verify", h.Verify)
	api.POST("/auth/register", h.Register)

	tp := api.Group("/patients/temporary")
	tp.GET("", h.ListUnlinked, auth.RequireRole(auth.RoleHealthWorker))
	tp.POST("/:id/link", h.Link, auth.RequireRole(auth.RolePatient, auth.RoleAdmin))
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.svc.Profile(ctx, auth.ActorIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	subject := auth.ActorIDFromContext(ctx)
	role, err := h.svc.ResolveRole(ctx, subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"subject": subject, "role": role})
}

type registerRequest struct {
	Role              string `json:"role"`
	DisplayName       string `json:"display_name"`
	PreferredLanguage string `json:"preferred_language"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	u := &User{
		ID:                auth.ActorIDFromContext(ctx),
		Role:              req.Role,
		DisplayName:       req.DisplayName,
		PreferredLanguage: req.PreferredLanguage,
	}
	if err := h.svc.Register(ctx, auth.RoleFromContext(ctx), u); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUnlinked(c echo.Context) error {
	items, err := h.svc.UnlinkedTempPatients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

type linkRequest struct {
	PatientID string `json:"patient_id"`
}

func (h *Handler) Link(c echo.Context) error {
	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	role := auth.RoleFromContext(ctx)

	permanentID := req.PatientID
	if role == auth.RolePatient {
		// Patients may only claim a temporary record into their own account.
		if permanentID != "" && permanentID != actorID {
			return apperr.Forbidden(apperr.ReasonNotOwner, "patients may only link to their own account")
		}
		permanentID = actorID
	}
	if permanentID == "" {
		return apperr.Validation("patient_id is required")
	}

	if err := h.svc.Link(ctx, actorID, role, c.Param("id"), permanentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

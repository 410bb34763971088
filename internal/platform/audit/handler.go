package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/platform/auth"
	"github.com/carevista/carevista/pkg/pagination"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	recorder Recorder
}

func NewHandler(recorder Recorder) *Handler {
	return &Handler{recorder: recorder}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit/patients/:patientID", h.ListByPatient, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	params := pagination.FromContext(c)
	entries, err := h.recorder.ListByPatient(c.Request().Context(), c.Param("patientID"), params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

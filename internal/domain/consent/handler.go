package consent

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/domain/access"
	"github.com/carevista/carevista/internal/platform/apperr"
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
	api.POST("/consents", h.Grant)
	api.POST("/consents/revoke", h.Revoke)
	api.GET("/consents", h.History)
	api.GET("/consents/scope", h.Scope)
}

type consentRequest struct {
	PatientID   string `json:"patient_id"`
	ConsentType string `json:"consent_type"`
}

// resolvePatient returns the patient the request targets. Patients may
// only target themselves; an empty patient_id defaults to the actor.
func resolvePatient(c echo.Context, requested string) (string, error) {
	ctx := c.Request().Context()
	actorID := auth.ActorIDFromContext(ctx)
	role := auth.RoleFromContext(ctx)

	if requested == "" && role == auth.RolePatient {
		return actorID, nil
	}
	if role == auth.RolePatient && requested != actorID {
		return "", apperr.Forbidden(apperr.ReasonNotOwner, "patients may only manage their own consents")
	}
	if requested == "" {
		return "", apperr.Validation("patient_id is required")
	}
	return requested, nil
}

func (h *Handler) Grant(c echo.Context) error {
	var req consentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := resolvePatient(c, req.PatientID)
	if err != nil {
		return err
	}

	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpConsentWrite, PatientID: patientID}); err != nil {
		return err
	}

	rec, err := h.svc.Grant(ctx, principal.ID, principal.Role, patientID, req.ConsentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Revoke(c echo.Context) error {
	var req consentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := resolvePatient(c, req.PatientID)
	if err != nil {
		return err
	}

	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpConsentWrite, PatientID: patientID}); err != nil {
		return err
	}

	if err := h.svc.Revoke(ctx, principal.ID, principal.Role, patientID, req.ConsentType); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := resolvePatient(c, c.QueryParam("patient_id"))
	if err != nil {
		return err
	}

	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpConsentRead, PatientID: patientID}); err != nil {
		return err
	}

	records, err := h.svc.History(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) Scope(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := resolvePatient(c, c.QueryParam("patient_id"))
	if err != nil {
		return err
	}

	principal := access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpConsentRead, PatientID: patientID}); err != nil {
		return err
	}

	scope, err := h.svc.ActiveScope(ctx, patientID)
	if err != nil {
		return err
	}
	if scope == nil {
		scope = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"patient_id": patientID, "active": scope})
}

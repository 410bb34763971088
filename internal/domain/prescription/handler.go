package prescription

import (
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/prescriptions", h.Create)
	api.GET("/prescriptions/:id", h.Get)
	api.PUT("/prescriptions/:id", h.Update)
	api.POST("/prescriptions/:id/finalize", h.Finalize)
	api.GET("/patients/:patientID/prescriptions", h.ListByPatient)
}

func (h *Handler) principal(c echo.Context) access.Principal {
	ctx := c.Request().Context()
	return access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

type createRequest struct {
	PatientID    string     `json:"patient_id"`
	CaseID       *uuid.UUID `json:"case_id"`
	Medicines    []Medicine `json:"medicines"`
	Instructions string     `json:"instructions"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == "" {
		return apperr.Validation("patient_id is required")
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpPrescriptionEdit, PatientID: req.PatientID}); err != nil {
		return err
	}

	p, err := h.svc.Create(ctx, principal.ID, principal.Role, req.PatientID, req.CaseID, req.Medicines, req.Instructions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	// Patients read their own prescriptions; doctors go through the gate.
	if principal.Role == auth.RolePatient {
		if p.PatientID != principal.ID {
			return apperr.Forbidden(apperr.ReasonNotOwner, "patients may only read their own prescriptions")
		}
		return c.JSON(http.StatusOK, p)
	}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpPrescriptionEdit, PatientID: p.PatientID}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

type updateRequest struct {
	Medicines    []Medicine `json:"medicines"`
	Instructions string     `json:"instructions"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpPrescriptionEdit}); err != nil {
		return err
	}

	p, err := h.svc.Update(ctx, principal.ID, principal.Role, id, req.Medicines, req.Instructions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpPrescriptionEdit}); err != nil {
		return err
	}

	p, err := h.svc.Finalize(ctx, principal.ID, principal.Role, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	ctx := c.Request().Context()
	patientID := c.Param("patientID")
	principal := h.principal(c)

	if principal.Role == auth.RolePatient {
		if patientID != principal.ID {
			return apperr.Forbidden(apperr.ReasonNotOwner, "patients may only read their own prescriptions")
		}
	} else if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpPrescriptionEdit, PatientID: patientID}); err != nil {
		return err
	}

	items, err := h.svc.ListByPatient(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

package intake

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carevista/carevista/internal/domain/access"
	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/auth"
	"github.com/carevista/carevista/internal/platform/providers"
	"github.com/carevista/carevista/pkg/pagination"
)

type Handler struct {
	svc  *Service
	gate *access.Gate
}

func NewHandler(svc *Service, gate *access.Gate) *Handler {
	return &Handler{svc: svc, gate: gate}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patientID/vitals", h.RecordVital)
	api.GET("/patients/:patientID/vitals", h.ListVitals)
	api.POST("/patients/:patientID/symptoms", h.RecordSymptoms)
	api.POST("/patients/:patientID/symptoms/audio", h.RecordSymptomsAudio)
	api.GET("/patients/:patientID/symptoms", h.ListCases)
	api.GET("/patients/:patientID/history", h.History)

	api.GET("/summaries/:id", h.GetSummary)
	api.PUT("/summaries/:id", h.EditSummary)
	api.POST("/summaries/:id/approve", h.ApproveSummary)
	api.POST("/summaries/:id/notes", h.AddDoctorNote, auth.RequireRole(auth.RoleDoctor))

	api.POST("/patients/:patientID/reports", h.UploadReport)
	api.GET("/patients/:patientID/reports", h.ListReports)
	api.POST("/reports/:id/approve", h.ApproveReport)

	api.POST("/lab-reports", h.UploadLabReport, auth.RequireRole(auth.RoleLabTechnician))
	api.GET("/patients/:patientID/lab-reports", h.ListLabReports)
}

func (h *Handler) principal(c echo.Context) access.Principal {
	ctx := c.Request().Context()
	return access.Principal{ID: auth.ActorIDFromContext(ctx), Role: auth.RoleFromContext(ctx)}
}

// targetPatient resolves the patient path param, restricting patients to
// their own record.
func (h *Handler) targetPatient(c echo.Context) (string, error) {
	patientID := c.Param("patientID")
	principal := h.principal(c)
	if principal.Role == auth.RolePatient && patientID != principal.ID {
		return "", apperr.Forbidden(apperr.ReasonNotOwner, "patients may only access their own record")
	}
	return patientID, nil
}

type vitalRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

func (h *Handler) RecordVital(c echo.Context) error {
	var req vitalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpVitalsWrite, PatientID: patientID}); err != nil {
		return err
	}

	v, err := h.svc.RecordVital(ctx, principal.ID, principal.Role, patientID, req.Kind, req.Value, req.Unit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVitals(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}
	principal := h.principal(c)
	op := access.OpVitalsRead
	if principal.Role == auth.RoleDoctor {
		op = access.OpVitalsReadDoc
	}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: op, PatientID: patientID}); err != nil {
		return err
	}

	params := pagination.FromContext(c)
	vitals, err := h.svc.ListVitals(ctx, patientID, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, vitals)
}

func (h *Handler) RecordSymptoms(c echo.Context) error {
	var req SymptomInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpSymptomsWrite, PatientID: patientID}); err != nil {
		return err
	}

	result, err := h.svc.RecordSymptoms(ctx, principal.ID, principal.Role, patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) RecordSymptomsAudio(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpSymptomsAudio, PatientID: patientID}); err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("audio file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	audio, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	severity, err := strconv.Atoi(c.FormValue("severity"))
	if err != nil {
		return apperr.Validation("severity must be a number")
	}
	duration, err := strconv.Atoi(c.FormValue("duration_days"))
	if err != nil {
		return apperr.Validation("duration_days must be a number")
	}
	in := SymptomInput{
		Severity:     severity,
		DurationDays: duration,
		Language:     c.FormValue("language"),
	}

	result, err := h.svc.RecordSymptomsAudio(ctx, principal.ID, principal.Role, patientID, audio, file.Filename, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListCases(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	op := access.OpVitalsRead
	if principal.Role == auth.RoleDoctor {
		op = access.OpSymptomsReadDoc
	}
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: op, PatientID: patientID}); err != nil {
		return err
	}

	params := pagination.FromContext(c)
	cases, err := h.svc.ListCases(ctx, patientID, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cases)
}

func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	patientID := c.Param("patientID")
	if err := h.gate.Require(ctx, access.Request{Principal: h.principal(c), Op: access.OpHistoryReadDoc, PatientID: patientID}); err != nil {
		return err
	}

	history, err := h.svc.PatientHistory(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id")
	}
	return id, nil
}

func (h *Handler) GetSummary(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	summary, err := h.svc.GetSummary(ctx, id)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	if principal.Role == auth.RolePatient {
		if summary.PatientID != principal.ID {
			return apperr.Forbidden(apperr.ReasonNotOwner, "patients may only read their own summaries")
		}
		return c.JSON(http.StatusOK, summary)
	}

	req := access.Request{
		Principal:        principal,
		Op:               access.OpSummaryReadDoc,
		PatientID:        summary.PatientID,
		ResourceApproved: summary.Approved(),
	}
	if err := h.gate.Require(ctx, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

type summaryEditRequest struct {
	Content providers.Summary `json:"content"`
}

func (h *Handler) EditSummary(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req summaryEditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	summary, err := h.svc.EditSummary(ctx, principal.ID, principal.Role, id, &req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ApproveSummary(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	summary, err := h.svc.ApproveSummary(ctx, principal.ID, principal.Role, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

type doctorNoteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) AddDoctorNote(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req doctorNoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	summary, err := h.svc.GetSummary(ctx, id)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	gateReq := access.Request{
		Principal:        principal,
		Op:               access.OpSummaryReadDoc,
		PatientID:        summary.PatientID,
		ResourceApproved: summary.Approved(),
	}
	if err := h.gate.Require(ctx, gateReq); err != nil {
		return err
	}

	noted, err := h.svc.AddDoctorNote(ctx, principal.ID, principal.Role, id, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, noted)
}

func (h *Handler) UploadReport(c echo.Context) error {
	var req ReportInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpReportWrite, PatientID: patientID}); err != nil {
		return err
	}

	rep, err := h.svc.UploadReport(ctx, principal.ID, principal.Role, patientID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) ApproveReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	rep, err := h.svc.ApproveReport(ctx, principal.ID, principal.Role, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListReports(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	if principal.Role == auth.RolePatient {
		reports, err := h.svc.ListReports(ctx, patientID, false)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, reports)
	}

	// Doctors only ever see approved reports; the listing itself filters,
	// so the per-resource approval requirement is satisfied by construction.
	req := access.Request{
		Principal:        principal,
		Op:               access.OpReportReadDoc,
		PatientID:        patientID,
		ResourceApproved: true,
	}
	if err := h.gate.Require(ctx, req); err != nil {
		return err
	}
	reports, err := h.svc.ListReports(ctx, patientID, true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) UploadLabReport(c echo.Context) error {
	var req LabReportInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	principal := h.principal(c)
	if err := h.gate.Require(ctx, access.Request{Principal: principal, Op: access.OpLabUpload, PatientID: req.PatientID}); err != nil {
		return err
	}

	rep, err := h.svc.UploadLabReport(ctx, principal.ID, principal.Role, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) ListLabReports(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := h.targetPatient(c)
	if err != nil {
		return err
	}

	principal := h.principal(c)
	if principal.Role != auth.RolePatient {
		// Lab results enter the record pre-approved; consent still applies.
		req := access.Request{
			Principal:        principal,
			Op:               access.OpReportReadDoc,
			PatientID:        patientID,
			ResourceApproved: true,
		}
		if err := h.gate.Require(ctx, req); err != nil {
			return err
		}
	}

	reports, err := h.svc.ListLabReports(ctx, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

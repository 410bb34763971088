package intake

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/domain/triage"
	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
	"github.com/carevista/carevista/internal/platform/providers"
)

// Transcriber converts patient audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (*providers.STTResult, error)
}

// Summarizer structures a transcript into a non-clinical intake summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (*providers.SummaryResult, error)
}

type Service struct {
	vitals     VitalsRepository
	symptoms   SymptomRepository
	summaries  SummaryRepository
	reports    ReportRepository
	labReports LabReportRepository
	triage     *triage.Service
	stt        Transcriber
	llm        Summarizer
	auditor    audit.Recorder
	now        func() time.Time
}

func NewService(
	vitals VitalsRepository,
	symptoms SymptomRepository,
	summaries SummaryRepository,
	reports ReportRepository,
	labReports LabReportRepository,
	triageSvc *triage.Service,
	stt Transcriber,
	llm Summarizer,
	auditor audit.Recorder,
) *Service {
	return &Service{
		vitals:     vitals,
		symptoms:   symptoms,
		summaries:  summaries,
		reports:    reports,
		labReports: labReports,
		triage:     triageSvc,
		stt:        stt,
		llm:        llm,
		auditor:    auditor,
		now:        time.Now,
	}
}

// RecordVital stores a measurement exactly as entered.
func (s *Service) RecordVital(ctx context.Context, actorID, actorRole, patientID, kind, value, unit string) (*Vital, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, apperr.Validation("vital kind is required")
	}
	if strings.TrimSpace(value) == "" {
		return nil, apperr.Validation("vital value is required")
	}

	v := &Vital{
		ID:         uuid.New(),
		PatientID:  patientID,
		RecordedBy: actorID,
		Kind:       kind,
		Value:      value,
		Unit:       unit,
		RecordedAt: s.now(),
	}
	if err := s.vitals.Create(ctx, v); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("vitals.record", actorID, actorRole).
		ForPatient(patientID).
		ForResource("vital", v.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListVitals(ctx context.Context, patientID string, limit, offset int) ([]*Vital, error) {
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}

type SymptomInput struct {
	Text         string `json:"text"`
	Severity     int    `json:"severity"`
	DurationDays int    `json:"duration_days"`
	Language     string `json:"language"`
}

// CaseResult is what the reporting side gets back. Triage is computed
// during intake but never included here: classification results are
// doctor-only and readable solely through the triage endpoints.
type CaseResult struct {
	Case    *SymptomCase `json:"case"`
	Summary *CaseSummary `json:"summary"`
}

// RecordSymptoms stores a text symptom report, generates its pending
// summary and classifies it. Summary generation degrades to the raw text
// when providers are down; intake itself never blocks on AI.
func (s *Service) RecordSymptoms(ctx context.Context, actorID, actorRole, patientID string, in SymptomInput) (*CaseResult, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, apperr.Validation("symptom text is required")
	}
	if in.Severity < 1 || in.Severity > 10 {
		return nil, apperr.Validation("severity must be between 1 and 10, got %d", in.Severity)
	}
	if in.DurationDays < 0 {
		return nil, apperr.Validation("duration_days must not be negative")
	}

	sc := &SymptomCase{
		ID:           uuid.New(),
		PatientID:    patientID,
		ReportedBy:   actorID,
		Text:         in.Text,
		Severity:     in.Severity,
		DurationDays: in.DurationDays,
		Language:     in.Language,
		Source:       SourceText,
		CreatedAt:    s.now(),
	}
	return s.finishCase(ctx, actorID, actorRole, sc)
}

// RecordSymptomsAudio runs the audio pipeline: transcribe, then treat the
// transcript as the symptom text. Transcription failure surfaces as a
// provider error so the client can fall back to manual text entry.
func (s *Service) RecordSymptomsAudio(ctx context.Context, actorID, actorRole, patientID string, audio []byte, filename string, in SymptomInput) (*CaseResult, error) {
	if in.Severity < 1 || in.Severity > 10 {
		return nil, apperr.Validation("severity must be between 1 and 10, got %d", in.Severity)
	}
	if in.DurationDays < 0 {
		return nil, apperr.Validation("duration_days must not be negative")
	}

	stt, err := s.stt.Transcribe(ctx, audio, filename, in.Language)
	if err != nil {
		return nil, err
	}

	sc := &SymptomCase{
		ID:               uuid.New(),
		PatientID:        patientID,
		ReportedBy:       actorID,
		Text:             stt.Transcript,
		Severity:         in.Severity,
		DurationDays:     in.DurationDays,
		Language:         in.Language,
		Source:           SourceAudio,
		Transcript:       stt.Transcript,
		DetectedLanguage: stt.DetectedLanguage,
		CreatedAt:        s.now(),
	}
	return s.finishCase(ctx, actorID, actorRole, sc)
}

func (s *Service) finishCase(ctx context.Context, actorID, actorRole string, sc *SymptomCase) (*CaseResult, error) {
	if err := s.symptoms.Create(ctx, sc); err != nil {
		return nil, err
	}

	result, err := s.llm.Summarize(ctx, sc.Text)
	if err != nil {
		return nil, err
	}
	summary := &CaseSummary{
		ID:            uuid.New(),
		CaseID:        sc.ID,
		PatientID:     sc.PatientID,
		Content:       result.Summary,
		Provider:      result.Provider,
		AIFailed:      result.AIFailed,
		RawTranscript: result.RawTranscript,
		Status:        SummaryPending,
		CreatedAt:     s.now(),
	}
	if err := s.summaries.Create(ctx, summary); err != nil {
		return nil, err
	}

	if _, err := s.triage.Compute(ctx, sc.ID.String(), sc.PatientID, sc.Severity, sc.DurationDays, sc.Text); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("symptoms.record", actorID, actorRole).
		ForPatient(sc.PatientID).
		ForResource("symptom_case", sc.ID.String()).
		WithDetail("source " + sc.Source)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}

	return &CaseResult{Case: sc, Summary: summary}, nil
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*SymptomCase, error) {
	sc, err := s.symptoms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, apperr.NotFound("symptom case not found")
	}
	return sc, nil
}

func (s *Service) ListCases(ctx context.Context, patientID string, limit, offset int) ([]*SymptomCase, error) {
	return s.symptoms.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) GetSummary(ctx context.Context, id uuid.UUID) (*CaseSummary, error) {
	summary, err := s.summaries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apperr.NotFound("summary not found")
	}
	return summary, nil
}

func (s *Service) GetSummaryByCase(ctx context.Context, caseID uuid.UUID) (*CaseSummary, error) {
	summary, err := s.summaries.GetByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apperr.NotFound("summary not found")
	}
	return summary, nil
}

// EditSummary stores the patient's corrected version beside the generated
// one. Approved summaries are locked; the doctor must see exactly what the
// patient signed off on.
func (s *Service) EditSummary(ctx context.Context, actorID, actorRole string, id uuid.UUID, content *providers.Summary) (*CaseSummary, error) {
	if content == nil || strings.TrimSpace(content.ChiefComplaint) == "" {
		return nil, apperr.Validation("chiefComplaint is required")
	}

	summary, err := s.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary.PatientID != actorID {
		return nil, apperr.Forbidden(apperr.ReasonNotOwner, "only the patient may edit their summary")
	}
	if summary.Approved() {
		return nil, apperr.Conflict("summary already approved")
	}

	summary.EditedContent = content
	if err := s.summaries.Update(ctx, summary); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("summary.edit", actorID, actorRole).
		ForPatient(summary.PatientID).
		ForResource("case_summary", summary.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return summary, nil
}

// ApproveSummary is the patient's sign-off that makes the summary eligible
// for doctor viewing. Idempotent.
func (s *Service) ApproveSummary(ctx context.Context, actorID, actorRole string, id uuid.UUID) (*CaseSummary, error) {
	summary, err := s.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if summary.PatientID != actorID {
		return nil, apperr.Forbidden(apperr.ReasonNotOwner, "only the patient may approve their summary")
	}
	if summary.Approved() {
		return summary, nil
	}

	at := s.now()
	summary.Status = SummaryApproved
	summary.ApprovedAt = &at
	if err := s.summaries.Update(ctx, summary); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("summary.approve", actorID, actorRole).
		ForPatient(summary.PatientID).
		ForResource("case_summary", summary.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return summary, nil
}

// AddDoctorNote attaches the consulting doctor's working note to an
// approved summary. The note never feeds back into the generated or
// patient-edited content.
func (s *Service) AddDoctorNote(ctx context.Context, actorID, actorRole string, id uuid.UUID, note string) (*CaseSummary, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperr.Validation("note is required")
	}

	summary, err := s.GetSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if !summary.Approved() {
		return nil, apperr.Forbidden(apperr.ReasonNotApproved, "summary is not approved for doctor access")
	}

	summary.DoctorNotes = &note
	summary.NotedBy = &actorID
	if err := s.summaries.Update(ctx, summary); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("summary.note", actorID, actorRole).
		ForPatient(summary.PatientID).
		ForResource("case_summary", summary.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return summary, nil
}

type ReportInput struct {
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type"`
}

func (s *Service) UploadReport(ctx context.Context, actorID, actorRole, patientID string, in ReportInput) (*Report, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("report title is required")
	}
	if strings.TrimSpace(in.StorageKey) == "" {
		return nil, apperr.Validation("storage_key is required")
	}

	rep := &Report{
		ID:          uuid.New(),
		PatientID:   patientID,
		UploadedBy:  actorID,
		Title:       in.Title,
		Kind:        in.Kind,
		StorageKey:  in.StorageKey,
		ContentType: in.ContentType,
		UploadedAt:  s.now(),
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("report.upload", actorID, actorRole).
		ForPatient(patientID).
		ForResource("report", rep.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return rep, nil
}

// ApproveReport marks a report visible to doctors. Idempotent.
func (s *Service) ApproveReport(ctx context.Context, actorID, actorRole string, id uuid.UUID) (*Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, apperr.NotFound("report not found")
	}
	if rep.PatientID != actorID {
		return nil, apperr.Forbidden(apperr.ReasonNotOwner, "only the patient may approve their report")
	}
	if rep.Approved {
		return rep, nil
	}

	at := s.now()
	rep.Approved = true
	rep.ApprovedAt = &at
	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("report.approve", actorID, actorRole).
		ForPatient(rep.PatientID).
		ForResource("report", rep.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) ListReports(ctx context.Context, patientID string, approvedOnly bool) ([]*Report, error) {
	return s.reports.ListByPatient(ctx, patientID, approvedOnly)
}

type LabReportInput struct {
	PatientID     string `json:"patient_id"`
	TestName      string `json:"test_name"`
	ResultSummary string `json:"result_summary"`
	StorageKey    string `json:"storage_key"`
}

// UploadLabReport stores a technician result. AIBypassed is pinned true:
// lab data never enters any AI stage.
func (s *Service) UploadLabReport(ctx context.Context, actorID, actorRole string, in LabReportInput) (*LabReport, error) {
	if strings.TrimSpace(in.PatientID) == "" {
		return nil, apperr.Validation("patient_id is required")
	}
	if strings.TrimSpace(in.TestName) == "" {
		return nil, apperr.Validation("test_name is required")
	}

	rep := &LabReport{
		ID:            uuid.New(),
		PatientID:     in.PatientID,
		UploadedBy:    actorID,
		TestName:      in.TestName,
		ResultSummary: in.ResultSummary,
		StorageKey:    in.StorageKey,
		AIBypassed:    true,
		UploadedAt:    s.now(),
	}
	if err := s.labReports.Create(ctx, rep); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("lab.upload", actorID, actorRole).
		ForPatient(in.PatientID).
		ForResource("lab_report", rep.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) ListLabReports(ctx context.Context, patientID string) ([]*LabReport, error) {
	return s.labReports.ListByPatient(ctx, patientID)
}

// History is the doctor's combined view of a patient's record.
type History struct {
	Vitals     []*Vital       `json:"vitals"`
	Cases      []*SymptomCase `json:"cases"`
	Reports    []*Report      `json:"reports"`
	LabReports []*LabReport   `json:"lab_reports"`
}

// PatientHistory assembles the shareable record. Only approved reports are
// included; pending summaries are not part of history at all.
func (s *Service) PatientHistory(ctx context.Context, patientID string) (*History, error) {
	vitals, err := s.vitals.ListByPatient(ctx, patientID, 100, 0)
	if err != nil {
		return nil, err
	}
	cases, err := s.symptoms.ListByPatient(ctx, patientID, 100, 0)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByPatient(ctx, patientID, true)
	if err != nil {
		return nil, err
	}
	labs, err := s.labReports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &History{Vitals: vitals, Cases: cases, Reports: reports, LabReports: labs}, nil
}

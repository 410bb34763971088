package intake

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/domain/triage"
	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
	"github.com/carevista/carevista/internal/platform/providers"
)

type memVitals struct{ rows []*Vital }

func (m *memVitals) Create(_ context.Context, v *Vital) error {
	cp := *v
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memVitals) ListByPatient(_ context.Context, patientID string, _, _ int) ([]*Vital, error) {
	var out []*Vital
	for _, v := range m.rows {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memVitals) ReassignPatient(_ context.Context, from, to string) error {
	for _, v := range m.rows {
		if v.PatientID == from {
			v.PatientID = to
		}
	}
	return nil
}

type memSymptoms struct{ rows map[uuid.UUID]*SymptomCase }

func newMemSymptoms() *memSymptoms { return &memSymptoms{rows: map[uuid.UUID]*SymptomCase{}} }

func (m *memSymptoms) Create(_ context.Context, s *SymptomCase) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSymptoms) GetByID(_ context.Context, id uuid.UUID) (*SymptomCase, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSymptoms) ListByPatient(_ context.Context, patientID string, _, _ int) ([]*SymptomCase, error) {
	var out []*SymptomCase
	for _, s := range m.rows {
		if s.PatientID == patientID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSymptoms) ReassignPatient(_ context.Context, from, to string) error {
	for _, s := range m.rows {
		if s.PatientID == from {
			s.PatientID = to
		}
	}
	return nil
}

type memSummaries struct{ rows map[uuid.UUID]*CaseSummary }

func newMemSummaries() *memSummaries { return &memSummaries{rows: map[uuid.UUID]*CaseSummary{}} }

func (m *memSummaries) Create(_ context.Context, s *CaseSummary) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSummaries) GetByID(_ context.Context, id uuid.UUID) (*CaseSummary, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSummaries) GetByCase(_ context.Context, caseID uuid.UUID) (*CaseSummary, error) {
	for _, s := range m.rows {
		if s.CaseID == caseID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSummaries) Update(_ context.Context, s *CaseSummary) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSummaries) ReassignPatient(_ context.Context, from, to string) error {
	for _, s := range m.rows {
		if s.PatientID == from {
			s.PatientID = to
		}
	}
	return nil
}

type memReports struct{ rows map[uuid.UUID]*Report }

func newMemReports() *memReports { return &memReports{rows: map[uuid.UUID]*Report{}} }

func (m *memReports) Create(_ context.Context, r *Report) error {
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memReports) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) Update(_ context.Context, r *Report) error {
	cp := *r
	m.rows[r.ID] = &cp
	return nil
}

func (m *memReports) ListByPatient(_ context.Context, patientID string, approvedOnly bool) ([]*Report, error) {
	var out []*Report
	for _, r := range m.rows {
		if r.PatientID != patientID {
			continue
		}
		if approvedOnly && !r.Approved {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memReports) ReassignPatient(_ context.Context, from, to string) error {
	for _, r := range m.rows {
		if r.PatientID == from {
			r.PatientID = to
		}
	}
	return nil
}

type memLabReports struct{ rows []*LabReport }

func (m *memLabReports) Create(_ context.Context, r *LabReport) error {
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memLabReports) ListByPatient(_ context.Context, patientID string) ([]*LabReport, error) {
	var out []*LabReport
	for _, r := range m.rows {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLabReports) ReassignPatient(_ context.Context, from, to string) error {
	for _, r := range m.rows {
		if r.PatientID == from {
			r.PatientID = to
		}
	}
	return nil
}

type memTriageRepo struct{ byCase map[string]*triage.Record }

func newMemTriageRepo() *memTriageRepo { return &memTriageRepo{byCase: map[string]*triage.Record{}} }

func (m *memTriageRepo) Create(_ context.Context, r *triage.Record) error {
	cp := *r
	m.byCase[r.CaseID] = &cp
	return nil
}

func (m *memTriageRepo) GetByCase(_ context.Context, caseID string) (*triage.Record, error) {
	r, ok := m.byCase[caseID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memTriageRepo) Update(_ context.Context, r *triage.Record) error {
	cp := *r
	m.byCase[r.CaseID] = &cp
	return nil
}

func (m *memTriageRepo) ListUnhandled(_ context.Context) ([]*triage.Record, error) {
	var out []*triage.Record
	for _, r := range m.byCase {
		if !r.Handled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTriageRepo) ReassignPatient(_ context.Context, from, to string) error { return nil }

type allowConsents struct{}

func (allowConsents) IsActive(context.Context, string, string) (bool, error) { return true, nil }

type fakeTranscriber struct {
	result *providers.STTResult
	err    error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, _, _ string) (*providers.STTResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(audio) == 0 {
		return nil, apperr.Validation("audio must not be empty")
	}
	return f.result, nil
}

type fakeSummarizer struct {
	result *providers.SummaryResult
	err    error
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript string) (*providers.SummaryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &providers.SummaryResult{
		Summary:  &providers.Summary{ChiefComplaint: "organized: " + transcript},
		Provider: "primary",
	}, nil
}

type fixture struct {
	svc        *Service
	vitals     *memVitals
	symptoms   *memSymptoms
	summaries  *memSummaries
	reports    *memReports
	labReports *memLabReports
	triageRepo *memTriageRepo
	auditor    *audit.MemoryRecorder
	stt        *fakeTranscriber
	llm        *fakeSummarizer
}

func newFixture() *fixture {
	f := &fixture{
		vitals:     &memVitals{},
		symptoms:   newMemSymptoms(),
		summaries:  newMemSummaries(),
		reports:    newMemReports(),
		labReports: &memLabReports{},
		triageRepo: newMemTriageRepo(),
		auditor:    audit.NewMemoryRecorder(),
		stt:        &fakeTranscriber{result: &providers.STTResult{Transcript: "cough for two days", DetectedLanguage: "ta"}},
		llm:        &fakeSummarizer{},
	}
	triageSvc := triage.NewService(f.triageRepo, allowConsents{}, audit.NewMemoryRecorder())
	f.svc = NewService(f.vitals, f.symptoms, f.summaries, f.reports, f.labReports,
		triageSvc, f.stt, f.llm, f.auditor)
	return f
}

func TestRecordVitalStoresRawValue(t *testing.T) {
	f := newFixture()
	v, err := f.svc.RecordVital(context.Background(), "hw-1", "health_worker", "p-1", "blood_pressure", "210/140", "mmHg")
	if err != nil {
		t.Fatal(err)
	}
	// Implausible values are stored untouched; no range logic exists.
	if v.Value != "210/140" {
		t.Errorf("value = %q", v.Value)
	}
	if len(f.auditor.Entries) != 1 || f.auditor.Entries[0].Action != "vitals.record" {
		t.Error("vital write not audited")
	}
}

func TestRecordVitalValidates(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RecordVital(context.Background(), "p-1", "patient", "p-1", "", "98.6", "F")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestRecordSymptomsProducesCaseSummaryAndTriage(t *testing.T) {
	f := newFixture()
	result, err := f.svc.RecordSymptoms(context.Background(), "p-1", "patient", "p-1", SymptomInput{
		Text: "severe chest pain", Severity: 9, DurationDays: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Case.Source != SourceText {
		t.Errorf("source = %q", result.Case.Source)
	}
	if result.Summary.Status != SummaryPending {
		t.Errorf("summary status = %q, want pending", result.Summary.Status)
	}
	if result.Summary.Content == nil || result.Summary.Content.ChiefComplaint == "" {
		t.Error("summary content missing")
	}
	rec, _ := f.triageRepo.GetByCase(context.Background(), result.Case.ID.String())
	if rec == nil || rec.ComputedLevel != triage.LevelUrgent {
		t.Fatalf("stored triage = %+v, want urgent", rec)
	}
}

func TestSymptomResponseCarriesNoTriage(t *testing.T) {
	f := newFixture()
	result, err := f.svc.RecordSymptoms(context.Background(), "p-1", "patient", "p-1", SymptomInput{
		Text: "severe chest pain", Severity: 9, DurationDays: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Classification happens and is stored, but the reporter's response
	// must not reveal it.
	rec, _ := f.triageRepo.GetByCase(context.Background(), result.Case.ID.String())
	if rec == nil {
		t.Fatal("triage record not stored")
	}

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	for _, leak := range []string{"triage", "computed_level", "classification_reason", triage.LevelUrgent} {
		if strings.Contains(string(body), leak) {
			t.Errorf("response contains %q: %s", leak, body)
		}
	}
}

func TestRecordSymptomsValidatesSeverity(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RecordSymptoms(context.Background(), "p-1", "patient", "p-1", SymptomInput{
		Text: "cough", Severity: 0, DurationDays: 1,
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestRecordSymptomsAIDegraded(t *testing.T) {
	f := newFixture()
	f.llm.result = &providers.SummaryResult{AIFailed: true, RawTranscript: "cough for weeks"}

	result, err := f.svc.RecordSymptoms(context.Background(), "p-1", "patient", "p-1", SymptomInput{
		Text: "cough for weeks", Severity: 3, DurationDays: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Summary.AIFailed {
		t.Error("ai_failed not carried")
	}
	if result.Summary.RawTranscript != "cough for weeks" {
		t.Error("raw transcript not preserved")
	}
	// Triage is rules-only; it still classifies when AI is down.
	rec, _ := f.triageRepo.GetByCase(context.Background(), result.Case.ID.String())
	if rec == nil {
		t.Fatal("triage missing")
	}
}

func TestRecordSymptomsAudioKeepsTranscript(t *testing.T) {
	f := newFixture()
	result, err := f.svc.RecordSymptomsAudio(context.Background(), "p-1", "patient", "p-1",
		[]byte("audio-bytes"), "voice.webm", SymptomInput{Severity: 4, DurationDays: 2, Language: "tamil"})
	if err != nil {
		t.Fatal(err)
	}

	if result.Case.Source != SourceAudio {
		t.Errorf("source = %q", result.Case.Source)
	}
	if result.Case.Transcript != "cough for two days" {
		t.Errorf("transcript = %q", result.Case.Transcript)
	}
	if result.Case.DetectedLanguage != "ta" {
		t.Errorf("detected language = %q", result.Case.DetectedLanguage)
	}
}

func TestRecordSymptomsAudioSTTFailure(t *testing.T) {
	f := newFixture()
	f.stt.err = apperr.Provider("speech-to-text is not configured")

	_, err := f.svc.RecordSymptomsAudio(context.Background(), "p-1", "patient", "p-1",
		[]byte("audio"), "voice.webm", SymptomInput{Severity: 4, DurationDays: 2})
	if apperr.KindOf(err) != apperr.KindProvider {
		t.Fatalf("err = %v, want provider", err)
	}
	if len(f.symptoms.rows) != 0 {
		t.Error("case stored despite transcription failure")
	}
}

func TestEditSummaryOwnerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, _ := f.svc.RecordSymptoms(ctx, "p-1", "patient", "p-1", SymptomInput{Text: "cough", Severity: 3, DurationDays: 10})

	_, err := f.svc.EditSummary(ctx, "p-2", "patient", result.Summary.ID, &providers.Summary{ChiefComplaint: "hijack"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestEditThenApprovePrefersEdit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, _ := f.svc.RecordSymptoms(ctx, "p-1", "patient", "p-1", SymptomInput{Text: "cough", Severity: 3, DurationDays: 10})

	edited := &providers.Summary{ChiefComplaint: "dry cough, worse at night"}
	if _, err := f.svc.EditSummary(ctx, "p-1", "patient", result.Summary.ID, edited); err != nil {
		t.Fatal(err)
	}
	summary, err := f.svc.ApproveSummary(ctx, "p-1", "patient", result.Summary.ID)
	if err != nil {
		t.Fatal(err)
	}

	if !summary.Approved() {
		t.Error("not approved")
	}
	if summary.Effective().ChiefComplaint != "dry cough, worse at night" {
		t.Errorf("effective = %q, want edited content", summary.Effective().ChiefComplaint)
	}
	if summary.Content.ChiefComplaint == edited.ChiefComplaint {
		t.Error("generated content overwritten by edit")
	}
}

func TestEditAfterApprovalConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, _ := f.svc.RecordSymptoms(ctx, "p-1", "patient", "p-1", SymptomInput{Text: "cough", Severity: 3, DurationDays: 10})

	if _, err := f.svc.ApproveSummary(ctx, "p-1", "patient", result.Summary.ID); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.EditSummary(ctx, "p-1", "patient", result.Summary.ID, &providers.Summary{ChiefComplaint: "late edit"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestApproveSummaryIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, _ := f.svc.RecordSymptoms(ctx, "p-1", "patient", "p-1", SymptomInput{Text: "cough", Severity: 3, DurationDays: 10})

	first, err := f.svc.ApproveSummary(ctx, "p-1", "patient", result.Summary.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.ApproveSummary(ctx, "p-1", "patient", result.Summary.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !first.ApprovedAt.Equal(*second.ApprovedAt) {
		t.Error("approval timestamp changed on repeat")
	}
}

func TestDoctorNoteRequiresApprovedSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, _ := f.svc.RecordSymptoms(ctx, "p-1", "patient", "p-1", SymptomInput{Text: "cough", Severity: 3, DurationDays: 10})

	_, err := f.svc.AddDoctorNote(ctx, "doc-1", "doctor", result.Summary.ID, "possible viral infection, review in 3 days")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("note on pending summary err = %v, want forbidden", err)
	}

	if _, err := f.svc.ApproveSummary(ctx, "p-1", "patient", result.Summary.ID); err != nil {
		t.Fatal(err)
	}
	noted, err := f.svc.AddDoctorNote(ctx, "doc-1", "doctor", result.Summary.ID, "possible viral infection, review in 3 days")
	if err != nil {
		t.Fatal(err)
	}
	if noted.DoctorNotes == nil || *noted.NotedBy != "doc-1" {
		t.Fatalf("note = %v by %v", noted.DoctorNotes, noted.NotedBy)
	}
	if noted.Effective().ChiefComplaint == *noted.DoctorNotes {
		t.Error("note leaked into summary content")
	}

	last := f.auditor.Entries[len(f.auditor.Entries)-1]
	if last.Action != "summary.note" {
		t.Errorf("last audit action = %q", last.Action)
	}
}

func TestReportApprovalGatesListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	rep, err := f.svc.UploadReport(ctx, "p-1", "patient", "p-1", ReportInput{Title: "X-ray", StorageKey: "reports/xray.pdf"})
	if err != nil {
		t.Fatal(err)
	}

	visible, _ := f.svc.ListReports(ctx, "p-1", true)
	if len(visible) != 0 {
		t.Fatal("unapproved report visible")
	}

	if _, err := f.svc.ApproveReport(ctx, "p-1", "patient", rep.ID); err != nil {
		t.Fatal(err)
	}
	visible, _ = f.svc.ListReports(ctx, "p-1", true)
	if len(visible) != 1 {
		t.Fatal("approved report not visible")
	}
}

func TestApproveReportOwnerOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rep, _ := f.svc.UploadReport(ctx, "p-1", "patient", "p-1", ReportInput{Title: "X-ray", StorageKey: "k"})

	_, err := f.svc.ApproveReport(ctx, "p-2", "patient", rep.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestUploadLabReportPinsAIBypassed(t *testing.T) {
	f := newFixture()
	rep, err := f.svc.UploadLabReport(context.Background(), "lab-1", "lab_technician", LabReportInput{
		PatientID: "p-1", TestName: "CBC", ResultSummary: "attached",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.AIBypassed {
		t.Error("lab report must bypass AI")
	}
	if len(f.auditor.Entries) == 0 || f.auditor.Entries[len(f.auditor.Entries)-1].Action != "lab.upload" {
		t.Error("lab upload not audited")
	}
}

func TestPatientHistoryFiltersUnapprovedReports(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.svc.RecordVital(ctx, "p-1", "patient", "p-1", "temperature", "98.6", "F")
	approved, _ := f.svc.UploadReport(ctx, "p-1", "patient", "p-1", ReportInput{Title: "A", StorageKey: "a"})
	f.svc.UploadReport(ctx, "p-1", "patient", "p-1", ReportInput{Title: "B", StorageKey: "b"})
	f.svc.ApproveReport(ctx, "p-1", "patient", approved.ID)

	history, err := f.svc.PatientHistory(ctx, "p-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Vitals) != 1 {
		t.Errorf("vitals = %d", len(history.Vitals))
	}
	if len(history.Reports) != 1 || history.Reports[0].Title != "A" {
		t.Error("history must contain only approved reports")
	}
}

func TestAuditFailureFailsIntakeWrite(t *testing.T) {
	f := newFixture()
	f.auditor.FailNext = context.DeadlineExceeded

	_, err := f.svc.RecordVital(context.Background(), "p-1", "patient", "p-1", "pulse", "72", "bpm")
	if err == nil {
		t.Fatal("write succeeded despite audit failure")
	}
}

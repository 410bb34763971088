package intake

import (
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/providers"
)

// Vital is a raw measurement. Values are stored exactly as entered; no
// range checks, flags or interpretation happen anywhere in the system.
type Vital struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  string    `db:"patient_id" json:"patient_id"`
	RecordedBy string    `db:"recorded_by" json:"recorded_by"`
	Kind       string    `db:"kind" json:"kind"`
	Value      string    `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// Symptom input sources.
const (
	SourceText  = "text"
	SourceAudio = "audio"
)

// SymptomCase is one symptom report, the unit triage and summaries hang
// off. Audio cases keep the verbatim transcript alongside the text.
type SymptomCase struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        string    `db:"patient_id" json:"patient_id"`
	ReportedBy       string    `db:"reported_by" json:"reported_by"`
	Text             string    `db:"text" json:"text"`
	Severity         int       `db:"severity" json:"severity"`
	DurationDays     int       `db:"duration_days" json:"duration_days"`
	Language         string    `db:"language" json:"language,omitempty"`
	Source           string    `db:"source" json:"source"`
	Transcript       string    `db:"transcript" json:"transcript,omitempty"`
	DetectedLanguage string    `db:"detected_language" json:"detected_language,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Summary statuses. A summary starts pending and becomes approved only by
// the patient's explicit action; doctors never see pending summaries.
const (
	SummaryPending  = "pending"
	SummaryApproved = "approved"
)

// CaseSummary is the structured intake summary for one symptom case. The
// patient may edit it while pending; the edited content, when present, is
// what doctors read.
type CaseSummary struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	CaseID        uuid.UUID          `db:"case_id" json:"case_id"`
	PatientID     string             `db:"patient_id" json:"patient_id"`
	Content       *providers.Summary `db:"content" json:"content,omitempty"`
	EditedContent *providers.Summary `db:"edited_content" json:"edited_content,omitempty"`
	Provider      string             `db:"ai_provider" json:"ai_provider,omitempty"`
	AIFailed      bool               `db:"ai_failed" json:"ai_failed"`
	RawTranscript string             `db:"raw_transcript" json:"raw_transcript,omitempty"`
	Status        string             `db:"status" json:"status"`
	DoctorNotes   *string            `db:"doctor_notes" json:"doctor_notes,omitempty"`
	NotedBy       *string            `db:"noted_by" json:"noted_by,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	ApprovedAt    *time.Time         `db:"approved_at" json:"approved_at,omitempty"`
}

// Effective returns the content a reader should see: the patient's edit
// when one exists, otherwise the generated content.
func (s *CaseSummary) Effective() *providers.Summary {
	if s.EditedContent != nil {
		return s.EditedContent
	}
	return s.Content
}

func (s *CaseSummary) Approved() bool { return s.Status == SummaryApproved }

// Report is patient-supplied document metadata. The file itself lives in
// object storage under StorageKey; only the patient's approval makes the
// report visible to doctors.
type Report struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   string     `db:"patient_id" json:"patient_id"`
	UploadedBy  string     `db:"uploaded_by" json:"uploaded_by"`
	Title       string     `db:"title" json:"title"`
	Kind        string     `db:"kind" json:"kind,omitempty"`
	StorageKey  string     `db:"storage_key" json:"storage_key"`
	ContentType string     `db:"content_type" json:"content_type,omitempty"`
	Approved    bool       `db:"approved" json:"approved"`
	UploadedAt  time.Time  `db:"uploaded_at" json:"uploaded_at"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approved_at,omitempty"`
}

// LabReport is a technician upload. It carries only the minimum patient
// linkage, never passes through any AI stage, and enters the record
// directly visible to doctors.
type LabReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     string    `db:"patient_id" json:"patient_id"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	TestName      string    `db:"test_name" json:"test_name"`
	ResultSummary string    `db:"result_summary" json:"result_summary,omitempty"`
	StorageKey    string    `db:"storage_key" json:"storage_key,omitempty"`
	AIBypassed    bool      `db:"ai_bypassed" json:"ai_bypassed"`
	UploadedAt    time.Time `db:"uploaded_at" json:"uploaded_at"`
}

package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive  = "active"
	StatusExpired = "expired"
	StatusEnded   = "ended"
)

// Permissions is the assisted-session capability set. Only write
// capabilities are stored; the view capabilities (history, AI summary,
// triage, prescriptions) have no field at all and always read false, so
// no code path can grant them.
type Permissions struct {
	CanRecordVitals   bool `json:"can_record_vitals"`
	CanRecordSymptoms bool `json:"can_record_symptoms"`
	CanUploadReports  bool `json:"can_upload_reports"`
	CanCaptureConsent bool `json:"can_capture_consent"`
}

func (Permissions) CanViewHistory() bool       { return false }
func (Permissions) CanViewAISummary() bool     { return false }
func (Permissions) CanViewTriage() bool        { return false }
func (Permissions) CanViewPrescriptions() bool { return false }

// MarshalJSON includes the view capabilities so clients see the full
// permission map, with the view entries pinned false.
func (p Permissions) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{
		"can_record_vitals":      p.CanRecordVitals,
		"can_record_symptoms":    p.CanRecordSymptoms,
		"can_upload_reports":     p.CanUploadReports,
		"can_capture_consent":    p.CanCaptureConsent,
		"can_view_history":       false,
		"can_view_ai_summary":    false,
		"can_view_triage":        false,
		"can_view_prescriptions": false,
	})
}

// Capabilities is the single capability table for assisted sessions.
// Referenced everywhere a session is created; never derived from input.
func Capabilities() Permissions {
	return Permissions{
		CanRecordVitals:   true,
		CanRecordSymptoms: true,
		CanUploadReports:  true,
		CanCaptureConsent: true,
	}
}

// Session maps to the assisted_sessions table.
type Session struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	ActorID        string      `db:"actor_id" json:"actor_id"`
	PatientID      string      `db:"patient_id" json:"patient_id"`
	Status         string      `db:"status" json:"status"`
	Language       string      `db:"language" json:"language,omitempty"`
	Permissions    Permissions `db:"-" json:"permissions"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	LastActivityAt time.Time   `db:"last_activity_at" json:"last_activity_at"`
	ExpiresAt      time.Time   `db:"expires_at" json:"expires_at"`
	EndedAt        *time.Time  `db:"ended_at" json:"ended_at,omitempty"`
}

// Terminal reports whether the session can never become active again.
func (s *Session) Terminal() bool {
	return s.Status == StatusExpired || s.Status == StatusEnded
}

// Advance applies the lazy-expiry transition: an active session past its
// expiry becomes expired with zeroed permissions. Terminal states never
// change. Pure given now; returns whether the record changed.
func Advance(s *Session, now time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	if now.Before(s.ExpiresAt) {
		return false
	}
	s.Status = StatusExpired
	s.Permissions = Permissions{}
	return true
}

package consent

import (
	"time"

	"github.com/google/uuid"
)

// Consent types a patient grants or revokes independently.
const (
	TypeRecording     = "recording"
	TypeTranscription = "transcription"
	TypeDoctorSharing = "doctor_sharing"
	TypeDataSharing   = "data_sharing"
	TypeAIProcessing  = "ai_processing"
)

// Types lists every known consent type.
func Types() []string {
	return []string{TypeRecording, TypeTranscription, TypeDoctorSharing, TypeDataSharing, TypeAIProcessing}
}

// ValidType reports whether s names a known consent type.
func ValidType(s string) bool {
	switch s {
	case TypeRecording, TypeTranscription, TypeDoctorSharing, TypeDataSharing, TypeAIProcessing:
		return true
	}
	return false
}

// Record maps to the consents table. Records are append-only: a grant
// creates one, a revocation sets RevokedAt in place. Nothing is deleted.
type Record struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID string     `db:"patient_id" json:"patient_id"`
	Type      string     `db:"consent_type" json:"consent_type"`
	Granted   bool       `db:"granted" json:"granted"`
	GrantedAt time.Time  `db:"granted_at" json:"granted_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

// Active reports whether this record currently authorizes its type.
func (r *Record) Active() bool {
	return r.Granted && r.RevokedAt == nil
}

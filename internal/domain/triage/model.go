package triage

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the triage table, keyed 1:1 to a symptom case. The
// computed fields are immutable once written; a doctor override is stored
// beside them and takes precedence for every consumer.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CaseID         string     `db:"case_id" json:"case_id"`
	PatientID      string     `db:"patient_id" json:"patient_id"`
	ComputedLevel  string     `db:"computed_level" json:"computed_level"`
	Reason         string     `db:"classification_reason" json:"classification_reason"`
	DoctorOverride *string    `db:"doctor_override" json:"doctor_override,omitempty"`
	OverrideReason *string    `db:"doctor_override_reason" json:"doctor_override_reason,omitempty"`
	OverriddenBy   *string    `db:"overridden_by" json:"overridden_by,omitempty"`
	Handled        bool       `db:"handled" json:"handled"`
	ComputedAt     time.Time  `db:"computed_at" json:"computed_at"`
	OverriddenAt   *time.Time `db:"overridden_at" json:"overridden_at,omitempty"`
}

// EffectiveLevel is override ?? computed. All consumers read this, never
// ComputedLevel directly.
func (r *Record) EffectiveLevel() string {
	if r.DoctorOverride != nil {
		return *r.DoctorOverride
	}
	return r.ComputedLevel
}

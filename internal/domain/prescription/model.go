package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is one line of a prescription, written entirely by the doctor.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	DurationDays int    `json:"duration_days,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Prescription is authored by exactly one doctor. AIInvolvement is always
// null in storage and on the wire: no AI stage ever touches prescriptions,
// and the field exists to make that absence explicit.
type Prescription struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     string     `db:"patient_id" json:"patient_id"`
	AuthorID      string     `db:"author_id" json:"author_id"`
	CaseID        *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	Medicines     []Medicine `db:"medicines" json:"medicines"`
	Instructions  string     `db:"instructions" json:"instructions,omitempty"`
	AIInvolvement *string    `db:"ai_involvement" json:"ai_involvement"`
	Finalized     bool       `db:"finalized" json:"finalized"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	FinalizedAt   *time.Time `db:"finalized_at" json:"finalized_at,omitempty"`
}

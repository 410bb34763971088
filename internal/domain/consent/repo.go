package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, r *Record) error
	// ActiveByType returns the currently active record for the pair, or
	// nil when none exists. Absence is not an error.
	ActiveByType(ctx context.Context, patientID, consentType string) (*Record, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	ListByPatient(ctx context.Context, patientID string) ([]*Record, error)
	ActiveTypes(ctx context.Context, patientID string) ([]string, error)
	// ReassignPatient rewrites patient identity on every record, used when
	// a temporary patient is linked to a permanent one.
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

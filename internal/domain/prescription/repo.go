package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	// GetByID returns nil when the prescription does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

package triage

import "context"

type Repository interface {
	Create(ctx context.Context, r *Record) error
	// GetByCase returns nil when the case has no triage record.
	GetByCase(ctx context.Context, caseID string) (*Record, error)
	Update(ctx context.Context, r *Record) error
	ListUnhandled(ctx context.Context) ([]*Record, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

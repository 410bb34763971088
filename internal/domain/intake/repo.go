package intake

import (
	"context"

	"github.com/google/uuid"
)

type VitalsRepository interface {
	Create(ctx context.Context, v *Vital) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Vital, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

type SymptomRepository interface {
	Create(ctx context.Context, s *SymptomCase) error
	// GetByID returns nil when the case does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*SymptomCase, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*SymptomCase, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

type SummaryRepository interface {
	Create(ctx context.Context, s *CaseSummary) error
	// GetByID returns nil when the summary does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*CaseSummary, error)
	GetByCase(ctx context.Context, caseID uuid.UUID) (*CaseSummary, error)
	Update(ctx context.Context, s *CaseSummary) error
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	// GetByID returns nil when the report does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	ListByPatient(ctx context.Context, patientID string, approvedOnly bool) ([]*Report, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

type LabReportRepository interface {
	Create(ctx context.Context, r *LabReport) error
	ListByPatient(ctx context.Context, patientID string) ([]*LabReport, error)
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

package prescription

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
)

type Service struct {
	repo    Repository
	auditor audit.Recorder
	now     func() time.Time
}

func NewService(repo Repository, auditor audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

func validateMedicines(medicines []Medicine) error {
	if len(medicines) == 0 {
		return apperr.Validation("at least one medicine is required")
	}
	for i, m := range medicines {
		if strings.TrimSpace(m.Name) == "" {
			return apperr.Validation("medicine %d: name is required", i+1)
		}
		if strings.TrimSpace(m.Dosage) == "" {
			return apperr.Validation("medicine %d: dosage is required", i+1)
		}
	}
	return nil
}

// Create opens a draft prescription authored by the calling doctor.
// AIInvolvement is left nil and stays nil for the life of the record.
func (s *Service) Create(ctx context.Context, authorID, authorRole, patientID string, caseID *uuid.UUID, medicines []Medicine, instructions string) (*Prescription, error) {
	if err := validateMedicines(medicines); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Prescription{
		ID:           uuid.New(),
		PatientID:    patientID,
		AuthorID:     authorID,
		CaseID:       caseID,
		Medicines:    medicines,
		Instructions: instructions,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("prescription.create", authorID, authorRole).
		ForPatient(patientID).
		ForResource("prescription", p.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("prescription not found")
	}
	return p, nil
}

// editable rejects mutation by anyone but the author, and by everyone once
// finalized. The author is not exempt from finalization.
func editable(p *Prescription, actorID string) error {
	if p.Finalized {
		return apperr.Forbidden(apperr.ReasonFinalized, "prescription is finalized")
	}
	if p.AuthorID != actorID {
		return apperr.Forbidden(apperr.ReasonNotOwner, "only the authoring doctor may modify a prescription")
	}
	return nil
}

func (s *Service) Update(ctx context.Context, actorID, actorRole string, id uuid.UUID, medicines []Medicine, instructions string) (*Prescription, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := editable(p, actorID); err != nil {
		return nil, err
	}
	if err := validateMedicines(medicines); err != nil {
		return nil, err
	}

	p.Medicines = medicines
	p.Instructions = instructions
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("prescription.update", actorID, actorRole).
		ForPatient(p.PatientID).
		ForResource("prescription", p.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return p, nil
}

// Finalize locks the prescription permanently. There is no unfinalize;
// corrections happen as new prescriptions.
func (s *Service) Finalize(ctx context.Context, actorID, actorRole string, id uuid.UUID) (*Prescription, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := editable(p, actorID); err != nil {
		return nil, err
	}

	at := s.now()
	p.Finalized = true
	p.UpdatedAt = at
	p.FinalizedAt = &at
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("prescription.finalize", actorID, actorRole).
		ForPatient(p.PatientID).
		ForResource("prescription", p.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

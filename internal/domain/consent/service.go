package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
)

// Service is the consent ledger. Grants supersede prior grants of the same
// type, revocations take effect on the very next check, and the ledger is
// never consulted through a cache.
type Service struct {
	repo    Repository
	auditor audit.Recorder
}

func NewService(repo Repository, auditor audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Grant records an active consent. An existing active record of the same
// type is revoked first so exactly one record per pair is ever active.
func (s *Service) Grant(ctx context.Context, actorID, actorRole, patientID, consentType string) (*Record, error) {
	if patientID == "" {
		return nil, apperr.Validation("patient_id is required")
	}
	if !ValidType(consentType) {
		return nil, apperr.Validation("unknown consent type %q", consentType)
	}

	now := time.Now().UTC()
	prior, err := s.repo.ActiveByType(ctx, patientID, consentType)
	if err != nil {
		return nil, fmt.Errorf("look up active consent: %w", err)
	}
	if prior != nil {
		if err := s.repo.Revoke(ctx, prior.ID, now); err != nil {
			return nil, fmt.Errorf("supersede consent %s: %w", prior.ID, err)
		}
	}

	rec := &Record{
		PatientID: patientID,
		Type:      consentType,
		Granted:   true,
		GrantedAt: now,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append consent: %w", err)
	}

	entry := audit.NewEntry("consent.grant", actorID, actorRole).
		ForPatient(patientID).
		ForResource("consent", rec.ID.String()).
		WithDetail(consentType)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("audit consent grant: %w", err)
	}
	return rec, nil
}

// Revoke marks the active record of the type revoked. Revoking when
// nothing is active is a no-op.
func (s *Service) Revoke(ctx context.Context, actorID, actorRole, patientID, consentType string) error {
	if !ValidType(consentType) {
		return apperr.Validation("unknown consent type %q", consentType)
	}

	active, err := s.repo.ActiveByType(ctx, patientID, consentType)
	if err != nil {
		return fmt.Errorf("look up active consent: %w", err)
	}
	if active == nil {
		return nil
	}

	if err := s.repo.Revoke(ctx, active.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke consent %s: %w", active.ID, err)
	}

	entry := audit.NewEntry("consent.revoke", actorID, actorRole).
		ForPatient(patientID).
		ForResource("consent", active.ID.String()).
		WithDetail(consentType)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit consent revoke: %w", err)
	}
	return nil
}

// IsActive answers "is this consent currently authorized". Unknown
// patients and unknown types read as false, never as errors.
func (s *Service) IsActive(ctx context.Context, patientID, consentType string) (bool, error) {
	if patientID == "" || !ValidType(consentType) {
		return false, nil
	}
	rec, err := s.repo.ActiveByType(ctx, patientID, consentType)
	if err != nil {
		return false, fmt.Errorf("look up active consent: %w", err)
	}
	return rec != nil, nil
}

// ActiveScope returns the set of consent types currently active for the
// patient. Used to compute what a doctor may view.
func (s *Service) ActiveScope(ctx context.Context, patientID string) ([]string, error) {
	if patientID == "" {
		return nil, nil
	}
	return s.repo.ActiveTypes(ctx, patientID)
}

// History lists the full append-only trail for a patient, newest first.
func (s *Service) History(ctx context.Context, patientID string) ([]*Record, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

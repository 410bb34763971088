package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
	"github.com/carevista/carevista/internal/platform/auth"
)

// Reassigner rewrites patient identity on one collection's records.
// Every patient-keyed repository implements it so linking migrates all of
// them.
type Reassigner interface {
	ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error
}

// TxRunner scopes a function to one storage transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo        Repository
	auditor     audit.Recorder
	tx          TxRunner
	reassigners []Reassigner
}

func NewService(repo Repository, auditor audit.Recorder, tx TxRunner, reassigners ...Reassigner) *Service {
	return &Service{repo: repo, auditor: auditor, tx: tx, reassigners: reassigners}
}

// ResolveRole maps a subject to its directory role. A subject without an
// entry is NotFound; callers must treat that as unauthorized, never as a
// patient default.
func (s *Service) ResolveRole(ctx context.Context, subjectID string) (string, error) {
	u, err := s.repo.GetUser(ctx, subjectID)
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		return "", apperr.NotFound("no role assigned to subject")
	}
	return u.Role, nil
}

// Profile returns the directory entry for a subject.
func (s *Service) Profile(ctx context.Context, subjectID string) (*User, error) {
	u, err := s.repo.GetUser(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// Register creates a directory entry for a subject. Self-registration is
// limited to the patient role; clinical and admin roles are provisioned by
// an admin.
func (s *Service) Register(ctx context.Context, actorRole string, u *User) error {
	if u.ID == "" {
		return apperr.Validation("id is required")
	}
	if !auth.ValidRole(u.Role) {
		return apperr.Validation("unknown role %q", u.Role)
	}
	if u.Role != auth.RolePatient && actorRole != auth.RoleAdmin {
		return apperr.Forbidden(apperr.ReasonRoleForbidden, "only admins may register non-patient roles")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	existing, err := s.repo.GetUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		return apperr.Conflict("user already registered")
	}
	return s.repo.CreateUser(ctx, u)
}

// MintTempPatient creates a temporary patient identity for a walk-in.
// Satisfies the assisted-session minter.
func (s *Service) MintTempPatient(ctx context.Context, displayName, language string) (string, error) {
	t := &TempPatient{
		ID:          TempIDPrefix + uuid.New().String(),
		DisplayName: displayName,
		Language:    language,
		CreatedBy:   auth.ActorIDFromContext(ctx),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateTempPatient(ctx, t); err != nil {
		return "", fmt.Errorf("create temporary patient: %w", err)
	}
	return t.ID, nil
}

// UnlinkedTempPatients lists temporary identities awaiting a permanent
// account.
func (s *Service) UnlinkedTempPatients(ctx context.Context) ([]*TempPatient, error) {
	return s.repo.ListUnlinkedTempPatients(ctx)
}

// Link merges a temporary patient into a permanent identity. Every
// patient-keyed record moves by identity substitution inside one
// transaction; timestamps and contents are untouched. A linked temp id
// never links again.
func (s *Service) Link(ctx context.Context, actorID, actorRole, tempID, permanentID string) error {
	temp, err := s.repo.GetTempPatient(ctx, tempID)
	if err != nil {
		return fmt.Errorf("look up temporary patient: %w", err)
	}
	if temp == nil {
		return apperr.NotFound("temporary patient not found")
	}
	if temp.Linked() {
		return apperr.Conflict("temporary patient is already linked")
	}

	permanent, err := s.repo.GetUser(ctx, permanentID)
	if err != nil {
		return fmt.Errorf("look up permanent identity: %w", err)
	}
	if permanent == nil {
		return apperr.NotFound("permanent identity not found")
	}
	if permanent.Role != auth.RolePatient {
		return apperr.Validation("link target must be a patient account")
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, r := range s.reassigners {
			if err := r.ReassignPatient(ctx, tempID, permanentID); err != nil {
				return fmt.Errorf("reassign records: %w", err)
			}
		}
		return s.repo.MarkLinked(ctx, tempID, permanentID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	entry := audit.NewEntry("identity.link", actorID, actorRole).
		ForPatient(permanentID).
		ForResource("temporary_patient", tempID)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit identity link: %w", err)
	}
	return nil
}

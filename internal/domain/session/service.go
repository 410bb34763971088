package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
)

// TempPatientMinter creates a temporary patient identity for walk-ins who
// have no account yet.
type TempPatientMinter interface {
	MintTempPatient(ctx context.Context, displayName, language string) (string, error)
}

// StartRequest carries the inputs for starting an assisted session. Any
// permission fields a client sends are ignored; the capability table is
// the only source of permissions.
type StartRequest struct {
	PatientID         string
	NewPatientName    string
	PresenceConfirmed bool
	Language          string
}

type Service struct {
	repo    Repository
	auditor audit.Recorder
	minter  TempPatientMinter
	timeout time.Duration
	now     func() time.Time
}

func NewService(repo Repository, auditor audit.Recorder, minter TempPatientMinter, timeout time.Duration) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		minter:  minter,
		timeout: timeout,
		now:     time.Now,
	}
}

// Start opens an assisted session. The patient must be physically present
// (confirmed flag), and the actor must not already hold an active session.
func (s *Service) Start(ctx context.Context, actorID string, req StartRequest) (*Session, error) {
	if !req.PresenceConfirmed {
		return nil, apperr.Validation("patient presence must be confirmed")
	}
	if req.PatientID == "" && req.NewPatientName == "" {
		return nil, apperr.Validation("patient_id or new patient name is required")
	}

	existing, err := s.Current(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("an active assisted session already exists for this actor")
	}

	patientID := req.PatientID
	if patientID == "" {
		patientID, err = s.minter.MintTempPatient(ctx, req.NewPatientName, req.Language)
		if err != nil {
			return nil, fmt.Errorf("mint temporary patient: %w", err)
		}
	}

	now := s.now().UTC()
	sess := &Session{
		ActorID:        actorID,
		PatientID:      patientID,
		Status:         StatusActive,
		Language:       req.Language,
		Permissions:    Capabilities(),
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.timeout),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create assisted session: %w", err)
	}

	entry := audit.NewEntry("session.start", actorID, "health_worker").
		ForPatient(patientID).
		ForResource("assisted_session", sess.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("audit session start: %w", err)
	}
	return sess, nil
}

// Heartbeat slides the expiry forward by the full timeout window.
func (s *Service) Heartbeat(ctx context.Context, sessionID uuid.UUID, actorID string) (time.Time, error) {
	sess, err := s.owned(ctx, sessionID, actorID)
	if err != nil {
		return time.Time{}, err
	}

	now := s.now().UTC()
	if Advance(sess, now) {
		if err := s.repo.Update(ctx, sess); err != nil {
			return time.Time{}, fmt.Errorf("persist session expiry: %w", err)
		}
	}
	if sess.Terminal() {
		return time.Time{}, apperr.Gone("assisted session is no longer active")
	}

	sess.LastActivityAt = now
	sess.ExpiresAt = now.Add(s.timeout)
	if err := s.repo.Update(ctx, sess); err != nil {
		return time.Time{}, fmt.Errorf("persist heartbeat: %w", err)
	}
	return sess.ExpiresAt, nil
}

// End transitions the session to ended and zeroes every permission.
// Ending an already-terminal session succeeds without change.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID, actorID string) error {
	sess, err := s.owned(ctx, sessionID, actorID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	Advance(sess, now)
	if sess.Status == StatusEnded {
		return nil
	}

	sess.Status = StatusEnded
	sess.Permissions = Permissions{}
	sess.EndedAt = &now
	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("persist session end: %w", err)
	}

	entry := audit.NewEntry("session.end", actorID, "health_worker").
		ForPatient(sess.PatientID).
		ForResource("assisted_session", sess.ID.String())
	if err := s.auditor.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit session end: %w", err)
	}
	return nil
}

// Current returns the actor's active session after the expiry sweep, or
// nil when none is active.
func (s *Service) Current(ctx context.Context, actorID string) (*Session, error) {
	sess, err := s.repo.ActiveByActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("look up active session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if Advance(sess, s.now().UTC()) {
		if err := s.repo.Update(ctx, sess); err != nil {
			return nil, fmt.Errorf("persist session expiry: %w", err)
		}
	}
	if sess.Terminal() {
		return nil, nil
	}
	return sess, nil
}

// HasActiveSession reports whether the actor holds an active session
// scoped to the given patient. Satisfies the access gate's checker.
func (s *Service) HasActiveSession(ctx context.Context, actorID, patientID string) (bool, error) {
	sess, err := s.Current(ctx, actorID)
	if err != nil {
		return false, err
	}
	return sess != nil && sess.PatientID == patientID, nil
}

func (s *Service) owned(ctx context.Context, sessionID uuid.UUID, actorID string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if sess == nil || sess.ActorID != actorID {
		return nil, apperr.NotFound("assisted session not found")
	}
	return sess, nil
}

package triage

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
)

// ConsentChecker answers whether a consent type is active for a patient.
// The queue only surfaces cases whose patients share with doctors.
type ConsentChecker interface {
	IsActive(ctx context.Context, patientID, consentType string) (bool, error)
}

// QueueEntry is a queue row annotated for the doctor console. The note
// makes clear the ordering is a suggestion, not an assignment.
type QueueEntry struct {
	Record         *Record `json:"record"`
	EffectiveLevel string  `json:"effective_level"`
	Note           string  `json:"note"`
}

const queueNote = "Priority suggested by rules. Assignment remains a doctor decision."

type Service struct {
	repo     Repository
	consents ConsentChecker
	auditor  audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, consents ConsentChecker, auditor audit.Recorder) *Service {
	return &Service{repo: repo, consents: consents, auditor: auditor, now: time.Now}
}

// Compute classifies a new symptom case and stores the result. Severity is
// validated here so the classifier itself stays total over its inputs.
func (s *Service) Compute(ctx context.Context, caseID, patientID string, severity, durationDays int, freeText string) (*Record, error) {
	if severity < 1 || severity > 10 {
		return nil, apperr.Validation("severity must be between 1 and 10, got %d", severity)
	}
	if durationDays < 0 {
		return nil, apperr.Validation("duration_days must not be negative")
	}
	if existing, err := s.repo.GetByCase(ctx, caseID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("case already classified")
	}

	level, reason := Classify(severity, durationDays, freeText)
	rec := &Record{
		ID:            uuid.New(),
		CaseID:        caseID,
		PatientID:     patientID,
		ComputedLevel: level,
		Reason:        reason,
		ComputedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetByCase(ctx context.Context, caseID string) (*Record, error) {
	rec, err := s.repo.GetByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.NotFound("no triage record for case")
	}
	return rec, nil
}

// Override records a doctor's reprioritization beside the computed result.
// The computed level and reason are never touched.
func (s *Service) Override(ctx context.Context, actorID, actorRole, caseID, level, reason string) (*Record, error) {
	if !ValidLevel(level) {
		return nil, apperr.Validation("unknown triage level %q", level)
	}
	if reason == "" {
		return nil, apperr.Validation("override reason is required")
	}

	rec, err := s.GetByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	rec.DoctorOverride = &level
	rec.OverrideReason = &reason
	rec.OverriddenBy = &actorID
	rec.OverriddenAt = &at
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("triage.override", actorID, actorRole).
		ForPatient(rec.PatientID).
		ForResource("triage_record", rec.ID.String()).
		WithDetail("override to " + level)
	if err := s.auditor.Record(ctx, entry); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkHandled removes a case from the queue once a doctor has taken it up.
func (s *Service) MarkHandled(ctx context.Context, actorID, actorRole, caseID string) error {
	rec, err := s.GetByCase(ctx, caseID)
	if err != nil {
		return err
	}
	if rec.Handled {
		return nil
	}
	rec.Handled = true
	if err := s.repo.Update(ctx, rec); err != nil {
		return err
	}

	entry := audit.NewEntry("triage.handled", actorID, actorRole).
		ForPatient(rec.PatientID).
		ForResource("triage_record", rec.ID.String())
	return s.auditor.Record(ctx, entry)
}

// Queue returns unhandled, doctor-shareable cases ordered by effective
// level then arrival. Patients without active doctor_sharing consent are
// filtered out entirely, not shown as locked rows.
func (s *Service) Queue(ctx context.Context) ([]*QueueEntry, error) {
	records, err := s.repo.ListUnhandled(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*QueueEntry, 0, len(records))
	for _, rec := range records {
		shared, err := s.consents.IsActive(ctx, rec.PatientID, "doctor_sharing")
		if err != nil {
			return nil, err
		}
		if !shared {
			continue
		}
		entries = append(entries, &QueueEntry{
			Record:         rec,
			EffectiveLevel: rec.EffectiveLevel(),
			Note:           queueNote,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := Rank(entries[i].EffectiveLevel), Rank(entries[j].EffectiveLevel)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Record.ComputedAt.Before(entries[j].Record.ComputedAt)
	})
	return entries, nil
}

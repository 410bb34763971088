package triage

import (
	"context"
	"testing"
	"time"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/audit"
)

type memoryRepo struct {
	byCase map[string]*Record
}

func newMemoryRepo() *memoryRepo { return &memoryRepo{byCase: map[string]*Record{}} }

func (m *memoryRepo) Create(_ context.Context, r *Record) error {
	cp := *r
	m.byCase[r.CaseID] = &cp
	return nil
}

func (m *memoryRepo) GetByCase(_ context.Context, caseID string) (*Record, error) {
	r, ok := m.byCase[caseID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memoryRepo) Update(_ context.Context, r *Record) error {
	cp := *r
	m.byCase[r.CaseID] = &cp
	return nil
}

func (m *memoryRepo) ListUnhandled(_ context.Context) ([]*Record, error) {
	var out []*Record
	for _, r := range m.byCase {
		if !r.Handled {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryRepo) ReassignPatient(_ context.Context, from, to string) error {
	for _, r := range m.byCase {
		if r.PatientID == from {
			r.PatientID = to
		}
	}
	return nil
}

type fakeConsents struct {
	shared map[string]bool
}

func (f *fakeConsents) IsActive(_ context.Context, patientID, consentType string) (bool, error) {
	if consentType != "doctor_sharing" {
		return false, nil
	}
	return f.shared[patientID], nil
}

func newTestService() (*Service, *memoryRepo, *fakeConsents) {
	repo := newMemoryRepo()
	consents := &fakeConsents{shared: map[string]bool{}}
	svc := NewService(repo, consents, audit.NewMemoryRecorder())
	return svc, repo, consents
}

func TestComputeStoresClassification(t *testing.T) {
	svc, _, _ := newTestService()
	rec, err := svc.Compute(context.Background(), "case-1", "p-1", 9, 30, "mild cough")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ComputedLevel != LevelUrgent {
		t.Errorf("level = %q", rec.ComputedLevel)
	}
	if rec.EffectiveLevel() != LevelUrgent {
		t.Errorf("effective = %q", rec.EffectiveLevel())
	}
}

func TestComputeValidatesSeverity(t *testing.T) {
	svc, _, _ := newTestService()
	for _, severity := range []int{0, 11, -3} {
		_, err := svc.Compute(context.Background(), "case-1", "p-1", severity, 5, "cough")
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("severity %d: err = %v, want validation", severity, err)
		}
	}
}

func TestComputeTwiceConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Compute(ctx, "case-1", "p-1", 4, 30, "cough"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Compute(ctx, "case-1", "p-1", 4, 30, "cough")
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestOverrideKeepsComputed(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Compute(ctx, "case-1", "p-1", 2, 60, "mild cough"); err != nil {
		t.Fatal(err)
	}

	rec, err := svc.Override(ctx, "d-1", "doctor", "case-1", LevelUrgent, "known cardiac history")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ComputedLevel != LevelRoutine {
		t.Errorf("computed level mutated to %q", rec.ComputedLevel)
	}
	if rec.EffectiveLevel() != LevelUrgent {
		t.Errorf("effective = %q, want override", rec.EffectiveLevel())
	}
	if rec.OverriddenBy == nil || *rec.OverriddenBy != "d-1" {
		t.Error("override attribution missing")
	}

	stored := repo.byCase["case-1"]
	if stored.Reason != "No urgency rules triggered." {
		t.Errorf("stored reason mutated: %q", stored.Reason)
	}
}

func TestOverrideRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Compute(ctx, "case-1", "p-1", 2, 60, "cough")

	_, err := svc.Override(ctx, "d-1", "doctor", "case-1", LevelUrgent, "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestOverrideUnknownLevel(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	svc.Compute(ctx, "case-1", "p-1", 2, 60, "cough")

	_, err := svc.Override(ctx, "d-1", "doctor", "case-1", "panic", "reason")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestOverrideMissingCaseNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Override(context.Background(), "d-1", "doctor", "case-x", LevelUrgent, "reason")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestQueueOrdering(t *testing.T) {
	svc, _, consents := newTestService()
	ctx := context.Background()
	consents.shared["p-1"] = true
	consents.shared["p-2"] = true
	consents.shared["p-3"] = true

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	at := base
	svc.now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}

	// Arrival order: routine, urgent, consultation, then a second urgent.
	svc.Compute(ctx, "case-r", "p-1", 2, 60, "mild cough")
	svc.Compute(ctx, "case-u1", "p-2", 9, 30, "mild cough")
	svc.Compute(ctx, "case-c", "p-3", 6, 30, "mild cough")
	svc.Compute(ctx, "case-u2", "p-1", 2, 30, "sudden collapse")

	entries, err := svc.Queue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Record.CaseID)
	}
	want := []string{"case-u1", "case-u2", "case-c", "case-r"}
	if len(got) != len(want) {
		t.Fatalf("queue = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue = %v, want %v", got, want)
		}
	}
}

func TestQueueHonorsOverride(t *testing.T) {
	svc, _, consents := newTestService()
	ctx := context.Background()
	consents.shared["p-1"] = true
	consents.shared["p-2"] = true

	svc.Compute(ctx, "case-a", "p-1", 6, 30, "mild cough")
	svc.Compute(ctx, "case-b", "p-2", 2, 60, "mild cough")
	if _, err := svc.Override(ctx, "d-1", "doctor", "case-b", LevelUrgent, "clinical judgement"); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.Queue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Record.CaseID != "case-b" {
		t.Errorf("first = %s, want overridden case", entries[0].Record.CaseID)
	}
	if entries[0].Record.ComputedLevel != LevelRoutine {
		t.Error("computed level should survive override")
	}
}

func TestQueueFiltersUnsharedPatients(t *testing.T) {
	svc, _, consents := newTestService()
	ctx := context.Background()
	consents.shared["p-1"] = true

	svc.Compute(ctx, "case-a", "p-1", 9, 30, "cough")
	svc.Compute(ctx, "case-b", "p-2", 9, 30, "cough")

	entries, err := svc.Queue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Record.CaseID != "case-a" {
		t.Fatalf("entries = %v, want only shared patient", entries)
	}
}

func TestQueueExcludesHandled(t *testing.T) {
	svc, _, consents := newTestService()
	ctx := context.Background()
	consents.shared["p-1"] = true

	svc.Compute(ctx, "case-a", "p-1", 9, 30, "cough")
	if err := svc.MarkHandled(ctx, "d-1", "doctor", "case-a"); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.Queue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

func TestQueueEntriesCarryAssistiveNote(t *testing.T) {
	svc, _, consents := newTestService()
	ctx := context.Background()
	consents.shared["p-1"] = true
	svc.Compute(ctx, "case-a", "p-1", 9, 30, "cough")

	entries, _ := svc.Queue(ctx)
	if entries[0].Note == "" {
		t.Error("queue entry missing assistive note")
	}
}

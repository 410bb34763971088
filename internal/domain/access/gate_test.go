package access

import (
	"context"
	"testing"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/auth"
)

type fakeSessions struct {
	active map[string]string // actorID -> patientID
}

func (f *fakeSessions) HasActiveSession(_ context.Context, actorID, patientID string) (bool, error) {
	pid, ok := f.active[actorID]
	return ok && pid == patientID, nil
}

type fakeConsents struct {
	granted map[string][]string // patientID -> active types
}

func (f *fakeConsents) IsActive(_ context.Context, patientID, consentType string) (bool, error) {
	for _, t := range f.granted[patientID] {
		if t == consentType {
			return true, nil
		}
	}
	return false, nil
}

func newTestGate() (*Gate, *fakeSessions, *fakeConsents) {
	sessions := &fakeSessions{active: map[string]string{}}
	consents := &fakeConsents{granted: map[string][]string{}}
	return NewGate(sessions, consents), sessions, consents
}

func TestAuthorizeRoleCheckedBeforeConsent(t *testing.T) {
	gate, _, consents := newTestGate()
	// No consent on file either; the deny reason must still be the role,
	// not the consent, so resource existence is not leaked.
	_ = consents

	d, err := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "p-1", Role: auth.RolePatient},
		Op:        OpSymptomsReadDoc,
		PatientID: "p-2",
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Fatal("expected deny")
	}
	if d.Reason != apperr.ReasonRoleForbidden {
		t.Errorf("reason = %q, want %q", d.Reason, apperr.ReasonRoleForbidden)
	}
}

func TestAuthorizeConsentMissing(t *testing.T) {
	gate, _, _ := newTestGate()

	d, err := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpSymptomsReadDoc,
		PatientID: "p-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != apperr.ReasonConsentMissing {
		t.Fatalf("decision = %+v, want deny consent_missing", d)
	}
}

func TestAuthorizeConsentGrantedAllows(t *testing.T) {
	gate, _, consents := newTestGate()
	consents.granted["p-1"] = []string{"doctor_sharing"}

	d, err := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpSymptomsReadDoc,
		PatientID: "p-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatalf("decision = %+v, want allow", d)
	}
}

func TestAuthorizeRevocationImmediate(t *testing.T) {
	gate, _, consents := newTestGate()
	consents.granted["p-1"] = []string{"doctor_sharing"}

	req := Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpSymptomsReadDoc,
		PatientID: "p-1",
	}
	d, _ := gate.Authorize(context.Background(), req)
	if !d.Allowed {
		t.Fatal("expected allow before revocation")
	}

	consents.granted["p-1"] = nil

	d, _ = gate.Authorize(context.Background(), req)
	if d.Allowed || d.Reason != apperr.ReasonConsentMissing {
		t.Fatalf("decision after revoke = %+v, want deny consent_missing", d)
	}
}

func TestAuthorizeHealthWorkerNeedsSession(t *testing.T) {
	gate, sessions, _ := newTestGate()

	req := Request{
		Principal: Principal{ID: "hw-1", Role: auth.RoleHealthWorker},
		Op:        OpVitalsWrite,
		PatientID: "p-1",
	}
	d, err := gate.Authorize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != apperr.ReasonNoActiveSession {
		t.Fatalf("decision = %+v, want deny no_active_session", d)
	}

	sessions.active["hw-1"] = "p-1"
	d, _ = gate.Authorize(context.Background(), req)
	if !d.Allowed {
		t.Fatalf("decision with session = %+v, want allow", d)
	}

	// Session scoped to another patient does not count.
	sessions.active["hw-1"] = "p-9"
	d, _ = gate.Authorize(context.Background(), req)
	if d.Allowed {
		t.Fatal("session for another patient must not authorize")
	}
}

func TestAuthorizePatientWritesNeedNoSession(t *testing.T) {
	gate, _, _ := newTestGate()

	d, err := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "p-1", Role: auth.RolePatient},
		Op:        OpVitalsWrite,
		PatientID: "p-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatalf("decision = %+v, want allow", d)
	}
}

func TestAuthorizeApprovalRequired(t *testing.T) {
	gate, _, consents := newTestGate()
	consents.granted["p-1"] = []string{"doctor_sharing"}

	req := Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpSummaryReadDoc,
		PatientID: "p-1",
	}
	d, _ := gate.Authorize(context.Background(), req)
	if d.Allowed || d.Reason != apperr.ReasonNotApproved {
		t.Fatalf("decision = %+v, want deny not_approved", d)
	}

	req.ResourceApproved = true
	d, _ = gate.Authorize(context.Background(), req)
	if !d.Allowed {
		t.Fatalf("decision = %+v, want allow", d)
	}
}

func TestAuthorizeAudioNeedsBothConsents(t *testing.T) {
	gate, _, consents := newTestGate()
	consents.granted["p-1"] = []string{"recording"}

	d, _ := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "p-1", Role: auth.RolePatient},
		Op:        OpSymptomsAudio,
		PatientID: "p-1",
	})
	if d.Allowed || d.Reason != apperr.ReasonConsentMissing {
		t.Fatalf("decision = %+v, want deny consent_missing", d)
	}

	consents.granted["p-1"] = []string{"recording", "transcription"}
	d, _ = gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "p-1", Role: auth.RolePatient},
		Op:        OpSymptomsAudio,
		PatientID: "p-1",
	})
	if !d.Allowed {
		t.Fatalf("decision = %+v, want allow", d)
	}
}

func TestAuthorizeDoctorVitalsReadNeedsConsent(t *testing.T) {
	gate, _, consents := newTestGate()

	req := Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpVitalsReadDoc,
		PatientID: "p-1",
	}
	d, err := gate.Authorize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.Reason != apperr.ReasonConsentMissing {
		t.Fatalf("decision = %+v, want deny consent_missing", d)
	}

	consents.granted["p-1"] = []string{"doctor_sharing"}
	d, _ = gate.Authorize(context.Background(), req)
	if !d.Allowed {
		t.Fatalf("decision with consent = %+v, want allow", d)
	}

	// Patients read their own vitals without any consent on file.
	d, _ = gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "p-2", Role: auth.RolePatient},
		Op:        OpVitalsRead,
		PatientID: "p-2",
	})
	if !d.Allowed {
		t.Fatalf("patient self-read = %+v, want allow", d)
	}
}

func TestAuthorizeReportUploadSessionRule(t *testing.T) {
	gate, sessions, _ := newTestGate()

	req := Request{
		Principal: Principal{ID: "hw-1", Role: auth.RoleHealthWorker},
		Op:        OpReportWrite,
		PatientID: "p-1",
	}
	d, _ := gate.Authorize(context.Background(), req)
	if d.Allowed || d.Reason != apperr.ReasonNoActiveSession {
		t.Fatalf("decision = %+v, want deny no_active_session", d)
	}

	sessions.active["hw-1"] = "p-1"
	d, _ = gate.Authorize(context.Background(), req)
	if !d.Allowed {
		t.Fatalf("decision with session = %+v, want allow", d)
	}

	d, _ = gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        OpReportWrite,
		PatientID: "p-1",
	})
	if d.Allowed || d.Reason != apperr.ReasonRoleForbidden {
		t.Fatalf("doctor upload = %+v, want deny role_forbidden", d)
	}
}

func TestAuthorizeUnknownOperationDenies(t *testing.T) {
	gate, _, _ := newTestGate()
	d, err := gate.Authorize(context.Background(), Request{
		Principal: Principal{ID: "d-1", Role: auth.RoleDoctor},
		Op:        "no.such.op",
	})
	if err == nil {
		t.Fatal("expected error for unknown operation")
	}
	if d.Allowed {
		t.Fatal("unknown operation must never allow")
	}
}

func TestRequireMapsToForbidden(t *testing.T) {
	gate, _, _ := newTestGate()
	err := gate.Require(context.Background(), Request{
		Principal: Principal{ID: "p-1", Role: auth.RolePatient},
		Op:        OpTriageRead,
		PatientID: "p-1",
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("kind = %v, want forbidden", apperr.KindOf(err))
	}
	if apperr.ReasonOf(err) != apperr.ReasonRoleForbidden {
		t.Errorf("reason = %q, want role_forbidden", apperr.ReasonOf(err))
	}
}

package access

import (
	"context"
	"fmt"

	"github.com/carevista/carevista/internal/platform/apperr"
	"github.com/carevista/carevista/internal/platform/auth"
)

// Protected operations. Each one resolves to a row in the requirement
// table below; there is no per-handler authorization logic anywhere else.
const (
	OpConsentWrite     = "consent.write"
	OpConsentRead      = "consent.read"
	OpVitalsWrite      = "vitals.write"
	OpVitalsRead       = "vitals.read"
	OpVitalsReadDoc    = "vitals.read.doctor"
	OpReportWrite      = "reports.write"
	OpSymptomsWrite    = "symptoms.write"
	OpSymptomsAudio    = "symptoms.audio"
	OpSymptomsReadDoc  = "symptoms.read.doctor"
	OpSummaryReadDoc   = "summary.read.doctor"
	OpReportReadDoc    = "reports.read.doctor"
	OpHistoryReadDoc   = "history.read.doctor"
	OpTriageRead       = "triage.read"
	OpTriageOverride   = "triage.override"
	OpQueueRead        = "queue.read"
	OpPrescriptionEdit = "prescription.edit"
	OpDiscussionWrite  = "discussion.write"
	OpDiscussionRead   = "discussion.read"
	OpLabUpload        = "lab.upload"
	OpRTCToken         = "telemed.token"
	OpAuditRead        = "audit.read"
)

// Principal is the authenticated actor as resolved for this request.
type Principal struct {
	ID   string
	Role string
}

// Decision is the gate's answer for one operation. Deny reasons are the
// stable codes callers receive; they distinguish wrong role from missing
// consent from a dead session without leaking anything else.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// SessionChecker answers whether the actor holds an active assisted
// session scoped to the patient.
type SessionChecker interface {
	HasActiveSession(ctx context.Context, actorID, patientID string) (bool, error)
}

// ConsentChecker answers whether a consent type is currently active for
// the patient. It must reflect revocation immediately.
type ConsentChecker interface {
	IsActive(ctx context.Context, patientID, consentType string) (bool, error)
}

// requirement is one row of the decision table.
type requirement struct {
	roles []string
	// sessionRoles lists roles that additionally need an active assisted
	// session for the target patient.
	sessionRoles []string
	// consents lists consent types that must all be active for the target
	// patient.
	consents []string
	// approval marks operations that also require patient-side approval of
	// the specific resource, supplied per request.
	approval bool
}

var requirements = map[string]requirement{
	OpConsentWrite:     {roles: []string{auth.RolePatient, auth.RoleHealthWorker, auth.RoleAdmin}, sessionRoles: []string{auth.RoleHealthWorker}},
	OpConsentRead:      {roles: []string{auth.RolePatient, auth.RoleHealthWorker, auth.RoleDoctor, auth.RoleAdmin}},
	OpVitalsWrite:      {roles: []string{auth.RolePatient, auth.RoleHealthWorker}, sessionRoles: []string{auth.RoleHealthWorker}},
	OpVitalsRead:       {roles: []string{auth.RolePatient}},
	OpVitalsReadDoc:    {roles: []string{auth.RoleDoctor}, consents: []string{"doctor_sharing"}},
	OpReportWrite:      {roles: []string{auth.RolePatient, auth.RoleHealthWorker}, sessionRoles: []string{auth.RoleHealthWorker}},
	OpSymptomsWrite:    {roles: []string{auth.RolePatient, auth.RoleHealthWorker}, sessionRoles: []string{auth.RoleHealthWorker}},
	OpSymptomsAudio:    {roles: []string{auth.RolePatient, auth.RoleHealthWorker}, sessionRoles: []string{auth.RoleHealthWorker}, consents: []string{"recording", "transcription"}},
	OpSymptomsReadDoc:  {roles: []string{auth.RoleDoctor}, consents: []string{"doctor_sharing"}},
	OpSummaryReadDoc:   {roles: []string{auth.RoleDoctor}, consents: []string{"doctor_sharing"}, approval: true},
	OpReportReadDoc:    {roles: []string{auth.RoleDoctor}, consents: []string{"doctor_sharing"}, approval: true},
	OpHistoryReadDoc:   {roles: []string{auth.RoleDoctor}, consents: []string{"doctor_sharing", "data_sharing"}},
	OpTriageRead:       {roles: []string{auth.RoleDoctor}},
	OpTriageOverride:   {roles: []string{auth.RoleDoctor}},
	OpQueueRead:        {roles: []string{auth.RoleDoctor}},
	OpPrescriptionEdit: {roles: []string{auth.RoleDoctor}},
	OpDiscussionWrite:  {roles: []string{auth.RoleDoctor}},
	OpDiscussionRead:   {roles: []string{auth.RoleDoctor}},
	OpLabUpload:        {roles: []string{auth.RoleLabTechnician}},
	OpRTCToken:         {roles: []string{auth.RolePatient, auth.RoleDoctor, auth.RoleHealthWorker}},
	OpAuditRead:        {roles: []string{auth.RoleAdmin}},
}

// Request carries everything the gate needs for one decision.
type Request struct {
	Principal Principal
	Op        string
	PatientID string
	// ResourceApproved reports patient-side approval of the specific
	// resource; only consulted for operations that require it.
	ResourceApproved bool
}

// Gate composes role, session, consent and approval state into a single
// allow/deny decision per operation. Every check reads current stored
// state; nothing is cached between calls.
type Gate struct {
	sessions SessionChecker
	consents ConsentChecker
}

func NewGate(sessions SessionChecker, consents ConsentChecker) *Gate {
	return &Gate{sessions: sessions, consents: consents}
}

// Authorize evaluates the decision table in order; first match wins. Role
// is checked before consent so consent absence never reveals resource
// existence to an unauthorized role.
func (g *Gate) Authorize(ctx context.Context, req Request) (Decision, error) {
	reqmt, ok := requirements[req.Op]
	if !ok {
		return deny(apperr.ReasonRoleForbidden), fmt.Errorf("unknown operation %q", req.Op)
	}

	if !contains(reqmt.roles, req.Principal.Role) {
		return deny(apperr.ReasonRoleForbidden), nil
	}

	if contains(reqmt.sessionRoles, req.Principal.Role) {
		active, err := g.sessions.HasActiveSession(ctx, req.Principal.ID, req.PatientID)
		if err != nil {
			return deny(apperr.ReasonNoActiveSession), fmt.Errorf("check assisted session: %w", err)
		}
		if !active {
			return deny(apperr.ReasonNoActiveSession), nil
		}
	}

	for _, consentType := range reqmt.consents {
		active, err := g.consents.IsActive(ctx, req.PatientID, consentType)
		if err != nil {
			return deny(apperr.ReasonConsentMissing), fmt.Errorf("check consent %s: %w", consentType, err)
		}
		if !active {
			return deny(apperr.ReasonConsentMissing), nil
		}
	}

	if reqmt.approval && !req.ResourceApproved {
		return deny(apperr.ReasonNotApproved), nil
	}

	return allow(), nil
}

// Require is Authorize folded into the error taxonomy for handler use.
func (g *Gate) Require(ctx context.Context, req Request) error {
	decision, err := g.Authorize(ctx, req)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperr.Forbidden(decision.Reason, fmt.Sprintf("operation %s denied", req.Op))
	}
	return nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

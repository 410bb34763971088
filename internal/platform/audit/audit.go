package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one immutable audit record. Every write that touches
// patient-visible data produces one.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	Action       string    `json:"action"`
	ActorID      string    `json:"actor_id"`
	ActorRole    string    `json:"actor_role"`
	PatientID    string    `json:"patient_id,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	Recorded     time.Time `json:"recorded"`
}

// Recorder persists audit entries. Record failures must be treated as
// failures of the operation being audited, not swallowed.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]Entry, error)
}

// NewEntry fills the common fields of an audit entry.
func NewEntry(action, actorID, actorRole string) *Entry {
	return &Entry{
		Action:    action,
		ActorID:   actorID,
		ActorRole: actorRole,
		Recorded:  time.Now().UTC(),
	}
}

// ForPatient tags the entry with the patient whose record it touches.
func (e *Entry) ForPatient(patientID string) *Entry {
	e.PatientID = patientID
	return e
}

// ForResource tags the entry with the resource it touches.
func (e *Entry) ForResource(resourceType, resourceID string) *Entry {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDetail attaches free-form context to the entry.
func (e *Entry) WithDetail(detail string) *Entry {
	e.Detail = detail
	return e
}

package identity

import (
	"context"
	"time"
)

type Repository interface {
	// GetUser returns nil when the subject has no directory entry.
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	CreateTempPatient(ctx context.Context, t *TempPatient) error
	GetTempPatient(ctx context.Context, id string) (*TempPatient, error)
	MarkLinked(ctx context.Context, tempID, permanentID string, at time.Time) error
	ListUnlinkedTempPatients(ctx context.Context) ([]*TempPatient, error)
}

package session

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// ActiveByActor returns the actor's active session, or nil when none
	// exists. The caller applies the expiry transition.
	ActiveByActor(ctx context.Context, actorID string) (*Session, error)
	Update(ctx context.Context, s *Session) error
}

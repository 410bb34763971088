package telemed

import "context"

type Repository interface {
	// GetUID returns nil when the actor has no assignment yet.
	GetUID(ctx context.Context, actorID string) (*UIDAssignment, error)
	// Insert fails when the uid is already taken; callers retry with a
	// fresh candidate.
	Insert(ctx context.Context, a *UIDAssignment) error
}

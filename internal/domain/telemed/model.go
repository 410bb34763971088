package telemed

import "time"

// UIDAssignment maps an actor to their permanent numeric RTC uid. The
// first allocation wins; an actor keeps the same uid across every call so
// in-call identity stays stable.
type UIDAssignment struct {
	ActorID    string    `db:"actor_id" json:"actor_id"`
	UID        uint32    `db:"uid" json:"uid"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// TokenGrant is what a client needs to join a call.
type TokenGrant struct {
	Token     string    `json:"token"`
	Channel   string    `json:"channel"`
	UID       uint32    `json:"uid"`
	ExpiresAt time.Time `json:"expires_at"`
}

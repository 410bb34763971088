package telemed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/platform/db"
)

// ErrUIDTaken signals a unique-constraint collision on insert.
var ErrUIDTaken = errors.New("rtc uid already assigned")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) GetUID(ctx context.Context, actorID string) (*UIDAssignment, error) {
	var a UIDAssignment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT actor_id, uid, assigned_at FROM rtc_uids
		WHERE actor_id = $1`, actorID).Scan(&a.ActorID, &a.UID, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Insert(ctx context.Context, a *UIDAssignment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rtc_uids (actor_id, uid, assigned_at)
		VALUES ($1,$2,$3)`,
		a.ActorID, a.UID, a.AssignedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUIDTaken
	}
	return err
}

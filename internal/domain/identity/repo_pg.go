package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userCols = `id, role, display_name, preferred_language, created_at`

func (r *repoPG) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Role, &u.DisplayName, &u.PreferredLanguage, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) CreateUser(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, role, display_name, preferred_language, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Role, u.DisplayName, u.PreferredLanguage, u.CreatedAt)
	return err
}

const tempCols = `id, display_name, language, created_by, created_at, linked_to, linked_at`

func (r *repoPG) CreateTempPatient(ctx context.Context, t *TempPatient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO temporary_patients (id, display_name, language, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.DisplayName, t.Language, t.CreatedBy, t.CreatedAt)
	return err
}

func (r *repoPG) GetTempPatient(ctx context.Context, id string) (*TempPatient, error) {
	var t TempPatient
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+tempCols+` FROM temporary_patients WHERE id = $1`, id).
		Scan(&t.ID, &t.DisplayName, &t.Language, &t.CreatedBy, &t.CreatedAt, &t.LinkedTo, &t.LinkedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) MarkLinked(ctx context.Context, tempID, permanentID string, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE temporary_patients SET linked_to = $2, linked_at = $3 WHERE id = $1`,
		tempID, permanentID, at)
	return err
}

func (r *repoPG) ListUnlinkedTempPatients(ctx context.Context) ([]*TempPatient, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+tempCols+` FROM temporary_patients
		WHERE linked_to IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*TempPatient
	for rows.Next() {
		var t TempPatient
		if err := rows.Scan(&t.ID, &t.DisplayName, &t.Language, &t.CreatedBy, &t.CreatedAt, &t.LinkedTo, &t.LinkedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

package consent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
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

const consentCols = `id, patient_id, consent_type, granted, granted_at, revoked_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.Type, &rec.Granted, &rec.GrantedAt, &rec.RevokedAt)
	return &rec, err
}

func (r *repoPG) Append(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consents (id, patient_id, consent_type, granted, granted_at, revoked_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.PatientID, rec.Type, rec.Granted, rec.GrantedAt, rec.RevokedAt)
	return err
}

func (r *repoPG) ActiveByType(ctx context.Context, patientID, consentType string) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, `
		SELECT `+consentCols+` FROM consents
		WHERE patient_id = $1 AND consent_type = $2 AND granted AND revoked_at IS NULL
		ORDER BY granted_at DESC
		LIMIT 1`, patientID, consentType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repoPG) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE consents SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consentCols+` FROM consents
		WHERE patient_id = $1
		ORDER BY granted_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *repoPG) ActiveTypes(ctx context.Context, patientID string) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT consent_type FROM consents
		WHERE patient_id = $1 AND granted AND revoked_at IS NULL`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *repoPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE consents SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

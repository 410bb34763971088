package triage

import (
	"context"
	"errors"

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

const triageCols = `id, case_id, patient_id, computed_level, classification_reason,
	doctor_override, doctor_override_reason, overridden_by, handled, computed_at, overridden_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.CaseID, &rec.PatientID, &rec.ComputedLevel, &rec.Reason,
		&rec.DoctorOverride, &rec.OverrideReason, &rec.OverriddenBy, &rec.Handled,
		&rec.ComputedAt, &rec.OverriddenAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO triage_records (id, case_id, patient_id, computed_level, classification_reason,
			doctor_override, doctor_override_reason, overridden_by, handled, computed_at, overridden_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.CaseID, rec.PatientID, rec.ComputedLevel, rec.Reason,
		rec.DoctorOverride, rec.OverrideReason, rec.OverriddenBy, rec.Handled,
		rec.ComputedAt, rec.OverriddenAt)
	return err
}

func (r *repoPG) GetByCase(ctx context.Context, caseID string) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, `
		SELECT `+triageCols+` FROM triage_records
		WHERE case_id = $1`, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update writes only the mutable columns. The computed level and reason
// never change after Create.
func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE triage_records
		SET doctor_override = $2, doctor_override_reason = $3, overridden_by = $4,
			handled = $5, overridden_at = $6
		WHERE id = $1`,
		rec.ID, rec.DoctorOverride, rec.OverrideReason, rec.OverriddenBy,
		rec.Handled, rec.OverriddenAt)
	return err
}

func (r *repoPG) ListUnhandled(ctx context.Context) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+triageCols+` FROM triage_records
		WHERE NOT handled
		ORDER BY computed_at ASC`)
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

func (r *repoPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE triage_records SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

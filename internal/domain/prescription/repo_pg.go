package prescription

import (
	"context"
	"encoding/json"
	"errors"

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

const prescriptionCols = `id, patient_id, author_id, case_id, medicines, instructions,
	ai_involvement, finalized, created_at, updated_at, finalized_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var (
		p         Prescription
		medicines []byte
	)
	err := row.Scan(&p.ID, &p.PatientID, &p.AuthorID, &p.CaseID, &medicines, &p.Instructions,
		&p.AIInvolvement, &p.Finalized, &p.CreatedAt, &p.UpdatedAt, &p.FinalizedAt)
	if err != nil {
		return nil, err
	}
	if len(medicines) > 0 {
		if err := json.Unmarshal(medicines, &p.Medicines); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (id, patient_id, author_id, case_id, medicines, instructions,
			ai_involvement, finalized, created_at, updated_at, finalized_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.PatientID, p.AuthorID, p.CaseID, medicines, p.Instructions,
		p.AIInvolvement, p.Finalized, p.CreatedAt, p.UpdatedAt, p.FinalizedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions
		SET medicines = $2, instructions = $3, finalized = $4, updated_at = $5, finalized_at = $6
		WHERE id = $1`,
		p.ID, medicines, p.Instructions, p.Finalized, p.UpdatedAt, p.FinalizedAt)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescriptions SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

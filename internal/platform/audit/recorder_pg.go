package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecorder writes audit entries to the audit_logs table.
type PGRecorder struct {
	pool *pgxpool.Pool
}

func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

const auditColumns = `id, action, actor_id, actor_role, patient_id, resource_type, resource_id, detail, recorded`

func (r *PGRecorder) Record(ctx context.Context, entry *Entry) error {
	if entry.Recorded.IsZero() {
		entry.Recorded = time.Now().UTC()
	}

	const query = `
		INSERT INTO audit_logs (action, actor_id, actor_role, patient_id, resource_type, resource_id, detail, recorded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		entry.Action, entry.ActorID, entry.ActorRole,
		entry.PatientID, entry.ResourceType, entry.ResourceID,
		entry.Detail, entry.Recorded,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

func (r *PGRecorder) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM audit_logs
		WHERE patient_id = $1
		ORDER BY recorded DESC
		LIMIT $2 OFFSET $3`, auditColumns)

	rows, err := r.pool.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.ActorID, &e.ActorRole,
			&e.PatientID, &e.ResourceType, &e.ResourceID, &e.Detail, &e.Recorded); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

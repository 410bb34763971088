package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/platform/apperr"
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

const sessionCols = `id, actor_id, patient_id, status, language,
	can_record_vitals, can_record_symptoms, can_upload_reports, can_capture_consent,
	created_at, last_activity_at, expires_at, ended_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ActorID, &s.PatientID, &s.Status, &s.Language,
		&s.Permissions.CanRecordVitals, &s.Permissions.CanRecordSymptoms,
		&s.Permissions.CanUploadReports, &s.Permissions.CanCaptureConsent,
		&s.CreatedAt, &s.LastActivityAt, &s.ExpiresAt, &s.EndedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assisted_sessions (id, actor_id, patient_id, status, language,
			can_record_vitals, can_record_symptoms, can_upload_reports, can_capture_consent,
			created_at, last_activity_at, expires_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.ActorID, s.PatientID, s.Status, s.Language,
		s.Permissions.CanRecordVitals, s.Permissions.CanRecordSymptoms,
		s.Permissions.CanUploadReports, s.Permissions.CanCaptureConsent,
		s.CreatedAt, s.LastActivityAt, s.ExpiresAt, s.EndedAt)
	// The partial unique index on (actor_id) WHERE status = 'active'
	// catches concurrent starts that both passed the service check.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflict("an active assisted session already exists for this actor")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM assisted_sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ActiveByActor(ctx context.Context, actorID string) (*Session, error) {
	s, err := scanSession(r.conn(ctx).QueryRow(ctx, `
		SELECT `+sessionCols+` FROM assisted_sessions
		WHERE actor_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, actorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) Update(ctx context.Context, s *Session) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE assisted_sessions SET status=$2,
			can_record_vitals=$3, can_record_symptoms=$4, can_upload_reports=$5, can_capture_consent=$6,
			last_activity_at=$7, expires_at=$8, ended_at=$9
		WHERE id = $1`,
		s.ID, s.Status,
		s.Permissions.CanRecordVitals, s.Permissions.CanRecordSymptoms,
		s.Permissions.CanUploadReports, s.Permissions.CanCaptureConsent,
		s.LastActivityAt, s.ExpiresAt, s.EndedAt)
	return err
}

package intake

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevista/carevista/internal/platform/db"
	"github.com/carevista/carevista/internal/platform/providers"
)

type vitalsPG struct{ pool *pgxpool.Pool }

func NewVitalsRepoPG(pool *pgxpool.Pool) VitalsRepository { return &vitalsPG{pool: pool} }

func (r *vitalsPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *vitalsPG) Create(ctx context.Context, v *Vital) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vitals (id, patient_id, recorded_by, kind, value, unit, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.PatientID, v.RecordedBy, v.Kind, v.Value, v.Unit, v.RecordedAt)
	return err
}

func (r *vitalsPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Vital, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, recorded_by, kind, value, unit, recorded_at FROM vitals
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Vital
	for rows.Next() {
		var v Vital
		if err := rows.Scan(&v.ID, &v.PatientID, &v.RecordedBy, &v.Kind, &v.Value, &v.Unit, &v.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (r *vitalsPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE vitals SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

type symptomsPG struct{ pool *pgxpool.Pool }

func NewSymptomRepoPG(pool *pgxpool.Pool) SymptomRepository { return &symptomsPG{pool: pool} }

func (r *symptomsPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const symptomCols = `id, patient_id, reported_by, text, severity, duration_days,
	language, source, transcript, detected_language, created_at`

func scanSymptom(row pgx.Row) (*SymptomCase, error) {
	var s SymptomCase
	err := row.Scan(&s.ID, &s.PatientID, &s.ReportedBy, &s.Text, &s.Severity, &s.DurationDays,
		&s.Language, &s.Source, &s.Transcript, &s.DetectedLanguage, &s.CreatedAt)
	return &s, err
}

func (r *symptomsPG) Create(ctx context.Context, s *SymptomCase) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO symptom_cases (id, patient_id, reported_by, text, severity, duration_days,
			language, source, transcript, detected_language, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.PatientID, s.ReportedBy, s.Text, s.Severity, s.DurationDays,
		s.Language, s.Source, s.Transcript, s.DetectedLanguage, s.CreatedAt)
	return err
}

func (r *symptomsPG) GetByID(ctx context.Context, id uuid.UUID) (*SymptomCase, error) {
	s, err := scanSymptom(r.conn(ctx).QueryRow(ctx, `
		SELECT `+symptomCols+` FROM symptom_cases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *symptomsPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*SymptomCase, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+symptomCols+` FROM symptom_cases
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SymptomCase
	for rows.Next() {
		s, err := scanSymptom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *symptomsPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE symptom_cases SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

type summariesPG struct{ pool *pgxpool.Pool }

func NewSummaryRepoPG(pool *pgxpool.Pool) SummaryRepository { return &summariesPG{pool: pool} }

func (r *summariesPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const summaryCols = `id, case_id, patient_id, content, edited_content, ai_provider,
	ai_failed, raw_transcript, status, doctor_notes, noted_by, created_at, approved_at`

// Summary content lives in JSONB columns; marshalling stays in this file so
// the model carries plain structs.
func marshalContent(s *providers.Summary) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func scanSummary(row pgx.Row) (*CaseSummary, error) {
	var (
		s             CaseSummary
		content       []byte
		editedContent []byte
	)
	err := row.Scan(&s.ID, &s.CaseID, &s.PatientID, &content, &editedContent, &s.Provider,
		&s.AIFailed, &s.RawTranscript, &s.Status, &s.DoctorNotes, &s.NotedBy, &s.CreatedAt, &s.ApprovedAt)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &s.Content); err != nil {
			return nil, err
		}
	}
	if len(editedContent) > 0 {
		if err := json.Unmarshal(editedContent, &s.EditedContent); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (r *summariesPG) Create(ctx context.Context, s *CaseSummary) error {
	content, err := marshalContent(s.Content)
	if err != nil {
		return err
	}
	edited, err := marshalContent(s.EditedContent)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO case_summaries (id, case_id, patient_id, content, edited_content, ai_provider,
			ai_failed, raw_transcript, status, doctor_notes, noted_by, created_at, approved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		s.ID, s.CaseID, s.PatientID, content, edited, s.Provider,
		s.AIFailed, s.RawTranscript, s.Status, s.DoctorNotes, s.NotedBy, s.CreatedAt, s.ApprovedAt)
	return err
}

func (r *summariesPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseSummary, error) {
	s, err := scanSummary(r.conn(ctx).QueryRow(ctx, `
		SELECT `+summaryCols+` FROM case_summaries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *summariesPG) GetByCase(ctx context.Context, caseID uuid.UUID) (*CaseSummary, error) {
	s, err := scanSummary(r.conn(ctx).QueryRow(ctx, `
		SELECT `+summaryCols+` FROM case_summaries WHERE case_id = $1`, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *summariesPG) Update(ctx context.Context, s *CaseSummary) error {
	edited, err := marshalContent(s.EditedContent)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE case_summaries
		SET edited_content = $2, status = $3, doctor_notes = $4, noted_by = $5, approved_at = $6
		WHERE id = $1`,
		s.ID, edited, s.Status, s.DoctorNotes, s.NotedBy, s.ApprovedAt)
	return err
}

func (r *summariesPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE case_summaries SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

type reportsPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository { return &reportsPG{pool: pool} }

func (r *reportsPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reportCols = `id, patient_id, uploaded_by, title, kind, storage_key, content_type,
	approved, uploaded_at, approved_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.PatientID, &rep.UploadedBy, &rep.Title, &rep.Kind,
		&rep.StorageKey, &rep.ContentType, &rep.Approved, &rep.UploadedAt, &rep.ApprovedAt)
	return &rep, err
}

func (r *reportsPG) Create(ctx context.Context, rep *Report) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO reports (id, patient_id, uploaded_by, title, kind, storage_key, content_type,
			approved, uploaded_at, approved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rep.ID, rep.PatientID, rep.UploadedBy, rep.Title, rep.Kind, rep.StorageKey,
		rep.ContentType, rep.Approved, rep.UploadedAt, rep.ApprovedAt)
	return err
}

func (r *reportsPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := scanReport(r.conn(ctx).QueryRow(ctx, `
		SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *reportsPG) Update(ctx context.Context, rep *Report) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE reports SET approved = $2, approved_at = $3 WHERE id = $1`,
		rep.ID, rep.Approved, rep.ApprovedAt)
	return err
}

func (r *reportsPG) ListByPatient(ctx context.Context, patientID string, approvedOnly bool) ([]*Report, error) {
	query := `SELECT ` + reportCols + ` FROM reports WHERE patient_id = $1`
	if approvedOnly {
		query += ` AND approved`
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *reportsPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE reports SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

type labReportsPG struct{ pool *pgxpool.Pool }

func NewLabReportRepoPG(pool *pgxpool.Pool) LabReportRepository { return &labReportsPG{pool: pool} }

func (r *labReportsPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *labReportsPG) Create(ctx context.Context, rep *LabReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reports (id, patient_id, uploaded_by, test_name, result_summary,
			storage_key, ai_bypassed, uploaded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rep.ID, rep.PatientID, rep.UploadedBy, rep.TestName, rep.ResultSummary,
		rep.StorageKey, rep.AIBypassed, rep.UploadedAt)
	return err
}

func (r *labReportsPG) ListByPatient(ctx context.Context, patientID string) ([]*LabReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, uploaded_by, test_name, result_summary, storage_key, ai_bypassed, uploaded_at
		FROM lab_reports
		WHERE patient_id = $1
		ORDER BY uploaded_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LabReport
	for rows.Next() {
		var rep LabReport
		if err := rows.Scan(&rep.ID, &rep.PatientID, &rep.UploadedBy, &rep.TestName,
			&rep.ResultSummary, &rep.StorageKey, &rep.AIBypassed, &rep.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}

func (r *labReportsPG) ReassignPatient(ctx context.Context, fromPatientID, toPatientID string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE lab_reports SET patient_id = $2 WHERE patient_id = $1`, fromPatientID, toPatientID)
	return err
}

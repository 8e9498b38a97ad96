package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/licitai/internal/domain/reports"
)

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save insert/update analysis report
func (r *ReportRepository) Save(ctx context.Context, rep *domain.BatchReport) error {
	const q = `
INSERT INTO analysis_reports
(id, tender_id, objeto, rojas, amarillas, payload, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 rojas = EXCLUDED.rojas,
 amarillas = EXCLUDED.amarillas,
 payload = EXCLUDED.payload,
 artifact_url = EXCLUDED.artifact_url;`

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		rep.ID, stringOrDash(rep.TenderID), rep.Objeto,
		rep.Summary.Rojas, rep.Summary.Amarillas,
		payload, rep.ArtifactURL, created,
	)
	return err
}

// LatestByTender returns the most recent report for a tender.
func (r *ReportRepository) LatestByTender(ctx context.Context, tenderID string) (*domain.BatchReport, error) {
	const q = `
SELECT payload FROM analysis_reports
WHERE tender_id=$1 ORDER BY created_at DESC
LIMIT 1;`
	var payload []byte
	if err := r.db.QueryRowContext(ctx, q, tenderID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return unmarshalReport(payload)
}

// Paginate with offset + limit (classic pagination)
func (r *ReportRepository) Paginate(ctx context.Context, tenderID string, page, pageSize int) ([]*domain.BatchReport, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT payload FROM analysis_reports
WHERE tender_id=$1 ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, tenderID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.BatchReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rep, err := unmarshalReport(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func unmarshalReport(payload []byte) (*domain.BatchReport, error) {
	var rep domain.BatchReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rep, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/licitai/internal/domain/tenders"
)

type TenderRepository struct{ db *sql.DB }

func NewTenderRepository(db *sql.DB) *TenderRepository { return &TenderRepository{db: db} }

// Save insert/update tender record
func (r *TenderRepository) Save(ctx context.Context, t *domain.Tender) error {
	const q = `
INSERT INTO licitaciones
(id, nombre, objeto, presupuesto, pesos, normativa, deadline,
 etapa, progreso, docs, created_at, last_analysis_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 nombre = EXCLUDED.nombre,
 objeto = EXCLUDED.objeto,
 presupuesto = EXCLUDED.presupuesto,
 pesos = EXCLUDED.pesos,
 normativa = EXCLUDED.normativa,
 deadline = EXCLUDED.deadline,
 etapa = EXCLUDED.etapa,
 progreso = EXCLUDED.progreso,
 docs = EXCLUDED.docs,
 last_analysis_at = EXCLUDED.last_analysis_at;`

	pesos, err := json.Marshal(t.Pesos)
	if err != nil {
		return fmt.Errorf("marshal pesos: %w", err)
	}
	normativa, err := json.Marshal(t.Normativa)
	if err != nil {
		return fmt.Errorf("marshal normativa: %w", err)
	}
	docs, err := json.Marshal(t.Docs)
	if err != nil {
		return fmt.Errorf("marshal docs: %w", err)
	}

	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = r.db.ExecContext(ctx, q,
		t.ID, stringOrDash(t.Nombre), t.Objeto, t.Presupuesto, pesos, normativa, t.Deadline,
		stringOrDash(string(t.Etapa)), t.Progreso, docs, created, t.LastAnalysisAt,
	)
	return err
}

// Get by ID
func (r *TenderRepository) Get(ctx context.Context, id domain.TenderID) (*domain.Tender, error) {
	const q = `
SELECT id, nombre, objeto, presupuesto, pesos, normativa, deadline,
       etapa, progreso, docs, created_at, last_analysis_at
FROM licitaciones
WHERE id=$1
LIMIT 1;`
	t, err := scanTender(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// List latest tenders
func (r *TenderRepository) List(ctx context.Context, limit int) ([]*domain.Tender, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, nombre, objeto, presupuesto, pesos, normativa, deadline,
       etapa, progreso, docs, created_at, last_analysis_at
FROM licitaciones
ORDER BY created_at DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTender(row rowScanner) (*domain.Tender, error) {
	var t domain.Tender
	var pesos, normativa, docs []byte
	var last sql.NullTime
	if err := row.Scan(
		&t.ID, &t.Nombre, &t.Objeto, &t.Presupuesto, &pesos, &normativa, &t.Deadline,
		&t.Etapa, &t.Progreso, &docs, &t.CreatedAt, &last,
	); err != nil {
		return nil, err
	}
	if len(pesos) > 0 {
		if err := json.Unmarshal(pesos, &t.Pesos); err != nil {
			return nil, fmt.Errorf("unmarshal pesos: %w", err)
		}
	}
	if len(normativa) > 0 {
		if err := json.Unmarshal(normativa, &t.Normativa); err != nil {
			return nil, fmt.Errorf("unmarshal normativa: %w", err)
		}
	}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &t.Docs); err != nil {
			return nil, fmt.Errorf("unmarshal docs: %w", err)
		}
	}
	if last.Valid {
		t.LastAnalysisAt = &last.Time
	}
	return &t, nil
}

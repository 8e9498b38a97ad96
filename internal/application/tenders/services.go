package tenders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/licitai/internal/application"
	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
	domain "github.com/bryanwahyu/licitai/internal/domain/tenders"
)

// ErrNotFound is surfaced when the tender id does not exist.
var ErrNotFound = errors.New("licitación no encontrada")

// ErrUnsupportedFile rejects anything that is not a PDF upload.
var ErrUnsupportedFile = errors.New("solo se aceptan documentos PDF")

// Service implements the tender lifecycle use-cases: creation, document
// upload into object storage, and corpus indexing.
type Service struct {
	Repo      domain.Repository
	Store     domain.DocumentStore
	Indexer   evaluation.CorpusIndexer
	Extractor evaluation.TextExtractor
	Clock     application.Clock
	Logger    *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// CreateTenderCommand carries the fields of a new tender.
type CreateTenderCommand struct {
	Nombre      string
	Objeto      string
	Presupuesto float64
	Pesos       evaluation.Weights
	Normativa   []string
	Deadline    string
}

// Create registers a new tender in the Ingesta stage. Zero weights fall back
// to the default 35/40/25 split.
func (s *Service) Create(ctx context.Context, cmd CreateTenderCommand) (*domain.Tender, error) {
	pesos := cmd.Pesos
	if pesos == (evaluation.Weights{}) {
		pesos = evaluation.DefaultWeights
	}
	t := &domain.Tender{
		ID:          domain.TenderID(uuid.New().String()),
		Nombre:      cmd.Nombre,
		Objeto:      cmd.Objeto,
		Presupuesto: cmd.Presupuesto,
		Pesos:       pesos,
		Normativa:   cmd.Normativa,
		Deadline:    cmd.Deadline,
		Etapa:       domain.EtapaIngesta,
		Progreso:    0,
		CreatedAt:   s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns one tender.
func (s *Service) Get(ctx context.Context, id domain.TenderID) (*domain.Tender, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns the most recent tenders.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Tender, error) {
	return s.Repo.List(ctx, limit)
}

// AddDocument stores one uploaded PDF, registers it under the tender, and
// (optionally) indexes its text into the retrieval corpus. Files without
// an explicit type whose name starts with "pliego" are treated as the
// governing document.
func (s *Service) AddDocument(ctx context.Context, id domain.TenderID, filename string, docType string, data []byte, autoIndex bool) (*domain.Document, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(path.Ext(filename), ".pdf") {
		return nil, ErrUnsupportedFile
	}

	dt := domain.DocType(strings.ToLower(docType))
	if dt != domain.DocPliego && dt != domain.DocPropuesta {
		dt = domain.DocPropuesta
		if strings.HasPrefix(strings.ToLower(filename), "pliego") {
			dt = domain.DocPliego
		}
	}

	key := fmt.Sprintf("%s/docs/%s", t.ID, path.Base(filename))
	if _, err := s.Store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		return nil, err
	}

	doc := domain.Document{File: path.Base(filename), ObjectKey: key, Type: dt, Size: int64(len(data))}
	t.Docs = append(t.Docs, doc)
	if err := s.Repo.Save(ctx, t); err != nil {
		return nil, err
	}

	if autoIndex {
		if err := s.indexDocument(ctx, t, doc, data); err != nil {
			s.logger().Warn("document indexing failed", "tender", t.ID, "file", doc.File, "error", err)
		}
	}
	return &doc, nil
}

// Reindex pushes every stored document of the tender into the retrieval
// corpus again.
func (s *Service) Reindex(ctx context.Context, id domain.TenderID) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, doc := range t.Docs {
		data, ferr := s.Store.Fetch(ctx, doc.ObjectKey)
		if ferr != nil {
			s.logger().Warn("document fetch failed during reindex", "tender", t.ID, "file", doc.File, "error", ferr)
			continue
		}
		if ierr := s.indexDocument(ctx, t, doc, data); ierr != nil {
			s.logger().Warn("document indexing failed during reindex", "tender", t.ID, "file", doc.File, "error", ierr)
		}
	}
	return nil
}

// AddLegalDocument ingests one reference document into the legal corpus the
// assessors retrieve from.
func (s *Service) AddLegalDocument(ctx context.Context, filename string, data []byte) error {
	if !strings.EqualFold(path.Ext(filename), ".pdf") {
		return ErrUnsupportedFile
	}
	text, err := s.Extractor.ExtractText(ctx, data)
	if err != nil {
		return fmt.Errorf("extract %s: %w", filename, err)
	}
	return s.Indexer.Index(ctx, []evaluation.CorpusDoc{{
		ID:     uuid.New().String(),
		Text:   text,
		Source: path.Base(filename),
		Kind:   "legal",
	}})
}

func (s *Service) indexDocument(ctx context.Context, t *domain.Tender, doc domain.Document, data []byte) error {
	text, err := s.Extractor.ExtractText(ctx, data)
	if err != nil {
		return err
	}
	return s.Indexer.Index(ctx, []evaluation.CorpusDoc{{
		ID:       uuid.New().String(),
		Text:     text,
		Source:   doc.File,
		TenderID: string(t.ID),
		Kind:     "contrato",
	}})
}

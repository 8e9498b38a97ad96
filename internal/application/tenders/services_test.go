package tenders

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
	domain "github.com/bryanwahyu/licitai/internal/domain/tenders"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type memRepo struct {
	mu      sync.Mutex
	tenders map[domain.TenderID]*domain.Tender
}

func newMemRepo() *memRepo { return &memRepo{tenders: map[domain.TenderID]*domain.Tender{}} }

func (r *memRepo) Save(ctx context.Context, t *domain.Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tenders[t.ID] = &cp
	return nil
}

func (r *memRepo) Get(ctx context.Context, id domain.TenderID) (*domain.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenders[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, limit int) ([]*domain.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Tender
	for _, t := range r.tenders {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "http://store/" + key, nil
}

func (s *memStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

type memIndexer struct {
	mu   sync.Mutex
	docs []evaluation.CorpusDoc
}

func (m *memIndexer) Index(ctx context.Context, docs []evaluation.CorpusDoc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	return nil
}

type rawExtractor struct{}

func (rawExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	return string(data), nil
}

func newService() (*Service, *memRepo, *memStore, *memIndexer) {
	repo := newMemRepo()
	store := newMemStore()
	indexer := &memIndexer{}
	svc := &Service{
		Repo:      repo,
		Store:     store,
		Indexer:   indexer,
		Extractor: rawExtractor{},
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	return svc, repo, store, indexer
}

func TestCreateDefaultsWeights(t *testing.T) {
	svc, _, _, _ := newService()

	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra vial"})
	require.NoError(t, err)
	assert.NotEmpty(t, tender.ID)
	assert.Equal(t, evaluation.DefaultWeights, tender.Pesos)
	assert.Equal(t, domain.EtapaIngesta, tender.Etapa)
	assert.Equal(t, svc.Clock.Now(), tender.CreatedAt)
}

func TestCreateKeepsExplicitWeights(t *testing.T) {
	svc, _, _, _ := newService()
	w := evaluation.Weights{Legal: 50, Tecnico: 30, Economico: 20}

	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra", Pesos: w})
	require.NoError(t, err)
	assert.Equal(t, w, tender.Pesos)
}

func TestGetUnknown(t *testing.T) {
	svc, _, _, _ := newService()
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddDocument(t *testing.T) {
	svc, repo, store, indexer := newService()
	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra"})
	require.NoError(t, err)

	doc, err := svc.AddDocument(context.Background(), tender.ID, "oferta_norte.pdf", "", []byte("contenido"), true)
	require.NoError(t, err)
	assert.Equal(t, domain.DocPropuesta, doc.Type)
	assert.Equal(t, fmt.Sprintf("%s/docs/oferta_norte.pdf", tender.ID), doc.ObjectKey)

	stored, err := repo.Get(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Len(t, stored.Docs, 1)
	assert.Contains(t, store.objects, doc.ObjectKey)

	require.Len(t, indexer.docs, 1)
	assert.Equal(t, "contrato", indexer.docs[0].Kind)
	assert.Equal(t, string(tender.ID), indexer.docs[0].TenderID)
}

func TestAddDocumentPliegoByName(t *testing.T) {
	svc, _, _, _ := newService()
	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra"})
	require.NoError(t, err)

	doc, err := svc.AddDocument(context.Background(), tender.ID, "PLIEGO_obra.PDF", "", []byte("x"), false)
	require.NoError(t, err)
	assert.Equal(t, domain.DocPliego, doc.Type)
}

func TestAddDocumentExplicitTypeWins(t *testing.T) {
	svc, _, _, _ := newService()
	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra"})
	require.NoError(t, err)

	doc, err := svc.AddDocument(context.Background(), tender.ID, "pliego_taller.pdf", "propuesta", []byte("x"), false)
	require.NoError(t, err)
	assert.Equal(t, domain.DocPropuesta, doc.Type)
}

func TestAddDocumentRejectsNonPDF(t *testing.T) {
	svc, _, _, _ := newService()
	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra"})
	require.NoError(t, err)

	_, err = svc.AddDocument(context.Background(), tender.ID, "oferta.docx", "", []byte("x"), false)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestAddLegalDocument(t *testing.T) {
	svc, _, _, indexer := newService()

	err := svc.AddLegalDocument(context.Background(), "losncp.pdf", []byte("texto de la ley"))
	require.NoError(t, err)
	require.Len(t, indexer.docs, 1)
	assert.Equal(t, "legal", indexer.docs[0].Kind)
	assert.Equal(t, "losncp.pdf", indexer.docs[0].Source)
}

func TestReindex(t *testing.T) {
	svc, _, _, indexer := newService()
	tender, err := svc.Create(context.Background(), CreateTenderCommand{Nombre: "Obra"})
	require.NoError(t, err)

	_, err = svc.AddDocument(context.Background(), tender.ID, "oferta_a.pdf", "", []byte("a"), false)
	require.NoError(t, err)
	_, err = svc.AddDocument(context.Background(), tender.ID, "oferta_b.pdf", "", []byte("b"), false)
	require.NoError(t, err)
	require.Empty(t, indexer.docs)

	require.NoError(t, svc.Reindex(context.Background(), tender.ID))
	assert.Len(t, indexer.docs, 2)
}

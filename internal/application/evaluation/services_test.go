package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appregistry "github.com/bryanwahyu/licitai/internal/application/registry"
	"github.com/bryanwahyu/licitai/internal/domain/ai"
	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
	domregistry "github.com/bryanwahyu/licitai/internal/domain/registry"
	"github.com/bryanwahyu/licitai/internal/domain/reports"
	"github.com/bryanwahyu/licitai/internal/domain/tenders"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

type memTenderRepo struct {
	mu      sync.Mutex
	tenders map[tenders.TenderID]*tenders.Tender
}

func newMemTenderRepo() *memTenderRepo {
	return &memTenderRepo{tenders: map[tenders.TenderID]*tenders.Tender{}}
}

func (r *memTenderRepo) Save(ctx context.Context, t *tenders.Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tenders[t.ID] = &cp
	return nil
}

func (r *memTenderRepo) Get(ctx context.Context, id tenders.TenderID) (*tenders.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenders[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTenderRepo) List(ctx context.Context, limit int) ([]*tenders.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tenders.Tender
	for _, t := range r.tenders {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type memReportRepo struct {
	mu     sync.Mutex
	saved  []*reports.BatchReport
	failOn error
}

func (r *memReportRepo) Save(ctx context.Context, rep *reports.BatchReport) error {
	if r.failOn != nil {
		return r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, rep)
	return nil
}

func (r *memReportRepo) LatestByTender(ctx context.Context, tenderID string) (*reports.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].TenderID == tenderID {
			return r.saved[i], nil
		}
	}
	return nil, nil
}

func (r *memReportRepo) Paginate(ctx context.Context, tenderID string, page, pageSize int) ([]*reports.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var matched []*reports.BatchReport
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].TenderID == tenderID {
			matched = append(matched, r.saved[i])
		}
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
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

// rawExtractor treats stored bytes as plain text.
type rawExtractor struct{}

func (rawExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	return string(data), nil
}

type fixedRetriever struct{ snippets []domain.Snippet }

func (f fixedRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Snippet, error) {
	return f.snippets, nil
}

// scriptedJudge answers per-category assessments and canned narratives.
type scriptedJudge struct {
	scores      map[domain.Category]int
	justifyOut  string
	justifyErr  error
	chatOut     string
	chatErr     error
	lastChatCtx string
}

func (j *scriptedJudge) AssessCategory(ctx context.Context, category domain.Category, document string, snippets []domain.Snippet) (string, error) {
	score, ok := j.scores[category]
	if !ok {
		score = 75
	}
	return fmt.Sprintf(`{"issues": [], "score": %d}`, score), nil
}

func (j *scriptedJudge) JudgeRelatedness(ctx context.Context, actividad, razon, objeto string) (string, error) {
	return "", errors.New("not used")
}

func (j *scriptedJudge) Justify(ctx context.Context, in ai.JustifyInput) (string, error) {
	return j.justifyOut, j.justifyErr
}

func (j *scriptedJudge) Chat(ctx context.Context, question, contextText string) (string, error) {
	j.lastChatCtx = contextText
	return j.chatOut, j.chatErr
}

type stubRegistry struct{ tp *domregistry.Taxpayer }

func (s stubRegistry) Lookup(ctx context.Context, ruc string) (*domregistry.Taxpayer, error) {
	if s.tp == nil {
		return nil, domregistry.ErrNotFound
	}
	cp := *s.tp
	cp.RUC = ruc
	return &cp, nil
}

func newAnalysisFixture(t *testing.T, judge ai.Judge) (*Service, *memTenderRepo, *memReportRepo, *memStore, *tenders.Tender) {
	t.Helper()

	tenderRepo := newMemTenderRepo()
	reportRepo := &memReportRepo{}
	store := newMemStore()

	tender := &tenders.Tender{
		ID:     "lic-001",
		Nombre: "Rehabilitación vial",
		Objeto: "Construcción y mantenimiento de infraestructura vial",
		Pesos:  domain.DefaultWeights,
		Etapa:  tenders.EtapaIngesta,
		Docs: []tenders.Document{
			{File: "pliego_obra.pdf", ObjectKey: "lic-001/docs/pliego_obra.pdf", Type: tenders.DocPliego},
			{File: "oferta_norte.pdf", ObjectKey: "lic-001/docs/oferta_norte.pdf", Type: tenders.DocPropuesta},
			{File: "oferta_sur.pdf", ObjectKey: "lic-001/docs/oferta_sur.pdf", Type: tenders.DocPropuesta},
		},
	}
	require.NoError(t, tenderRepo.Save(context.Background(), tender))

	store.objects["lic-001/docs/pliego_obra.pdf"] = []byte("pliego: garantías, multas y plazos de la obra")
	store.objects["lic-001/docs/oferta_norte.pdf"] = []byte("propuesta del oferente RUC 1790012345001 para la obra vial")
	store.objects["lic-001/docs/oferta_sur.pdf"] = []byte("propuesta sin identificador tributario")

	checker := appregistry.NewChecker(stubRegistry{tp: &domregistry.Taxpayer{
		RazonSocial: "Constructora ABC Construcción S.A.",
		Estado:      "ACTIVO",
		Actividad:   "Construcción de obras de ingeniería civil",
	}}, nil, nil, appregistry.Config{})

	svc := &Service{
		Tenders:   tenderRepo,
		Reports:   reportRepo,
		Store:     store,
		Extractor: rawExtractor{},
		Retriever: fixedRetriever{snippets: []domain.Snippet{{Text: "cláusula de garantía", Source: "ley.pdf"}}},
		Assessor:  NewAssessor(judge, nil),
		Checker:   checker,
		Judge:     judge,
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
	}
	return svc, tenderRepo, reportRepo, store, tender
}

func TestAnalyzeFullBatch(t *testing.T) {
	judge := &scriptedJudge{
		scores: map[domain.Category]int{
			domain.CategoryLegal:     80,
			domain.CategoryTecnico:   90,
			domain.CategoryEconomico: 70,
			domain.CategoryIncons:    85,
		},
		justifyOut: "Se recomienda la oferta norte por su solidez.",
	}
	svc, tenderRepo, reportRepo, store, tender := newAnalysisFixture(t, judge)

	batch, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)

	// only the two proposals compete
	require.Len(t, batch.Results, 2)
	require.Len(t, batch.Rows, 2)
	require.NotNil(t, batch.Winner)

	// default weights over 80/90/70 truncate to 81
	assert.Equal(t, 81, batch.Rows[0].Total)
	assert.Equal(t, "Se recomienda la oferta norte por su solidez.", batch.Justificacion)

	byFile := map[string]*domain.Report{}
	for _, r := range batch.Results {
		byFile[r.File] = r.Report
	}
	norte := byFile["oferta_norte.pdf"]
	require.NotNil(t, norte)
	require.Len(t, norte.RUCVerdicts, 1)
	assert.True(t, norte.RUCVerdicts[0].Related)
	assert.Equal(t, domain.SeverityBajo, norte.Risks.RUC)

	// no identifier means the counterpart is unverifiable
	sur := byFile["oferta_sur.pdf"]
	require.NotNil(t, sur)
	assert.Empty(t, sur.RUCVerdicts)
	assert.Equal(t, domain.SeverityAlto, sur.Risks.RUC)

	// persisted report and JSON artifact
	require.Len(t, reportRepo.saved, 1)
	assert.NotEmpty(t, batch.ArtifactURL)
	artifactKey := fmt.Sprintf("%s/reportes/reporte_%s.json", tender.ID, batch.ID)
	assert.Contains(t, store.objects, artifactKey)

	// tender moved to the analysis stage
	updated, err := tenderRepo.Get(context.Background(), tender.ID)
	require.NoError(t, err)
	assert.Equal(t, tenders.EtapaAnalisis, updated.Etapa)
	assert.Equal(t, 100, updated.Progreso)
	require.NotNil(t, updated.LastAnalysisAt)
	assert.Equal(t, svc.Clock.Now(), *updated.LastAnalysisAt)
}

func TestAnalyzeUnknownTender(t *testing.T) {
	svc, _, _, _, _ := newAnalysisFixture(t, &scriptedJudge{})
	_, err := svc.Analyze(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrTenderNotFound)
}

func TestAnalyzeNoProposals(t *testing.T) {
	svc, tenderRepo, _, _, _ := newAnalysisFixture(t, &scriptedJudge{})
	empty := &tenders.Tender{ID: "lic-002", Nombre: "vacía", Pesos: domain.DefaultWeights}
	require.NoError(t, tenderRepo.Save(context.Background(), empty))

	_, err := svc.Analyze(context.Background(), empty.ID)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestAnalyzeSkipsUnreadableDocument(t *testing.T) {
	judge := &scriptedJudge{justifyOut: "ok"}
	svc, _, _, store, tender := newAnalysisFixture(t, judge)
	delete(store.objects, "lic-001/docs/oferta_sur.pdf")

	batch, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "oferta_norte.pdf", batch.Results[0].File)
}

func TestAnalyzeJustifyFallback(t *testing.T) {
	judge := &scriptedJudge{justifyErr: errors.New("quota")}
	svc, _, _, _, tender := newAnalysisFixture(t, judge)

	batch, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)
	assert.Contains(t, batch.Justificacion, "Se recomienda el contrato")
}

func TestViewsOverStoredReport(t *testing.T) {
	judge := &scriptedJudge{justifyOut: "narrativa"}
	svc, _, _, _, tender := newAnalysisFixture(t, judge)

	t.Run("before first analysis", func(t *testing.T) {
		_, err := svc.Resumen(context.Background(), tender.ID)
		assert.ErrorIs(t, err, ErrNoReport)
	})

	_, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)

	t.Run("resumen", func(t *testing.T) {
		v, err := svc.Resumen(context.Background(), tender.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, v.Progreso)
		assert.Equal(t, "narrativa", v.Justificacion)
	})

	t.Run("validaciones ruc", func(t *testing.T) {
		v, err := svc.ValidacionesRUC(context.Background(), tender.ID)
		require.NoError(t, err)
		require.Len(t, v, 1)
		assert.Equal(t, "oferta_norte.pdf", v[0].Documento)
		assert.Equal(t, "1790012345001", v[0].RUC)
	})

	t.Run("comparativo", func(t *testing.T) {
		v, err := svc.Comparativo(context.Background(), tender.ID)
		require.NoError(t, err)
		require.Len(t, v.Items, 2)
		require.NotNil(t, v.Ganador)
		for _, row := range v.Items {
			assert.False(t, strings.HasPrefix(row.Oferente, "pliego"))
			assert.Nil(t, row.Issues)
		}
	})
}

func TestComparativoRecomputesWithCurrentWeights(t *testing.T) {
	judge := &scriptedJudge{
		scores: map[domain.Category]int{
			domain.CategoryLegal:     100,
			domain.CategoryTecnico:   0,
			domain.CategoryEconomico: 0,
			domain.CategoryIncons:    50,
		},
		justifyOut: "n",
	}
	svc, tenderRepo, _, _, tender := newAnalysisFixture(t, judge)

	_, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)

	// shift everything onto the legal dimension without re-running
	stored, err := tenderRepo.Get(context.Background(), tender.ID)
	require.NoError(t, err)
	stored.Pesos = domain.Weights{Legal: 100}
	require.NoError(t, tenderRepo.Save(context.Background(), stored))

	v, err := svc.Comparativo(context.Background(), tender.ID)
	require.NoError(t, err)
	require.NotEmpty(t, v.Items)
	assert.Equal(t, 100, v.Items[0].Total)
}

// fixedDocsRetriever answers every tender-scoped query with the same
// snippets and records the last query.
type fixedDocsRetriever struct {
	snippets  []domain.Snippet
	err       error
	lastQuery string
}

func (f *fixedDocsRetriever) RetrieveTenderDocs(ctx context.Context, tenderID, query string, k int) ([]domain.Snippet, error) {
	f.lastQuery = query
	return f.snippets, f.err
}

func TestChatGroundsJudgeOnUnifiedContext(t *testing.T) {
	judge := &scriptedJudge{
		scores: map[domain.Category]int{
			domain.CategoryLegal:     80,
			domain.CategoryTecnico:   90,
			domain.CategoryEconomico: 70,
			domain.CategoryIncons:    85,
		},
		justifyOut: "n",
		chatOut:    "La oferta norte lidera el comparativo.",
	}
	svc, _, _, _, tender := newAnalysisFixture(t, judge)
	docs := &fixedDocsRetriever{snippets: []domain.Snippet{{Text: "cláusula de anticipo del 30%", Source: "oferta_norte.pdf"}}}
	svc.DocsRetriever = docs

	_, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)

	answer, err := svc.Chat(context.Background(), tender.ID, "¿quién gana y por qué?")
	require.NoError(t, err)
	assert.Equal(t, "La oferta norte lidera el comparativo.", answer)
	assert.Equal(t, "¿quién gana y por qué?", docs.lastQuery)

	assert.Contains(t, judge.lastChatCtx, "ANÁLISIS COMPLETO:")
	assert.Contains(t, judge.lastChatCtx, "Ganador propuesto: oferta_norte.pdf")
	assert.Contains(t, judge.lastChatCtx, "VALIDACIÓN RUC:")
	assert.Contains(t, judge.lastChatCtx, "RUC 1790012345001")
	assert.Contains(t, judge.lastChatCtx, "CONTENIDO RELEVANTE DE DOCUMENTOS:")
	assert.Contains(t, judge.lastChatCtx, "cláusula de anticipo del 30%")
}

func TestChatFallsBackWhenJudgeFails(t *testing.T) {
	judge := &scriptedJudge{justifyOut: "n", chatErr: errors.New("quota")}
	svc, _, _, _, tender := newAnalysisFixture(t, judge)

	_, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)

	answer, err := svc.Chat(context.Background(), tender.ID, "resumen por favor")
	require.NoError(t, err)
	assert.Contains(t, answer, "No fue posible generar una respuesta completa ahora")
	assert.Contains(t, answer, "garantías, multas y plazos")
}

func TestChatRequiresStoredReport(t *testing.T) {
	svc, _, _, _, tender := newAnalysisFixture(t, &scriptedJudge{})

	_, err := svc.Chat(context.Background(), tender.ID, "hola")
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestHistorialListsRunsNewestFirst(t *testing.T) {
	judge := &scriptedJudge{justifyOut: "n"}
	svc, _, reportRepo, _, tender := newAnalysisFixture(t, judge)

	first, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Len(t, reportRepo.saved, 2)

	hist, err := svc.Historial(context.Background(), tender.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, second.ID, hist[0].ID)
	assert.Equal(t, first.ID, hist[1].ID)
	assert.Equal(t, 2, hist[0].NumDocs)

	page2, err := svc.Historial(context.Background(), tender.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, first.ID, page2[0].ID)
}

func TestHistorialUnknownTender(t *testing.T) {
	svc, _, _, _, _ := newAnalysisFixture(t, &scriptedJudge{})

	_, err := svc.Historial(context.Background(), "nope", 1, 20)
	assert.ErrorIs(t, err, ErrTenderNotFound)
}

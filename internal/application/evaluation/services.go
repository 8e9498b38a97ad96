package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/licitai/internal/application"
	appregistry "github.com/bryanwahyu/licitai/internal/application/registry"
	"github.com/bryanwahyu/licitai/internal/domain/ai"
	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
	"github.com/bryanwahyu/licitai/internal/domain/reports"
	"github.com/bryanwahyu/licitai/internal/domain/tenders"
)

var (
	// ErrTenderNotFound is surfaced when the tender id does not exist.
	ErrTenderNotFound = errors.New("licitación no encontrada")
	// ErrNoDocuments is surfaced when a tender has no proposals to analyze.
	ErrNoDocuments = errors.New("no hay documentos para esta licitación")
	// ErrNoReport is surfaced by the read views before the first analysis.
	ErrNoReport = errors.New("aún no hay reporte para esta licitación")
)

// Config tunes the analysis pipeline.
type Config struct {
	TopK       int // snippets per topic query
	Thresholds domain.RiskThresholds
	TopIssues  int // issues per bidder in the narrative payload
}

// Service implements the analysis use-cases for a tender: orchestrate
// retrieval, the four categorical assessments, the RUC cross-checks, the
// aggregation, the comparative ranking and the justification.
// Safe for concurrent use.
type Service struct {
	Tenders   tenders.Repository
	Reports   reports.Repository
	Store     tenders.DocumentStore
	Extractor domain.TextExtractor
	Retriever domain.ContextRetriever
	// DocsRetriever grounds the chat on the tender's own documents.
	// Optional; without it the chat context carries no document excerpts.
	DocsRetriever domain.TenderContextRetriever
	Assessor      *Assessor
	Checker       *appregistry.Checker
	Judge         ai.Judge
	Clock         application.Clock
	Logger        *slog.Logger
	Cfg           Config
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) topK() int {
	if s.Cfg.TopK > 0 {
		return s.Cfg.TopK
	}
	return 6
}

func (s *Service) thresholds() domain.RiskThresholds {
	if s.Cfg.Thresholds != (domain.RiskThresholds{}) {
		return s.Cfg.Thresholds
	}
	return domain.DefaultRiskThresholds
}

func (s *Service) topIssues() int {
	if s.Cfg.TopIssues > 0 {
		return s.Cfg.TopIssues
	}
	return 5
}

// AnalyzeUntilDone runs the analysis detached from the request context so a
// closed HTTP connection cannot cancel an in-flight batch.
func (s *Service) AnalyzeUntilDone(id tenders.TenderID) (*reports.BatchReport, error) {
	return s.Analyze(context.Background(), id)
}

// Analyze evaluates every proposal of the tender and persists one batch
// report. Individual documents and individual assessments degrade
// independently; only batch-level conditions (missing tender, no documents)
// are returned as errors.
func (s *Service) Analyze(ctx context.Context, id tenders.TenderID) (*reports.BatchReport, error) {
	tender, err := s.Tenders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, ErrTenderNotFound
	}
	propuestas := tender.Propuestas()
	if len(propuestas) == 0 {
		return nil, ErrNoDocuments
	}

	// Context from the governing documents is shared by every proposal.
	baseCtx := s.pliegoContext(ctx, tender)

	// Fan-out per proposal; each task owns its result slot, the group is
	// the join barrier. A failed document leaves a nil slot and the rest
	// proceed.
	slots := make([]*reports.DocumentResult, len(propuestas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, doc := range propuestas {
		i, doc := i, doc
		g.Go(func() error {
			res, derr := s.analyzeDocument(gctx, tender, doc, baseCtx)
			if derr != nil {
				s.logger().Error("document analysis skipped", "tender", tender.ID, "file", doc.File, "error", derr)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var results []reports.DocumentResult
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	if len(results) == 0 {
		return nil, ErrNoDocuments
	}

	summary := reports.Summary{}
	ranked := make([]domain.RankedReport, 0, len(results))
	for _, r := range results {
		summary.Rojas += r.Report.RedCount()
		summary.Amarillas += r.Report.YellowCount()
		ranked = append(ranked, domain.RankedReport{Oferente: r.File, Report: r.Report})
	}

	rows, winner := domain.Rank(ranked, tender.Pesos)
	just := s.justify(ctx, rows, winner, tender.Objeto, tender.Pesos, len(results))

	now := s.Clock.Now()
	batch := &reports.BatchReport{
		ID:            reports.ReportID(uuid.New().String()),
		TenderID:      string(tender.ID),
		Objeto:        tender.Objeto,
		Results:       results,
		Summary:       summary,
		Rows:          rows,
		Winner:        winner,
		Justificacion: just,
		CreatedAt:     now,
	}

	// Best effort: the JSON artifact mirrors the stored report.
	if s.Store != nil {
		if payload, merr := json.Marshal(batch); merr == nil {
			key := fmt.Sprintf("%s/reportes/reporte_%s.json", tender.ID, batch.ID)
			if url, uerr := s.Store.Upload(ctx, key, strings.NewReader(string(payload)), int64(len(payload)), "application/json"); uerr == nil {
				batch.ArtifactURL = url
			} else {
				s.logger().Warn("report artifact upload failed", "tender", tender.ID, "error", uerr)
			}
		}
	}

	if err := s.Reports.Save(ctx, batch); err != nil {
		return nil, err
	}

	tender.Etapa = tenders.EtapaAnalisis
	tender.Progreso = 100
	tender.LastAnalysisAt = &now
	if err := s.Tenders.Save(ctx, tender); err != nil {
		s.logger().Warn("tender stage update failed", "tender", tender.ID, "error", err)
	}
	return batch, nil
}

// pliegoContext retrieves per-topic reference context anchored on each
// governing document. Failures are logged and skipped; a tender without a
// readable pliego still gets corpus-only context downstream.
func (s *Service) pliegoContext(ctx context.Context, tender *tenders.Tender) map[Topic][]domain.Snippet {
	base := map[Topic][]domain.Snippet{}
	for _, doc := range tender.Pliegos() {
		text, err := s.documentText(ctx, doc)
		if err != nil {
			s.logger().Warn("pliego unreadable, skipping", "tender", tender.ID, "file", doc.File, "error", err)
			continue
		}
		for topic, snippets := range s.retrieveTopics(ctx, text) {
			base[topic] = append(base[topic], snippets...)
		}
	}
	return base
}

func (s *Service) documentText(ctx context.Context, doc tenders.Document) (string, error) {
	data, err := s.Store.Fetch(ctx, doc.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", doc.ObjectKey, err)
	}
	text, err := s.Extractor.ExtractText(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.File, err)
	}
	return text, nil
}

// retrieveTopics queries the corpus once per topic. A failed query yields an
// empty topic, not an aborted document.
func (s *Service) retrieveTopics(ctx context.Context, text string) map[Topic][]domain.Snippet {
	excerpt := truncate(text, maxRetrievalExcerptChars)
	out := map[Topic][]domain.Snippet{}
	for _, topic := range AllTopics {
		snippets, err := s.Retriever.Retrieve(ctx, topicQuery(topic, excerpt), s.topK())
		if err != nil {
			s.logger().Warn("context retrieval failed", "topic", topic, "error", err)
			continue
		}
		out[topic] = snippets
	}
	return out
}

// analyzeDocument runs the full per-document pass: retrieval, the four
// categorical assessments (concurrently, joined before aggregation), the
// RUC cross-checks, and the aggregation.
func (s *Service) analyzeDocument(ctx context.Context, tender *tenders.Tender, doc tenders.Document, baseCtx map[Topic][]domain.Snippet) (*reports.DocumentResult, error) {
	text, err := s.documentText(ctx, doc)
	if err != nil {
		return nil, err
	}

	topicCtx := s.retrieveTopics(ctx, text)
	// Pliego context first so the governing requirements lead the prompt.
	for _, topic := range AllTopics {
		topicCtx[topic] = append(append([]domain.Snippet{}, baseCtx[topic]...), topicCtx[topic]...)
	}

	legalCtx := append(append(append([]domain.Snippet{}, topicCtx[TopicGarantias]...), topicCtx[TopicMultas]...), topicCtx[TopicPlazos]...)

	var wg sync.WaitGroup
	var legal, tech, econ, incons domain.Judgment
	run := func(dst *domain.Judgment, category domain.Category, snippets []domain.Snippet) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = s.Assessor.Assess(ctx, category, text, snippets)
		}()
	}
	run(&legal, domain.CategoryLegal, legalCtx)
	run(&tech, domain.CategoryTecnico, topicCtx[TopicTecnicos])
	run(&econ, domain.CategoryEconomico, topicCtx[TopicEconomicos])
	run(&incons, domain.CategoryIncons, topicCtx[TopicCoherencia])
	wg.Wait()

	objeto := tender.Objeto
	if strings.TrimSpace(objeto) == "" {
		// fall back to a semantic excerpt of the document itself
		words := strings.Fields(text)
		if len(words) > 60 {
			words = words[:60]
		}
		objeto = strings.Join(words, " ")
	}

	var verdicts []domain.RUCVerdict
	for _, ruc := range ExtractRUCs(text) {
		verdicts = append(verdicts, s.Checker.Check(ctx, ruc, objeto))
	}

	report := domain.Aggregate(legal, tech, econ, incons, verdicts, s.thresholds())
	return &reports.DocumentResult{File: doc.File, ObjectKey: doc.ObjectKey, Report: report}, nil
}

// justify produces the narrative: the AI path with a bounded payload, the
// deterministic template whenever that path fails or returns nothing.
func (s *Service) justify(ctx context.Context, rows []domain.ComparativeRow, winner *domain.ComparativeRow, objeto string, pesos domain.Weights, numDocs int) string {
	if s.Judge == nil {
		return domain.FallbackJustification(winner)
	}
	in := ai.JustifyInput{
		Objeto:  objeto,
		Pesos:   pesos,
		NumDocs: numDocs,
		Rows:    make([]ai.JustifyRow, 0, len(rows)),
	}
	for i := range rows {
		jr := justifyRow(&rows[i], s.topIssues())
		in.Rows = append(in.Rows, jr)
		if winner != nil && rows[i].Oferente == winner.Oferente && in.Winner == nil {
			in.Winner = &jr
		}
	}
	text, err := s.Judge.Justify(ctx, in)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger().Warn("ai justification failed, using fallback", "error", err)
		}
		return domain.FallbackJustification(winner)
	}
	return strings.TrimSpace(text)
}

func justifyRow(row *domain.ComparativeRow, topIssues int) ai.JustifyRow {
	return ai.JustifyRow{
		Oferente:   row.Oferente,
		Legal:      row.Scores.Legal,
		Tecnico:    row.Scores.Tecnico,
		Economico:  row.Scores.Economico,
		Total:      row.Total,
		Rojas:      row.Rojas,
		Amarillas:  row.Amarillas,
		TopRiesgos: domain.SummarizeIssues(row.Issues, topIssues),
	}
}

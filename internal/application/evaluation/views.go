package evaluation

import (
	"context"
	"strings"
	"time"

	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
	"github.com/bryanwahyu/licitai/internal/domain/reports"
	"github.com/bryanwahyu/licitai/internal/domain/tenders"
)

// ResumenView is the dashboard summary of the latest analysis.
type ResumenView struct {
	Progreso      int    `json:"progreso"`
	Rojas         int    `json:"rojas"`
	Amarillas     int    `json:"amarillas"`
	Justificacion string `json:"justificacion_agente"`
}

// IssueView is one finding annotated with its source document.
type IssueView struct {
	domain.Issue
	Documento string `json:"documento"`
}

// RUCView is one registry verdict annotated with its source document.
type RUCView struct {
	domain.RUCVerdict
	Documento string `json:"documento"`
}

// ReporteMetaView is one past analysis run in the report history.
type ReporteMetaView struct {
	ID          reports.ReportID `json:"id"`
	Rojas       int              `json:"rojas"`
	Amarillas   int              `json:"amarillas"`
	NumDocs     int              `json:"num_docs"`
	ArtifactURL string           `json:"artifact_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ComparativoView is the comparison table plus the selected winner.
type ComparativoView struct {
	Items   []domain.ComparativeRow `json:"items"`
	Ganador *domain.ComparativeRow  `json:"ganador,omitempty"`
}

func (s *Service) latestReport(ctx context.Context, id tenders.TenderID) (*reports.BatchReport, error) {
	rep, err := s.Reports.LatestByTender(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrNoReport
	}
	return rep, nil
}

// Resumen returns the headline counts and justification of the latest run.
func (s *Service) Resumen(ctx context.Context, id tenders.TenderID) (*ResumenView, error) {
	rep, err := s.latestReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResumenView{
		Progreso:      100,
		Rojas:         rep.Summary.Rojas,
		Amarillas:     rep.Summary.Amarillas,
		Justificacion: rep.Justificacion,
	}, nil
}

// Hallazgos flattens every issue of the latest run with its document.
func (s *Service) Hallazgos(ctx context.Context, id tenders.TenderID) ([]IssueView, error) {
	rep, err := s.latestReport(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []IssueView
	for _, r := range rep.Results {
		for _, it := range r.Report.Issues {
			out = append(out, IssueView{Issue: it, Documento: r.File})
		}
	}
	return out, nil
}

// ValidacionesRUC lists every registry verdict of the latest run.
func (s *Service) ValidacionesRUC(ctx context.Context, id tenders.TenderID) ([]RUCView, error) {
	rep, err := s.latestReport(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []RUCView
	for _, r := range rep.Results {
		for _, v := range r.Report.RUCVerdicts {
			out = append(out, RUCView{RUCVerdict: v, Documento: r.File})
		}
	}
	return out, nil
}

// Historial lists past analysis runs of a tender, newest first. Only the
// run metadata comes back; the full report of a run lives in its artifact.
func (s *Service) Historial(ctx context.Context, id tenders.TenderID, page, pageSize int) ([]ReporteMetaView, error) {
	tender, err := s.Tenders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, ErrTenderNotFound
	}
	reps, err := s.Reports.Paginate(ctx, string(id), page, pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]ReporteMetaView, 0, len(reps))
	for _, rep := range reps {
		out = append(out, ReporteMetaView{
			ID:          rep.ID,
			Rojas:       rep.Summary.Rojas,
			Amarillas:   rep.Summary.Amarillas,
			NumDocs:     len(rep.Results),
			ArtifactURL: rep.ArtifactURL,
			CreatedAt:   rep.CreatedAt,
		})
	}
	return out, nil
}

// Comparativo recomputes the ranking from the stored per-document reports
// with the tender's current weights, so a weight change is reflected without
// re-running the analysis. Governing documents that slipped into the batch
// are excluded from the competition.
func (s *Service) Comparativo(ctx context.Context, id tenders.TenderID) (*ComparativoView, error) {
	tender, err := s.Tenders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, ErrTenderNotFound
	}
	rep, err := s.latestReport(ctx, id)
	if err != nil {
		return nil, err
	}

	var ranked []domain.RankedReport
	for _, r := range rep.Results {
		if strings.HasPrefix(strings.ToLower(r.File), "pliego") {
			continue
		}
		ranked = append(ranked, domain.RankedReport{Oferente: r.File, Report: r.Report})
	}
	rows, winner := domain.Rank(ranked, tender.Pesos)
	for i := range rows {
		rows[i].Issues = nil // keep the table payload small
	}
	if winner != nil {
		w := *winner
		w.Issues = nil
		winner = &w
	}
	return &ComparativoView{Items: rows, Ganador: winner}, nil
}

package evaluation

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
	"github.com/bryanwahyu/licitai/internal/domain/tenders"
)

// Caps on the unified context payload handed to the chat judge.
const (
	chatMaxRows   = 10
	chatMaxIssues = 30
	chatMaxRUCs   = 20
)

// chatFallbackAnswer is returned whenever the AI path fails; it points the
// user at the comparative table instead of leaving the question unanswered.
const chatFallbackAnswer = "No fue posible generar una respuesta completa ahora. " +
	"Sin embargo, de acuerdo con el comparativo, el ganador presenta mejor equilibrio de puntajes y menor número de riesgos críticos. " +
	"Revisa garantías, multas y plazos en lo legal; definición de materiales, procesos y tiempos en lo técnico; " +
	"y coherencia de precios y pagos en lo económico."

// Chat answers a free-form question about the latest analysis of a tender.
// The judge is grounded on a unified context: the comparative table under
// the tender's current weights, the flattened issues and RUC verdicts, and
// a semantic retrieval over the tender's own documents. Requires a stored
// report; everything else degrades.
func (s *Service) Chat(ctx context.Context, id tenders.TenderID, message string) (string, error) {
	rep, err := s.latestReport(ctx, id)
	if err != nil {
		return "", err
	}

	pesos := domain.DefaultWeights
	if tender, terr := s.Tenders.Get(ctx, id); terr == nil && tender != nil {
		pesos = tender.Pesos
	}

	var ranked []domain.RankedReport
	var issues []IssueView
	var rucs []RUCView
	for _, r := range rep.Results {
		if !strings.HasPrefix(strings.ToLower(r.File), "pliego") {
			ranked = append(ranked, domain.RankedReport{Oferente: r.File, Report: r.Report})
		}
		for _, it := range r.Report.Issues {
			issues = append(issues, IssueView{Issue: it, Documento: r.File})
		}
		for _, v := range r.Report.RUCVerdicts {
			rucs = append(rucs, RUCView{RUCVerdict: v, Documento: r.File})
		}
	}
	rows, winner := domain.Rank(ranked, pesos)

	var chunks []string
	if s.DocsRetriever != nil {
		snippets, rerr := s.DocsRetriever.RetrieveTenderDocs(ctx, string(id), message, s.topK())
		if rerr != nil {
			s.logger().Warn("chat retrieval failed", "tender", id, "error", rerr)
		}
		for _, sn := range snippets {
			chunks = append(chunks, sn.Text)
		}
	}

	contextText := "ANÁLISIS COMPLETO:\n" + formatChatRows(rows, winner) + "\n\n" +
		"ISSUES ENCONTRADOS:\n" + formatChatIssues(issues) + "\n\n" +
		"VALIDACIÓN RUC:\n" + formatChatRUCs(rucs) + "\n\n" +
		"CONTENIDO RELEVANTE DE DOCUMENTOS:\n" + strings.Join(chunks, "\n---\n")

	if s.Judge == nil {
		return chatFallbackAnswer, nil
	}
	answer, err := s.Judge.Chat(ctx, message, contextText)
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			s.logger().Warn("chat judgment failed, using fallback", "tender", id, "error", err)
		}
		return chatFallbackAnswer, nil
	}
	return strings.TrimSpace(answer), nil
}

func formatChatRows(rows []domain.ComparativeRow, winner *domain.ComparativeRow) string {
	if len(rows) == 0 {
		return "Sin filas comparativas."
	}
	if len(rows) > chatMaxRows {
		rows = rows[:chatMaxRows]
	}
	var lines []string
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("- %s: Legal=%d, Técnico=%d, Económico=%d, Total=%d (Rojas=%d, Amarillas=%d)",
			r.Oferente, r.Scores.Legal, r.Scores.Tecnico, r.Scores.Economico, r.Total, r.Rojas, r.Amarillas))
	}
	if winner != nil {
		lines = append(lines, fmt.Sprintf("Ganador propuesto: %s con Total=%d", winner.Oferente, winner.Total))
	}
	return strings.Join(lines, "\n")
}

func formatChatIssues(issues []IssueView) string {
	if len(issues) == 0 {
		return "Sin issues destacados."
	}
	if len(issues) > chatMaxIssues {
		issues = issues[:chatMaxIssues]
	}
	var lines []string
	for _, it := range issues {
		desc := it.Recommendation
		if desc == "" {
			desc = it.Evidence
		}
		if desc == "" {
			desc = it.Type
		}
		lines = append(lines, fmt.Sprintf("- [%s] (%s) %s. Doc: %s", it.Severity, it.Category, desc, it.Documento))
	}
	return strings.Join(lines, "\n")
}

func formatChatRUCs(rucs []RUCView) string {
	if len(rucs) == 0 {
		return "Sin validaciones RUC registradas."
	}
	if len(rucs) > chatMaxRUCs {
		rucs = rucs[:chatMaxRUCs]
	}
	var lines []string
	for _, r := range rucs {
		lines = append(lines, fmt.Sprintf("- RUC %s: exists=%t related=%t risk=%s doc=%s. Razonamiento: %s",
			r.RUC, r.Exists, r.Related, r.Risk, r.Documento, r.Rationale))
	}
	return strings.Join(lines, "\n")
}

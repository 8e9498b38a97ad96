package evaluation

import (
	"fmt"
	"sort"
)

// FallbackJustification is the deterministic narrative used whenever the
// AI-written justification is unavailable. It never fails and never returns
// an empty string: with no winner it states that no recommendation could be
// determined, otherwise it cites the winner's id, total and flag counts in
// fixed prose.
func FallbackJustification(winner *ComparativeRow) string {
	if winner == nil {
		return "No fue posible determinar un contrato ganador con la información disponible. " +
			"Revise la consistencia de los documentos y vuelva a ejecutar el análisis."
	}
	return fmt.Sprintf(
		"Se recomienda el contrato '%s' por presentar el mejor equilibrio entre cumplimiento legal, "+
			"solidez técnica y propuesta económica (puntaje total %d). "+
			"Frente a las alternativas, registra menos riesgos críticos (rojas: %d, amarillas: %d) y mejor coherencia con los pliegos.\n\n"+
			"En el aspecto legal, cubre garantías, multas y plazos con mayor claridad; en lo técnico, especifica materiales, "+
			"procesos y tiempos con suficiencia; y en lo económico, la estructura de costos y pagos es competitiva y viable.\n\n"+
			"Recomendaciones: precisar cláusulas susceptibles de ambigüedad, reforzar hitos de control y evidencias técnicas, "+
			"y asegurar que las formas de pago y cronogramas de avance queden explícitamente detallados.",
		winner.Oferente, winner.Total, winner.Rojas, winner.Amarillas,
	)
}

// IssueSummary is the reduced issue form fed to the narrative generator: one
// line per finding, bounded payload.
type IssueSummary struct {
	Categoria string `json:"categoria"`
	Severidad string `json:"severidad"`
	Desc      string `json:"desc"`
}

// SummarizeIssues reduces the first n issues of a row, in original order, to
// category/severity/short description. The description prefers the
// recommendation, then the evidence, then the type.
func SummarizeIssues(issues []Issue, n int) []IssueSummary {
	if len(issues) > n {
		issues = issues[:n]
	}
	out := make([]IssueSummary, 0, len(issues))
	for _, it := range issues {
		desc := it.Recommendation
		if desc == "" {
			desc = it.Evidence
		}
		if desc == "" {
			desc = it.Type
		}
		out = append(out, IssueSummary{
			Categoria: string(it.Category),
			Severidad: string(it.Severity),
			Desc:      desc,
		})
	}
	return out
}

// TopRisks picks the n most pressing issues across documents for the
// executive summary: red flags first, then yellow, then the rest, with
// category as the secondary key. The sort is stable so emission order breaks
// remaining ties deterministically.
func TopRisks(issues []Issue, n int) []Issue {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sevRank := func(s Severity) int {
		switch NormalizeSeverity(string(s)) {
		case SeverityAlto:
			return 0
		case SeverityMedio:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sevRank(sorted[i].Severity), sevRank(sorted[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Category < sorted[j].Category
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

package evaluation

// Aggregate merges the four categorical judgments and the RUC verdicts of a
// single document into one report.
//
// Issues are flattened category-major in the fixed Categories order, keeping
// each reviewer's emission order inside its category; downstream top-N
// reporting depends on this being deterministic. The RUC risk is the worst
// verdict seen; a document with no extracted identifiers is treated as ALTO
// because an unverifiable counterpart is a risk, not a pass.
func Aggregate(legal, tech, econ, incons Judgment, verdicts []RUCVerdict, thresholds RiskThresholds) *Report {
	scores := CategoryScores{
		Legal:     legal.Score,
		Tecnico:   tech.Score,
		Economico: econ.Score,
		Incons:    incons.Score,
	}

	rucRisk := SeverityAlto
	if len(verdicts) > 0 {
		rucRisk = verdicts[0].Risk
		for _, v := range verdicts[1:] {
			rucRisk = rucRisk.Worse(v.Risk)
		}
	}

	risks := CategoryRisks{
		Legal:     thresholds.Tier(scores.Legal),
		Tecnico:   thresholds.Tier(scores.Tecnico),
		Economico: thresholds.Tier(scores.Economico),
		Incons:    thresholds.Tier(scores.Incons),
		RUC:       rucRisk,
	}

	byCategory := map[Category]Judgment{
		CategoryLegal:     legal,
		CategoryTecnico:   tech,
		CategoryEconomico: econ,
		CategoryIncons:    incons,
	}

	var issues []Issue
	for _, cat := range Categories {
		for _, it := range byCategory[cat].Issues {
			it.Category = cat
			issues = append(issues, it)
		}
	}

	out := make([]RUCVerdict, len(verdicts))
	copy(out, verdicts)

	return &Report{
		Scores:      scores,
		Risks:       risks,
		Issues:      issues,
		RUCVerdicts: out,
	}
}

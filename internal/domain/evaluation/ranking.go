package evaluation

// Weights are the relative importance of the three scored dimensions in the
// comparative ranking. Values are nonnegative and need not sum to anything;
// Rank normalizes them.
type Weights struct {
	Legal     float64 `json:"legal"`
	Tecnico   float64 `json:"tecnico"`
	Economico float64 `json:"economico"`
}

// DefaultWeights is the 35/40/25 split used when a tender does not configure
// its own.
var DefaultWeights = Weights{Legal: 35, Tecnico: 40, Economico: 25}

// normalized divides each weight by the sum of all three. A zero or empty
// weight set keeps the denominator at 1 so every category is effectively
// zero-weighted instead of dividing by zero.
func (w Weights) normalized() Weights {
	denom := w.Legal + w.Tecnico + w.Economico
	if denom < 1 {
		denom = 1
	}
	return Weights{
		Legal:     w.Legal / denom,
		Tecnico:   w.Tecnico / denom,
		Economico: w.Economico / denom,
	}
}

// ComparativeRow is one bidder's line in the comparison table. Derived from
// the bidder's report plus the active weights; recomputed whenever either
// changes, never stored as its own source of truth.
type ComparativeRow struct {
	Oferente  string         `json:"oferente"`
	Scores    CategoryScores `json:"scores"`
	Total     int            `json:"total"`
	Rojas     int            `json:"rojas"`
	Amarillas int            `json:"amarillas"`
	Issues    []Issue        `json:"issues,omitempty"`
}

// RankedReport pairs a bidder id with its aggregated report for ranking.
type RankedReport struct {
	Oferente string
	Report   *Report
}

// Rank computes the weighted comparison table and selects the winner.
//
// The total is the floor of the weighted score sum (integer truncation, not
// rounding). The winner is the row with the maximum total; on equal totals
// the first-encountered row wins. That tie-break is a documented artifact of
// stable max-selection, kept as-is pending a product decision. An empty
// input yields an empty table and no winner.
func Rank(reports []RankedReport, weights Weights) ([]ComparativeRow, *ComparativeRow) {
	if len(reports) == 0 {
		return nil, nil
	}
	w := weights.normalized()

	rows := make([]ComparativeRow, 0, len(reports))
	for _, rr := range reports {
		rep := rr.Report
		total := int(w.Legal*float64(rep.Scores.Legal) +
			w.Tecnico*float64(rep.Scores.Tecnico) +
			w.Economico*float64(rep.Scores.Economico))
		rows = append(rows, ComparativeRow{
			Oferente:  rr.Oferente,
			Scores:    rep.Scores,
			Total:     total,
			Rojas:     rep.RedCount(),
			Amarillas: rep.YellowCount(),
			Issues:    rep.Issues,
		})
	}

	winner := &rows[0]
	for i := range rows[1:] {
		if rows[i+1].Total > winner.Total {
			winner = &rows[i+1]
		}
	}
	return rows, winner
}

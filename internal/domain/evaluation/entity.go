package evaluation

// Category identifies which reviewer produced an issue.
type Category string

const (
	CategoryLegal     Category = "legal"
	CategoryTecnico   Category = "tecnico"
	CategoryEconomico Category = "economico"
	CategoryIncons    Category = "inconsistencias"
)

// Categories is the fixed processing order for aggregation. Issue lists in
// the aggregated report are category-major in exactly this order.
var Categories = []Category{CategoryLegal, CategoryTecnico, CategoryEconomico, CategoryIncons}

// Issue is a single finding reported by a categorical reviewer. Category is
// stamped once by the aggregator; reviewers leave it empty.
type Issue struct {
	Type           string   `json:"type"`
	Where          string   `json:"where"`
	Evidence       string   `json:"evidence"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
	Category       Category `json:"category,omitempty"`
}

// Judgment is the normalized output of one categorical reviewer: a list of
// issues plus a 0-100 conformity score. A reviewer that fails to produce a
// parseable result still yields a Judgment (placeholder issue, score 50);
// hard failures never cross this boundary.
type Judgment struct {
	Issues []Issue `json:"issues"`
	Score  int     `json:"score"`
}

// NeutralScore is the low-confidence placeholder used when the judgment
// capability returns nothing usable.
const NeutralScore = 50

// RUCVerdict is the outcome of cross-checking one extracted taxpayer
// identifier against the registry. Created once per identifier, never merged
// across documents.
type RUCVerdict struct {
	RUC        string   `json:"ruc"`
	Exists     bool     `json:"exists"`
	Related    bool     `json:"related"`
	Risk       Severity `json:"risk"`
	Rationale  string   `json:"rationale"`
	Confidence int      `json:"confidence,omitempty"`
	AIDerived  bool     `json:"ai_derived,omitempty"`
}

// CategoryScores holds the per-category conformity scores of one document.
type CategoryScores struct {
	Legal     int `json:"legal"`
	Tecnico   int `json:"tecnico"`
	Economico int `json:"economico"`
	Incons    int `json:"inconsistencias"`
}

// CategoryRisks holds the derived risk tier per category plus the worst-case
// RUC risk for the document.
type CategoryRisks struct {
	Legal     Severity `json:"legal"`
	Tecnico   Severity `json:"tecnico"`
	Economico Severity `json:"economico"`
	Incons    Severity `json:"inconsistencias"`
	RUC       Severity `json:"ruc"`
}

// Report is the aggregated evaluation of one bid document. Built once,
// read-only afterward.
type Report struct {
	Scores      CategoryScores `json:"scores"`
	Risks       CategoryRisks  `json:"risks"`
	Issues      []Issue        `json:"issues"`
	RUCVerdicts []RUCVerdict   `json:"ruc_reports"`
}

// RedCount counts issues in the ALTO/ROJO family.
func (r *Report) RedCount() int {
	n := 0
	for _, it := range r.Issues {
		if it.Severity.IsRed() {
			n++
		}
	}
	return n
}

// YellowCount counts issues in the MEDIO/AMARILLO family.
func (r *Report) YellowCount() int {
	n := 0
	for _, it := range r.Issues {
		if it.Severity.IsYellow() {
			n++
		}
	}
	return n
}

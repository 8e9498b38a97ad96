package evaluation

import (
	"context"
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"github.com/bryanwahyu/licitai/internal/domain/ai"
	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// Fixed input budgets per assessment call. They bound cost and latency, not
// precision.
const (
	maxDocumentChars = 6000
	maxSnippetChars  = 1200
	maxEvidenceChars = 1000
)

// Assessor drives one categorical judgment call and normalizes whatever
// comes back. It never returns an error: a failed call or an unparsable
// payload degrades to a placeholder judgment with a neutral score, each
// tagged with its own issue type so the two failure modes stay
// distinguishable. One attempt per call, no retries.
type Assessor struct {
	judge  ai.Judge
	logger *slog.Logger
}

func NewAssessor(judge ai.Judge, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{judge: judge, logger: logger}
}

// Assess runs the judgment for one category over the document plus its
// retrieved context.
func (a *Assessor) Assess(ctx context.Context, category domain.Category, docText string, snippets []domain.Snippet) domain.Judgment {
	doc := truncate(docText, maxDocumentChars)
	bounded := make([]domain.Snippet, len(snippets))
	for i, sn := range snippets {
		sn.Text = truncate(sn.Text, maxSnippetChars)
		bounded[i] = sn
	}

	raw, err := a.judge.AssessCategory(ctx, category, doc, bounded)
	if err != nil {
		a.logger.Warn("categorical judgment call failed", "category", category, "error", err)
		return placeholderJudgment("judge_error", category, err.Error())
	}

	j, ok := parseJudgment(raw)
	if !ok {
		a.logger.Warn("categorical judgment returned unparsable payload", "category", category)
		return placeholderJudgment("parse_error", category, raw)
	}
	return j
}

type rawIssue struct {
	Type           string `json:"type"`
	Where          string `json:"where"`
	Evidence       string `json:"evidence"`
	Severity       string `json:"severity"`
	Recommendation string `json:"recommendation"`
}

type rawJudgment struct {
	Issues []rawIssue `json:"issues"`
	Score  *float64   `json:"score"`
}

// parseJudgment decodes the judge payload, attempting a repair pass before
// giving up on malformed JSON.
func parseJudgment(raw string) (domain.Judgment, bool) {
	var rj rawJudgment
	if err := json.Unmarshal([]byte(raw), &rj); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return domain.Judgment{}, false
		}
		if err := json.Unmarshal([]byte(repaired), &rj); err != nil {
			return domain.Judgment{}, false
		}
	}

	score := domain.NeutralScore
	if rj.Score != nil {
		score = clampScore(int(*rj.Score))
	}

	issues := make([]domain.Issue, 0, len(rj.Issues))
	for _, ri := range rj.Issues {
		issues = append(issues, domain.Issue{
			Type:           ri.Type,
			Where:          ri.Where,
			Evidence:       ri.Evidence,
			Severity:       domain.NormalizeSeverity(ri.Severity),
			Recommendation: ri.Recommendation,
		})
	}
	return domain.Judgment{Issues: issues, Score: score}, true
}

// placeholderJudgment is the degraded output for a failed assessment: one
// synthetic issue carrying the bounded raw payload as evidence, neutral
// score.
func placeholderJudgment(issueType string, category domain.Category, evidence string) domain.Judgment {
	return domain.Judgment{
		Issues: []domain.Issue{{
			Type:           issueType,
			Where:          "validator_" + string(category),
			Evidence:       truncate(evidence, maxEvidenceChars),
			Severity:       domain.SeverityMedio,
			Recommendation: "Revisar",
		}},
		Score: domain.NeutralScore,
	}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so a
// multibyte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

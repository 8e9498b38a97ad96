package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/licitai/internal/domain/ai"
	domain "github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// fakeJudge scripts Judge responses per call.
type fakeJudge struct {
	assessRaw  string
	assessErr  error
	relatedRaw string
	relatedErr error
	justifyOut string
	justifyErr error
	calls      int
}

func (f *fakeJudge) AssessCategory(ctx context.Context, category domain.Category, document string, snippets []domain.Snippet) (string, error) {
	f.calls++
	return f.assessRaw, f.assessErr
}

func (f *fakeJudge) JudgeRelatedness(ctx context.Context, actividad, razon, objeto string) (string, error) {
	return f.relatedRaw, f.relatedErr
}

func (f *fakeJudge) Justify(ctx context.Context, in ai.JustifyInput) (string, error) {
	return f.justifyOut, f.justifyErr
}

func (f *fakeJudge) Chat(ctx context.Context, question, contextText string) (string, error) {
	return "", errors.New("not used")
}

func TestAssessParsesWellFormedJudgment(t *testing.T) {
	judge := &fakeJudge{assessRaw: `{
		"issues": [
			{"type": "garantia_faltante", "where": "seccion 4", "evidence": "no consta garantía", "severity": "ROJO", "recommendation": "incluir garantía"}
		],
		"score": 72
	}`}
	a := NewAssessor(judge, nil)

	j := a.Assess(context.Background(), domain.CategoryLegal, "texto del documento", nil)

	require.Len(t, j.Issues, 1)
	assert.Equal(t, 72, j.Score)
	assert.Equal(t, domain.SeverityAlto, j.Issues[0].Severity)
	assert.Equal(t, "garantia_faltante", j.Issues[0].Type)
}

func TestAssessRepairsAlmostJSON(t *testing.T) {
	// trailing comma plus fenced block, typical LLM output
	judge := &fakeJudge{assessRaw: "```json\n{\"issues\": [], \"score\": 88,}\n```"}
	a := NewAssessor(judge, nil)

	j := a.Assess(context.Background(), domain.CategoryTecnico, "doc", nil)

	assert.Equal(t, 88, j.Score)
	assert.Empty(t, j.Issues)
}

func TestAssessMissingScoreDefaultsNeutral(t *testing.T) {
	judge := &fakeJudge{assessRaw: `{"issues": []}`}
	a := NewAssessor(judge, nil)

	j := a.Assess(context.Background(), domain.CategoryEconomico, "doc", nil)
	assert.Equal(t, domain.NeutralScore, j.Score)
}

func TestAssessClampsScore(t *testing.T) {
	judge := &fakeJudge{assessRaw: `{"issues": [], "score": 140}`}
	a := NewAssessor(judge, nil)
	assert.Equal(t, 100, a.Assess(context.Background(), domain.CategoryLegal, "doc", nil).Score)

	judge.assessRaw = `{"issues": [], "score": -3}`
	assert.Equal(t, 0, a.Assess(context.Background(), domain.CategoryLegal, "doc", nil).Score)
}

func TestAssessCallFailure(t *testing.T) {
	judge := &fakeJudge{assessErr: errors.New("openai: boom")}
	a := NewAssessor(judge, nil)

	j := a.Assess(context.Background(), domain.CategoryLegal, "doc", nil)

	require.Len(t, j.Issues, 1)
	assert.Equal(t, "judge_error", j.Issues[0].Type)
	assert.Equal(t, "validator_legal", j.Issues[0].Where)
	assert.Equal(t, domain.SeverityMedio, j.Issues[0].Severity)
	assert.Equal(t, domain.NeutralScore, j.Score)
}

func TestAssessUnparsablePayload(t *testing.T) {
	judge := &fakeJudge{assessRaw: "lo siento, no puedo evaluar este documento"}
	a := NewAssessor(judge, nil)

	j := a.Assess(context.Background(), domain.CategoryIncons, "doc", nil)

	require.Len(t, j.Issues, 1)
	assert.Equal(t, "parse_error", j.Issues[0].Type)
	assert.Equal(t, "validator_inconsistencias", j.Issues[0].Where)
	assert.Contains(t, j.Issues[0].Evidence, "no puedo evaluar")
	assert.Equal(t, domain.NeutralScore, j.Score)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	// "ñ" is two bytes; a byte cut at 2 would leave an invalid tail
	assert.Equal(t, "a", truncate("año", 2))
	assert.Equal(t, "añ", truncate("año", 3))

	s := strings.Repeat("garantía y cláusula ", 50)
	for _, n := range []int{maxEvidenceChars, maxSnippetChars - 1, 101} {
		got := truncate(s, n)
		assert.True(t, utf8.ValidString(got), "cut at %d produced invalid UTF-8", n)
		assert.LessOrEqual(t, len(got), n)
	}
}

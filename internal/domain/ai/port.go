package ai

import (
	"context"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// JustifyRow is one bidder's line in the bounded narrative payload: scores,
// flag counts and at most the top few issue summaries.
type JustifyRow struct {
	Oferente   string                    `json:"oferente"`
	Legal      int                       `json:"legal"`
	Tecnico    int                       `json:"tecnico"`
	Economico  int                       `json:"economico"`
	Total      int                       `json:"total"`
	Rojas      int                       `json:"rojas"`
	Amarillas  int                       `json:"amarillas"`
	TopRiesgos []evaluation.IssueSummary `json:"top_riesgos"`
}

// JustifyInput is the payload handed to the narrative generator.
type JustifyInput struct {
	Objeto  string
	Pesos   evaluation.Weights
	NumDocs int
	Rows    []JustifyRow
	Winner  *JustifyRow
}

// Judge is the generic judgment capability behind every assessment. Callers
// must treat every returned payload as untrusted text: parse it and degrade
// to their own defaults when it does not conform.
type Judge interface {
	// AssessCategory asks for a structured {issues, score} verdict for one
	// category. The adapter requests a JSON object from the provider but the
	// result is still raw text.
	AssessCategory(ctx context.Context, category evaluation.Category, document string, snippets []evaluation.Snippet) (string, error)

	// JudgeRelatedness asks whether a declared activity is coherent with a
	// registered name and a project object. Raw JSON text out.
	JudgeRelatedness(ctx context.Context, actividad, razon, objeto string) (string, error)

	// Justify asks for the comparative (or single-document) narrative.
	Justify(ctx context.Context, in JustifyInput) (string, error)

	// Chat answers a free-form question about an analyzed tender, grounded
	// on the unified context text the caller assembled.
	Chat(ctx context.Context, question, contextText string) (string, error)
}

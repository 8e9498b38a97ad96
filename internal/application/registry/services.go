package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/bryanwahyu/licitai/internal/domain/ai"
	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
	domain "github.com/bryanwahyu/licitai/internal/domain/registry"
)

// Config tunes the cross-check: retry ceiling and backoff for transient
// registry failures, relatedness thresholds, and whether the AI strategy is
// tried before the deterministic rule.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Thresholds   domain.RelatedThresholds
	UseAI        bool
}

// Checker cross-references one extracted RUC against the registry and judges
// whether the entity's declared activity is coherent with its own name and
// with the project object.
type Checker struct {
	registry domain.Client
	judge    ai.Judge
	logger   *slog.Logger
	cfg      Config

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewChecker wires a checker. judge may be nil, disabling the AI strategy.
func NewChecker(registry domain.Client, judge ai.Judge, logger *slog.Logger, cfg Config) *Checker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.Thresholds == (domain.RelatedThresholds{}) {
		cfg.Thresholds = domain.DefaultRelatedThresholds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{registry: registry, judge: judge, logger: logger, cfg: cfg, sleep: time.Sleep}
}

// Check resolves one RUC to a verdict. Every branch yields a verdict with a
// non-empty rationale; lookup failures become the conservative
// exists=false/ALTO default instead of an error.
func (c *Checker) Check(ctx context.Context, ruc, objeto string) evaluation.RUCVerdict {
	out := evaluation.RUCVerdict{RUC: ruc, Risk: evaluation.SeverityAlto}

	tp, err := c.lookup(ctx, ruc)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		out.Rationale = "RUC no existe o sin datos"
		return out
	case err != nil:
		out.Rationale = fmt.Sprintf("Error en validación de registro: %v", err)
		return out
	}

	out.Exists = true
	actividad := strings.TrimSpace(tp.Actividad)
	razon := strings.TrimSpace(tp.RazonSocial)

	related := c.assessRelated(ctx, actividad, razon, objeto)
	out.Related = related.Related
	out.Rationale = related.Why
	out.Confidence = related.Confidence
	out.AIDerived = related.AIDerived

	if !out.Related {
		out.Risk = evaluation.SeverityAlto
		return out
	}
	switch {
	case !tp.Activo():
		out.Risk = evaluation.SeverityMedio
		out.Rationale += fmt.Sprintf(" Estado del contribuyente: %s.", tp.Estado)
	case tp.Flagged():
		out.Risk = evaluation.SeverityAlto
		out.Rationale += " El registro reporta banderas de contribuyente fantasma o transacciones inexistentes."
	default:
		out.Risk = evaluation.SeverityBajo
	}
	return out
}

// lookup retries transient failures with exponential backoff; permanent
// failures (HTTP status, malformed payload) surface immediately.
func (c *Checker) lookup(ctx context.Context, ruc string) (*domain.Taxpayer, error) {
	delay := c.cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		tp, err := c.registry.Lookup(ctx, ruc)
		if err == nil {
			return tp, nil
		}
		lastErr = err
		if !domain.IsTransient(err) {
			return nil, err
		}
		if attempt < c.cfg.MaxAttempts {
			c.logger.Warn("registry lookup failed, retrying",
				"ruc", ruc, "attempt", attempt, "delay", delay, "error", err)
			c.sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("registry lookup exhausted after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

type relatedOutcome struct {
	Related    bool
	Why        string
	Confidence int
	AIDerived  bool
}

// assessRelated runs the AI strategy when enabled and falls back to the
// deterministic rule on any failure of that call, marking the result as
// non-AI-derived.
func (c *Checker) assessRelated(ctx context.Context, actividad, razon, objeto string) relatedOutcome {
	if c.cfg.UseAI && c.judge != nil {
		if v, err := c.aiRelated(ctx, actividad, razon, objeto); err == nil {
			return v
		} else {
			c.logger.Warn("ai relatedness failed, using deterministic rule", "error", err)
		}
	}
	v := c.cfg.Thresholds.AssessRelated(actividad, razon, objeto)
	return relatedOutcome{Related: v.Related, Why: v.Why}
}

func (c *Checker) aiRelated(ctx context.Context, actividad, razon, objeto string) (relatedOutcome, error) {
	raw, err := c.judge.JudgeRelatedness(ctx, actividad, razon, objeto)
	if err != nil {
		return relatedOutcome{}, err
	}
	var payload struct {
		Related    bool   `json:"related"`
		Confidence int    `json:"confidence"`
		Rationale  string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return relatedOutcome{}, fmt.Errorf("unparseable relatedness payload: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return relatedOutcome{}, fmt.Errorf("unparseable relatedness payload: %w", err)
		}
	}
	if strings.TrimSpace(payload.Rationale) == "" {
		return relatedOutcome{}, errors.New("relatedness payload missing rationale")
	}
	return relatedOutcome{
		Related:    payload.Related,
		Why:        payload.Rationale,
		Confidence: payload.Confidence,
		AIDerived:  true,
	}, nil
}

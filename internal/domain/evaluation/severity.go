package evaluation

import "strings"

// Severity is the three-tier scale used both for issue severity and for
// category/RUC risk. Ordered: BAJO < MEDIO < ALTO.
type Severity string

const (
	SeverityAlto  Severity = "ALTO"
	SeverityMedio Severity = "MEDIO"
	SeverityBajo  Severity = "BAJO"
)

// NormalizeSeverity maps free-form severity strings coming back from the
// judgment capability onto the canonical scale. ROJO and AMARILLO are UI
// aliases for ALTO and MEDIO. Unknown values collapse to MEDIO so a
// hallucinated label never silently drops an issue from the yellow count.
func NormalizeSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALTO", "ROJO":
		return SeverityAlto
	case "MEDIO", "AMARILLO":
		return SeverityMedio
	case "BAJO", "VERDE":
		return SeverityBajo
	default:
		return SeverityMedio
	}
}

// rank orders severities so the worst case can be selected numerically.
func (s Severity) rank() int {
	switch s {
	case SeverityAlto:
		return 2
	case SeverityMedio:
		return 1
	default:
		return 0
	}
}

// Worse returns the higher of the two severities.
func (s Severity) Worse(other Severity) Severity {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// IsRed reports whether the severity counts as a red flag (ALTO/ROJO family).
func (s Severity) IsRed() bool { return NormalizeSeverity(string(s)) == SeverityAlto }

// IsYellow reports whether the severity counts as a yellow flag (MEDIO/AMARILLO family).
func (s Severity) IsYellow() bool { return NormalizeSeverity(string(s)) == SeverityMedio }

// RiskThresholds holds the score cutoffs for risk tiers. The defaults come
// from the calibration of the current reviewers and are part of the
// behavioral contract; change them via config, not here.
type RiskThresholds struct {
	Bajo  int // score >= Bajo  -> BAJO
	Medio int // score >= Medio -> MEDIO, below -> ALTO
}

// DefaultRiskThresholds is the calibrated 85/60 mapping.
var DefaultRiskThresholds = RiskThresholds{Bajo: 85, Medio: 60}

// Tier maps a 0-100 conformity score onto a risk tier. Boundaries are
// inclusive of the better tier.
func (t RiskThresholds) Tier(score int) Severity {
	switch {
	case score >= t.Bajo:
		return SeverityBajo
	case score >= t.Medio:
		return SeverityMedio
	default:
		return SeverityAlto
	}
}

// RiskFromScore maps a score with the default thresholds.
func RiskFromScore(score int) Severity {
	return DefaultRiskThresholds.Tier(score)
}

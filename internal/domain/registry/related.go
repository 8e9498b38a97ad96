package registry

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RelatedThresholds are the acceptance cutoffs for the deterministic
// relatedness rule. Tuned empirically against asymmetric registry text; they
// are the behavioral contract, not derived values.
type RelatedThresholds struct {
	NameSet       int // actividad vs razón social: token-set ratio
	NamePartial   int // actividad vs razón social: partial ratio
	ObjectSet     int // actividad vs objeto: token-set ratio
	ObjectPartial int // actividad vs objeto: partial ratio
}

// DefaultRelatedThresholds is the calibrated 22/40/30/55 rule.
var DefaultRelatedThresholds = RelatedThresholds{
	NameSet:       22,
	NamePartial:   40,
	ObjectSet:     30,
	ObjectPartial: 55,
}

// RelatedVerdict is the outcome of the relatedness judgment between a
// taxpayer's declared activity, its registered name, and the project object.
type RelatedVerdict struct {
	Related bool
	Why     string
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
var spaces = regexp.MustCompile(`\s+`)

// Normalize case-folds, strips diacritics, drops non-alphanumerics and
// collapses whitespace so similarity scores are stable across accent and
// punctuation variants.
func Normalize(s string) string {
	t := strings.ToLower(s)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), t)
	if err == nil {
		t = stripped
	}
	t = nonAlnum.ReplaceAllString(t, " ")
	t = spaces.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// tokenOverlap reports whether any token of needles with length >= 4 appears
// verbatim among the haystack tokens. Short tokens are too noisy to count.
func tokenOverlap(haystack, needles string) bool {
	hs := map[string]bool{}
	for _, w := range strings.Fields(haystack) {
		hs[w] = true
	}
	for _, w := range strings.Fields(needles) {
		if len(w) >= 4 && hs[w] {
			return true
		}
	}
	return false
}

// AssessRelated applies the deterministic relatedness rule: the activity
// must be coherent with the registered name AND with the project object,
// each pair passing on token-set similarity, partial similarity or token
// overlap. The rationale records every measured value.
func (th RelatedThresholds) AssessRelated(actividad, razon, objeto string) RelatedVerdict {
	a := Normalize(actividad)
	rz := Normalize(razon)
	obj := Normalize(objeto)

	simARSet := fuzzy.TokenSetRatio(a, rz)
	simARPart := fuzzy.PartialRatio(a, rz)
	simAOSet := fuzzy.TokenSetRatio(a, obj)
	simAOPart := fuzzy.PartialRatio(a, obj)

	overlapAR := tokenOverlap(a, rz)
	overlapAO := tokenOverlap(a, obj)

	okAR := simARSet >= th.NameSet || simARPart >= th.NamePartial || overlapAR
	okAO := simAOSet >= th.ObjectSet || simAOPart >= th.ObjectPartial || overlapAO
	related := okAR && okAO

	verdictText := "Incoherencia con razón social y/o proyecto."
	if related {
		verdictText = "Coherente con razón social y proyecto."
	}
	why := fmt.Sprintf(
		"act-raz(set=%d, part=%d, overlap=%t); act-obj(set=%d, part=%d, overlap=%t). %s",
		simARSet, simARPart, overlapAR, simAOSet, simAOPart, overlapAO, verdictText,
	)
	return RelatedVerdict{Related: related, Why: why}
}

// AssessRelated applies the default thresholds.
func AssessRelated(actividad, razon, objeto string) RelatedVerdict {
	return DefaultRelatedThresholds.AssessRelated(actividad, razon, objeto)
}

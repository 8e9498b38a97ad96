package evaluation

import (
	"regexp"
	"sort"
)

// rucPattern matches the fixed-length 13-digit taxpayer identifier.
var rucPattern = regexp.MustCompile(`\b\d{13}\b`)

// ExtractRUCs returns the candidate identifiers found in the text, deduped
// and sorted. Ordering carries no meaning; sorting keeps runs deterministic.
func ExtractRUCs(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range rucPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

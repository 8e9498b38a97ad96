package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var rucFormat = regexp.MustCompile(`^\d{13}$`)

// ValidateRUC checks the 13-digit RUC format.
func ValidateRUC(ruc string) error {
	if ruc == "" {
		return fmt.Errorf("RUC cannot be empty")
	}
	if !rucFormat.MatchString(ruc) {
		return fmt.Errorf("invalid RUC format: must be exactly 13 digits")
	}
	return nil
}

// ValidateWeights rejects negative category weights. All-zero is allowed;
// the service substitutes the default split.
func ValidateWeights(legal, tecnico, economico float64) error {
	for name, w := range map[string]float64{
		"peso_legal":     legal,
		"peso_tecnico":   tecnico,
		"peso_economico": economico,
	} {
		if w < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	return nil
}

// SanitizeFilename strips directories, control characters and shell-unsafe
// punctuation from an uploaded file name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var result strings.Builder
	for _, r := range name {
		switch {
		case r < 32, r == 127:
		case strings.ContainsRune("`$&|;<>\"'", r):
		default:
			result.WriteRune(r)
		}
	}
	out := strings.TrimSpace(result.String())
	if out == "" || out == "." || out == ".." {
		return "documento.pdf"
	}
	return out
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

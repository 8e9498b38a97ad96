package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "diacritics stripped", input: "Construcción de Carreteras", want: "construccion de carreteras"},
		{name: "punctuation dropped", input: "CONSTRUCTORA A.B.C. S.A.", want: "constructora a b c s a"},
		{name: "whitespace collapsed", input: "  obras   civiles  ", want: "obras civiles"},
		{name: "enye", input: "señalización vial", want: "senalizacion vial"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestAssessRelatedCoherent(t *testing.T) {
	got := AssessRelated(
		"Construcción de obras de ingeniería civil",
		"Constructora ABC Construcción S.A.",
		"Construcción y mantenimiento de infraestructura vial",
	)
	assert.True(t, got.Related)
	assert.Contains(t, got.Why, "Coherente con razón social y proyecto.")
	assert.Contains(t, got.Why, "act-raz(")
	assert.Contains(t, got.Why, "act-obj(")
}

func TestAssessRelatedIncoherent(t *testing.T) {
	got := AssessRelated(
		"Venta al por menor de flores",
		"Floristería Pétalos XYZ",
		"Construcción de un puente vehicular",
	)
	assert.False(t, got.Related)
	assert.Contains(t, got.Why, "Incoherencia con razón social y/o proyecto.")
}

// A flower vendor against a road-works object still passes: shared function
// words push both pairs over their cutoffs. Pinned so the scoring stays
// stable.
func TestAssessRelatedFlowerVendorRoadWorks(t *testing.T) {
	got := AssessRelated(
		"venta de flores",
		"floristería XYZ",
		"construcción de infraestructura vial",
	)
	assert.True(t, got.Related)
	assert.Contains(t, got.Why, "act-raz(")
	assert.Contains(t, got.Why, "act-obj(")
}

func TestAssessRelatedNeedsBothPairs(t *testing.T) {
	// activity matches the name but has nothing to do with the object
	got := AssessRelated(
		"Venta al por menor de flores",
		"Venta de Flores del Valle",
		"Fiscalización de obras hidroeléctricas",
	)
	assert.False(t, got.Related)
}

func TestTokenOverlapIgnoresShortTokens(t *testing.T) {
	assert.False(t, tokenOverlap("de la en los", "de la en los"))
	assert.True(t, tokenOverlap("mantenimiento vial", "obras de mantenimiento"))
}

func TestTaxpayerActivo(t *testing.T) {
	assert.True(t, (&Taxpayer{Estado: "ACTIVO"}).Activo())
	assert.True(t, (&Taxpayer{}).Activo())
	assert.False(t, (&Taxpayer{Estado: "SUSPENDIDO"}).Activo())
}

func TestTaxpayerFlagged(t *testing.T) {
	assert.False(t, (&Taxpayer{}).Flagged())
	assert.True(t, (&Taxpayer{Fantasma: true}).Flagged())
	assert.True(t, (&Taxpayer{TransaccionesInex: true}).Flagged())
}

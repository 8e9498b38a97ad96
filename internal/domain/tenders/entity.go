package tenders

import (
	"time"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// TenderID tipo para Licitación
type TenderID string

// Etapa enum
type Etapa string

const (
	EtapaIngesta  Etapa = "Ingesta"
	EtapaAnalisis Etapa = "Análisis"
)

// DocType enum: el pliego rige el proceso, las propuestas compiten.
type DocType string

const (
	DocPliego    DocType = "pliego"
	DocPropuesta DocType = "propuesta"
)

// Document is one uploaded PDF registered under a tender.
type Document struct {
	File      string  `json:"file"`
	ObjectKey string  `json:"object_key,omitempty"`
	Type      DocType `json:"type"`
	Size      int64   `json:"size"`
}

// Aggregate root: Tender (licitación)
type Tender struct {
	ID             TenderID           `json:"id"`
	Nombre         string             `json:"nombre"`
	Objeto         string             `json:"objeto"`
	Presupuesto    float64            `json:"presupuesto,omitempty"`
	Pesos          evaluation.Weights `json:"pesos"`
	Normativa      []string           `json:"normativa,omitempty"`
	Deadline       string             `json:"deadline,omitempty"`
	Etapa          Etapa              `json:"etapa"`
	Progreso       int                `json:"progreso"`
	Docs           []Document         `json:"docs,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAnalysisAt *time.Time         `json:"last_analysis_at,omitempty"`
}

// Propuestas returns the competing documents; files explicitly marked pliego
// are excluded, and an unmarked file whose name starts with "pliego" is
// treated as the governing document (upload metadata wins over the name).
func (t *Tender) Propuestas() []Document {
	var out []Document
	for _, d := range t.Docs {
		if d.Type != DocPliego {
			out = append(out, d)
		}
	}
	return out
}

// Pliegos returns the governing documents of the tender.
func (t *Tender) Pliegos() []Document {
	var out []Document
	for _, d := range t.Docs {
		if d.Type == DocPliego {
			out = append(out, d)
		}
	}
	return out
}

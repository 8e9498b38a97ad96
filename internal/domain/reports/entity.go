package reports

import (
	"time"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// ReportID identifier type
type ReportID string

// DocumentResult is the evaluation of a single analyzed document.
type DocumentResult struct {
	File      string             `json:"file"`
	ObjectKey string             `json:"object_key,omitempty"`
	Report    *evaluation.Report `json:"report"`
}

// Summary holds the batch-level flag counts across all documents.
type Summary struct {
	Rojas     int `json:"rojas"`
	Amarillas int `json:"amarillas"`
}

// BatchReport is the persisted outcome of one analysis run over a tender:
// per-document reports plus the comparative table, the selected winner and
// the narrative justification.
type BatchReport struct {
	ID            ReportID                    `json:"id"`
	TenderID      string                      `json:"tender_id"`
	Objeto        string                      `json:"objeto,omitempty"`
	Results       []DocumentResult            `json:"results"`
	Summary       Summary                     `json:"summary"`
	Rows          []evaluation.ComparativeRow `json:"rows"`
	Winner        *evaluation.ComparativeRow  `json:"ganador,omitempty"`
	Justificacion string                      `json:"justificacion_agente"`
	ArtifactURL   string                      `json:"artifact_url,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}

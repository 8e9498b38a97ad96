package evaluation

import "context"

// Snippet is one retrieved reference fragment, best match first (ascending
// distance).
type Snippet struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// ContextRetriever port: nearest-neighbor search over the ingested corpus.
// May return fewer than k results.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

// TenderContextRetriever port: nearest-neighbor search scoped to the
// documents of one tender. May return fewer than k results.
type TenderContextRetriever interface {
	RetrieveTenderDocs(ctx context.Context, tenderID, query string, k int) ([]Snippet, error)
}

// CorpusDoc is one chunk submitted for indexing.
type CorpusDoc struct {
	ID       string
	Text     string
	Source   string
	TenderID string
	Kind     string // "legal" | "contrato"
}

// CorpusIndexer port: ingest chunks into the retrieval corpus.
type CorpusIndexer interface {
	Index(ctx context.Context, docs []CorpusDoc) error
}

// TextExtractor port: PDF to plain text. Unreadable pages yield empty
// strings, pages are joined with blank lines; extraction never fails on a
// bad page, only on an unreadable file.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

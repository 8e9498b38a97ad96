package rag

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/bryanwahyu/licitai/internal/domain/evaluation"
)

// Collection names: the legal reference corpus the assessors retrieve from,
// and the uploaded contract/proposal corpus.
const (
	LegalCollection = "base_legal"
	DocsCollection  = "contratos"
)

// Store is the embedded vector store behind the ContextRetriever and
// CorpusIndexer ports, backed by chromem-go with cosine similarity.
type Store struct {
	db    *chromem.DB
	legal *chromem.Collection
	docs  *chromem.Collection
}

// New opens (or creates) the store. An empty persistPath keeps everything in
// memory, which the tests rely on.
func New(persistPath string, embed chromem.EmbeddingFunc) (*Store, error) {
	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(persistPath, "chromem.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	legal, err := db.GetOrCreateCollection(LegalCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", LegalCollection, err)
	}
	docs, err := db.GetOrCreateCollection(DocsCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", DocsCollection, err)
	}
	return &Store{db: db, legal: legal, docs: docs}, nil
}

// Index chunks each document and adds it to its collection; legal reference
// material feeds the assessors' retrieval, everything else lands in the
// contract corpus.
func (s *Store) Index(ctx context.Context, corpusDocs []evaluation.CorpusDoc) error {
	for _, doc := range corpusDocs {
		col := s.docs
		if doc.Kind == "legal" {
			col = s.legal
		}
		for _, chunk := range chunkText(doc.Text) {
			meta := map[string]string{"source": doc.Source, "type": doc.Kind}
			if doc.TenderID != "" {
				meta["licitacion_id"] = doc.TenderID
			}
			id := doc.ID
			if id == "" {
				id = uuid.New().String()
			}
			err := col.AddDocument(ctx, chromem.Document{
				ID:       fmt.Sprintf("%s-%s", id, uuid.New().String()),
				Content:  chunk,
				Metadata: meta,
			})
			if err != nil {
				return fmt.Errorf("add document %s: %w", doc.Source, err)
			}
		}
	}
	return nil
}

// Retrieve implements the ContextRetriever port over the legal corpus.
// Results come back best match first; distance is 1 - cosine similarity.
// May return fewer than k snippets.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]evaluation.Snippet, error) {
	n := s.legal.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	results, err := s.legal.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	return toSnippets(results), nil
}

// RetrieveTenderDocs implements the TenderContextRetriever port over the
// contract corpus, filtered to the chunks of one tender.
func (s *Store) RetrieveTenderDocs(ctx context.Context, tenderID, query string, k int) ([]evaluation.Snippet, error) {
	n := s.docs.Count()
	if n == 0 {
		return nil, nil
	}
	if k > n {
		k = n
	}
	results, err := s.docs.Query(ctx, query, k, map[string]string{"licitacion_id": tenderID}, nil)
	if err != nil {
		return nil, fmt.Errorf("query tender docs: %w", err)
	}
	return toSnippets(results), nil
}

func toSnippets(results []chromem.Result) []evaluation.Snippet {
	snippets := make([]evaluation.Snippet, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, evaluation.Snippet{
			Text:     r.Content,
			Source:   r.Metadata["source"],
			Distance: 1 - float64(r.Similarity),
		})
	}
	return snippets
}

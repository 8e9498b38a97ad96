package tenders

import (
	"context"
	"io"
)

// Repository port (interface para persistencia)
type Repository interface {
	Save(ctx context.Context, t *Tender) error
	Get(ctx context.Context, id TenderID) (*Tender, error)
	List(ctx context.Context, limit int) ([]*Tender, error)
}

// DocumentStore port (interface para almacenamiento de PDFs y reportes)
type DocumentStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

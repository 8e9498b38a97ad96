package reports

import "context"

// Repository port for persisting and querying analysis reports
type Repository interface {
	Save(ctx context.Context, r *BatchReport) error
	LatestByTender(ctx context.Context, tenderID string) (*BatchReport, error)
	Paginate(ctx context.Context, tenderID string, page, pageSize int) ([]*BatchReport, error)
}

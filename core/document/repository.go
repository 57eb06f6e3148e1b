package document

import "context"

// Repository is the document side of the REST API.
type Repository interface {
	GroupDocuments(ctx context.Context, groupID int64) ([]Document, error)
	SupervisorDocuments(ctx context.Context, supervisorID int64) ([]Document, error)
	DocumentsByStatus(ctx context.Context, status Status) ([]Document, error)
	UploadDocument(ctx context.Context, form UploadForm) (Document, error)
	SubmitDocument(ctx context.Context, docID int64) (Document, error)
	ReviewDocument(ctx context.Context, docID int64, form ReviewForm) (Document, error)
	DocumentReviews(ctx context.Context, docID int64) ([]Review, error)
}

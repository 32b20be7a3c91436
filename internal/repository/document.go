package repository

import (
	"context"

	"mediatag/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create inserts the document and its ordered tags in one transaction.
	// Returns the stored document carrying the identity assigned by the database.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// FindAll returns every document in ascending ID order.
	FindAll(ctx context.Context) ([]model.Document, error)
}

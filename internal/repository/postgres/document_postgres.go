package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"mediatag/internal/model"
	"mediatag/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// selectDocuments aggregates tags in position order; documents without tags get '[]'.
const selectDocuments = `
	SELECT d.id, d.document_type, d.title, d.price, d.payload, d.dimensions, d.storage_path, d.uploaded_at,
	       COALESCE(json_agg(t.tag ORDER BY t.position) FILTER (WHERE t.tag IS NOT NULL), '[]'::json) AS tags
	FROM documents d
	LEFT JOIN document_tags t ON t.document_id = d.id
`

// Create inserts the document row and its tags, returning the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	// No-op once committed.
	defer tx.Rollback()

	const qDoc = `
		INSERT INTO documents (document_type, title, price, payload, dimensions, storage_path, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	out := *doc
	if err := tx.QueryRowContext(ctx, qDoc,
		doc.Type.Code(),
		doc.Title,
		doc.Price,
		doc.Payload,
		doc.Dimensions,
		doc.StoragePath,
		doc.UploadedAt,
	).Scan(&out.ID, &out.UploadedAt); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	const qTag = `INSERT INTO document_tags (document_id, position, tag) VALUES ($1, $2, $3)`
	for i, tag := range doc.Tags {
		if _, err := tx.ExecContext(ctx, qTag, out.ID, i, tag); err != nil {
			return nil, fmt.Errorf("insert tag %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	out.Tags = append([]string{}, doc.Tags...)
	return &out, nil
}

// FindByID fetches a single document with its tags.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = selectDocuments + `
	WHERE d.id = $1
	GROUP BY d.id
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindAll returns every document in ascending ID order.
func (r *DocumentPostgres) FindAll(ctx context.Context) ([]model.Document, error) {
	const q = selectDocuments + `
	GROUP BY d.id
	ORDER BY d.id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (model.Document, error) {
	var (
		d        model.Document
		typeCode string
		rawTags  []byte
	)
	if err := row.Scan(
		&d.ID,
		&typeCode,
		&d.Title,
		&d.Price,
		&d.Payload,
		&d.Dimensions,
		&d.StoragePath,
		&d.UploadedAt,
		&rawTags,
	); err != nil {
		return model.Document{}, err
	}

	t, err := model.ParseDocumentType(typeCode)
	if err != nil {
		return model.Document{}, fmt.Errorf("document %d: %w", d.ID, err)
	}
	d.Type = t

	d.Tags = []string{}
	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &d.Tags); err != nil {
			return model.Document{}, fmt.Errorf("document %d tags: %w", d.ID, err)
		}
	}
	return d, nil
}

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediatag/internal/logging"
	"mediatag/internal/media"
	"mediatag/internal/model"
	"mediatag/internal/repository"
	"mediatag/internal/storage"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrNotFound      = errors.New("document not found")
)

// Tagger suggests tags for a base64 payload. Implementations never fail;
// they fall back to a default set instead.
type Tagger interface {
	ExtractTags(ctx context.Context, payload string, t model.DocumentType) []string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Process validates the request, measures and tags the payload, and persists it.
	// Only ErrInvalidTypeCode, ErrTitleRequired and persistence errors are returned;
	// an undecodable or empty payload just leaves the dimensions empty.
	Process(ctx context.Context, req model.DocumentRequest) (*model.DocumentResponse, error)

	// ListAll returns every stored document in store order.
	ListAll(ctx context.Context) ([]model.DocumentResponse, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id int64) (*model.DocumentResponse, error)
}

// Option customizes the document service.
type Option func(*documentService)

// WithStorage archives each decodable payload in store before it is persisted.
func WithStorage(store storage.Storage) Option {
	return func(s *documentService) { s.store = store }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *documentService) { s.logger = l }
}

// WithLocation sets the zone upload timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *documentService) { s.loc = loc }
}

// WithClock replaces time.Now as the source of upload timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *documentService) { s.now = now }
}

type documentService struct {
	repo   repository.DocumentRepository
	tagger Tagger
	store  storage.Storage
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(repo repository.DocumentRepository, tagger Tagger, opts ...Option) DocumentService {
	s := &documentService{
		repo:   repo,
		tagger: tagger,
		logger: logging.Discard(),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Process(ctx context.Context, req model.DocumentRequest) (*model.DocumentResponse, error) {
	typ, err := model.ParseDocumentType(req.TypeCode)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	raw, decodeErr := media.Decode(req.Payload)
	dimensions := ""
	if decodeErr == nil {
		dimensions, decodeErr = media.DimensionsOf(raw)
	}
	if decodeErr != nil {
		s.logger.DebugContext(ctx, "dimensions_unavailable",
			"component", "service",
			"document_type", typ.String(),
			"error", decodeErr.Error(),
		)
	}

	doc := &model.Document{
		Type:       typ,
		Title:      req.Title,
		Price:      req.Price,
		Payload:    req.Payload,
		Dimensions: dimensions,
		UploadedAt: s.now(),
		Tags:       []string{},
	}

	doc.Tags = s.tagger.ExtractTags(ctx, req.Payload, typ)

	if raw != nil {
		key, err := s.archive(ctx, raw, doc)
		if err != nil {
			return nil, err
		}
		doc.StoragePath = key
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if doc.StoragePath != "" {
			if delErr := s.store.Delete(ctx, doc.StoragePath); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.logger.InfoContext(ctx, "document_processed",
		"component", "service",
		"document_id", stored.ID,
		"document_type", typ.String(),
		"tag_count", len(stored.Tags),
		"dimensions", stored.Dimensions,
	)

	res := model.NewDocumentResponse(*stored, s.loc)
	return &res, nil
}

// archive uploads the decoded payload when a store is configured and returns its key.
func (s *documentService) archive(ctx context.Context, raw []byte, doc *model.Document) (string, error) {
	if s.store == nil {
		return "", nil
	}
	contentType, ext := media.ContentType(raw)
	key := path.Join("documents", uuid.New().String()+ext)

	info, err := s.store.Put(ctx, key, bytes.NewReader(raw), storage.PutObjectOptions{
		Size:        int64(len(raw)),
		ContentType: contentType,
		Metadata: map[string]string{
			"document-type": doc.Type.Code(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	if info.Key != "" {
		key = info.Key
	}
	return key, nil
}

// ListAll returns the stored documents without exposing repository types.
func (s *documentService) ListAll(ctx context.Context) ([]model.DocumentResponse, error) {
	docs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.NewDocumentResponse(d, s.loc))
	}
	return out, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id int64) (*model.DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := model.NewDocumentResponse(*doc, s.loc)
	return &res, nil
}

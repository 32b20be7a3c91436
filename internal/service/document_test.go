package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mediatag/internal/config"
	"mediatag/internal/llm"
	"mediatag/internal/model"
	repoMocks "mediatag/internal/repository/mocks"
	"mediatag/internal/storage"
	storeMocks "mediatag/internal/storage/mocks"
	svcMocks "mediatag/internal/service/mocks"
)

var fixedNow = time.Date(2025, 6, 1, 18, 45, 10, 0, time.UTC)

func pngPayload(t *testing.T, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// assignID mimics the database assigning an identity on insert.
func assignID(id int64) func(*model.Document) *model.Document {
	return func(d *model.Document) *model.Document {
		out := *d
		out.ID = id
		return &out
	}
}

func TestDocumentService_Process(t *testing.T) {
	ctx := context.Background()
	png := pngPayload(t, 3, 2)
	textPayload := base64.StdEncoding.EncodeToString([]byte("definitely not an image"))

	tests := []struct {
		name       string
		req        model.DocumentRequest
		withStore  bool
		setupMocks func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, res *model.DocumentResponse)
	}{
		{
			name:      "happy path with archive",
			req:       model.DocumentRequest{TypeCode: "1", Title: "Sunset", Price: "10.00", Payload: png},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Photograph).Return([]string{"paisaje", "atardecer"})
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".png")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "image/png" && opt.Size > 0 && opt.Metadata["document-type"] == "1"
				})).Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key}
				}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
					return d.Type == model.Photograph &&
						d.Dimensions == "3x2 px" &&
						d.UploadedAt.Equal(fixedNow) &&
						strings.HasPrefix(d.StoragePath, "documents/") &&
						assert.ObjectsAreEqual([]string{"paisaje", "atardecer"}, d.Tags)
				})).Return(assignID(1), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Equal(t, int64(1), res.ID)
				assert.Equal(t, "1", res.TypeCode)
				assert.Equal(t, "Sunset", res.Title)
				assert.Equal(t, "10.00", res.Price)
				assert.Equal(t, png, res.Payload)
				assert.Equal(t, []string{"paisaje", "atardecer"}, res.Tags)
				assert.Equal(t, "2025-06-01T18:45:10", res.UploadedAt)
				assert.Equal(t, "3x2 px", res.Dimensions)
			},
		},
		{
			name: "no store configured skips archive",
			req:  model.DocumentRequest{TypeCode: "3", Title: "Dragon", Price: "5", Payload: png},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Illustration).Return([]string{"dragón"})
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
					return d.StoragePath == ""
				})).Return(assignID(2), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Equal(t, "3", res.TypeCode)
				assert.Equal(t, "3x2 px", res.Dimensions)
			},
		},
		{
			name:      "non-image payload keeps going with empty dimensions",
			req:       model.DocumentRequest{TypeCode: "2", Title: "Clip", Price: "1", Payload: textPayload},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, textPayload, model.Video).Return(llm.DefaultTags(model.Video))
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/x.txt"}, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
					return d.Dimensions == ""
				})).Return(assignID(3), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Empty(t, res.Dimensions)
				assert.Equal(t, []string{"video", "multimedia", "audiovisual"}, res.Tags)
			},
		},
		{
			name:      "undecodable payload is neither measured nor archived",
			req:       model.DocumentRequest{TypeCode: "4", Title: "Robot", Price: "1", Payload: "%%%"},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, "%%%", model.ThreeD).Return(llm.DefaultTags(model.ThreeD))
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
					return d.Dimensions == "" && d.StoragePath == ""
				})).Return(assignID(4), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Empty(t, res.Dimensions)
				assert.NotEmpty(t, res.Tags)
			},
		},
		{
			name:       "invalid type code",
			req:        model.DocumentRequest{TypeCode: "7", Title: "x", Payload: png},
			setupMocks: func(*repoMocks.MockDocumentRepository, *svcMocks.MockTagger, *storeMocks.MockStorage) {},
			wantErr:    model.ErrInvalidTypeCode,
		},
		{
			name:       "missing title",
			req:        model.DocumentRequest{TypeCode: "1", Title: "  ", Payload: png},
			setupMocks: func(*repoMocks.MockDocumentRepository, *svcMocks.MockTagger, *storeMocks.MockStorage) {},
			wantErr:    ErrTitleRequired,
		},
		{
			name:      "empty payload is still tagged and stored",
			req:       model.DocumentRequest{TypeCode: "1", Title: "Blank", Price: "0", Payload: ""},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, "", model.Photograph).Return(llm.DefaultTags(model.Photograph))
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Document) bool {
					return d.Payload == "" && d.Dimensions == "" && d.StoragePath == ""
				})).Return(assignID(5), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Equal(t, int64(5), res.ID)
				assert.Empty(t, res.Payload)
				assert.Empty(t, res.Dimensions)
				assert.Equal(t, []string{"fotografía", "imagen", "visual"}, res.Tags)
			},
		},
		{
			name:      "blank payload is still tagged and stored",
			req:       model.DocumentRequest{TypeCode: "2", Title: "Blank", Payload: "   "},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, "   ", model.Video).Return(llm.DefaultTags(model.Video))
				mRepo.On("Create", ctx, mock.Anything).Return(assignID(6), nil)
			},
			check: func(t *testing.T, res *model.DocumentResponse) {
				assert.Empty(t, res.Dimensions)
				assert.Equal(t, "2", res.TypeCode)
			},
		},
		{
			name:      "storage error",
			req:       model.DocumentRequest{TypeCode: "1", Title: "t", Payload: png},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Photograph).Return([]string{"a"})
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:      "repository error with successful rollback",
			req:       model.DocumentRequest{TypeCode: "1", Title: "t", Payload: png},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Photograph).Return([]string{"a"})
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/k.png"}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, "documents/k.png").Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:      "repository error with failed rollback",
			req:       model.DocumentRequest{TypeCode: "1", Title: "t", Payload: png},
			withStore: true,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Photograph).Return([]string{"a"})
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/k.png"}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, "documents/k.png").Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name: "repository error without archive",
			req:  model.DocumentRequest{TypeCode: "2", Title: "t", Payload: png},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mTagger *svcMocks.MockTagger, mStore *storeMocks.MockStorage) {
				mTagger.On("ExtractTags", ctx, png, model.Video).Return([]string{"a"})
				mRepo.On("Create", ctx, mock.Anything).Return(nil, sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			mTagger := new(svcMocks.MockTagger)
			mStore := new(storeMocks.MockStorage)

			opts := []Option{WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC)}
			if tt.withStore {
				opts = append(opts, WithStorage(mStore))
			}
			svc := NewDocumentService(mRepo, mTagger, opts...)

			tt.setupMocks(mRepo, mTagger, mStore)

			res, err := svc.Process(ctx, tt.req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
				assert.Nil(t, res)
			default:
				require.NoError(t, err)
				require.NotNil(t, res)
				tt.check(t, res)
			}

			mRepo.AssertExpectations(t)
			mTagger.AssertExpectations(t)
			mStore.AssertExpectations(t)
		})
	}
}

func TestDocumentService_ListAll(t *testing.T) {
	ctx := context.Background()
	docs := []model.Document{
		{ID: 1, Type: model.Photograph, Title: "a", UploadedAt: fixedNow, Tags: []string{"uno"}},
		{ID: 2, Type: model.ThreeD, Title: "b", UploadedAt: fixedNow, Tags: []string{"dos", "tres"}},
	}

	t.Run("happy path is stable across calls", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindAll", ctx).Return(docs, nil).Twice()
		svc := NewDocumentService(mRepo, nil, WithLocation(time.UTC))

		first, err := svc.ListAll(ctx)
		require.NoError(t, err)
		second, err := svc.ListAll(ctx)
		require.NoError(t, err)

		require.Len(t, first, 2)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), first[0].ID)
		assert.Equal(t, "4", first[1].TypeCode)
		assert.Equal(t, []string{"dos", "tres"}, first[1].Tags)
		mRepo.AssertExpectations(t)
	})

	t.Run("empty store", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindAll", ctx).Return([]model.Document{}, nil)
		svc := NewDocumentService(mRepo, nil)

		res, err := svc.ListAll(ctx)

		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("FindAll", ctx).Return(nil, errors.New("db fail"))
		svc := NewDocumentService(mRepo, nil)

		res, err := svc.ListAll(ctx)

		assert.EqualError(t, err, "db fail")
		assert.Nil(t, res)
	})
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         int64
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   5,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(5)).Return(&model.Document{ID: 5, Type: model.Video}, nil)
			},
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   6,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(6)).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   7,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, int64(7)).Return(nil, sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mRepo, nil)

			tt.setupMocks(mRepo)

			res, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, res.ID)
				assert.Equal(t, "2", res.TypeCode)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

// TestDocumentService_Process_EndToEnd runs the real LLM client against a fake
// chat-completions server.
func TestDocumentService_Process_EndToEnd(t *testing.T) {
	ctx := context.Background()
	png := pngPayload(t, 16, 9)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, png, req.Messages[0].Content[1].ImageURL.URL)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"paisaje, atardecer, naranja"}}]}`)
	}))
	defer srv.Close()

	client, err := llm.New(config.LLMConfig{URL: srv.URL, APIKey: "k", Model: "m"}, llm.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Create", ctx, mock.Anything).Return(assignID(11), nil)

	svc := NewDocumentService(mRepo, client)

	res, err := svc.Process(ctx, model.DocumentRequest{TypeCode: "1", Title: "Sunset", Price: "10.00", Payload: png})

	require.NoError(t, err)
	assert.Equal(t, int64(11), res.ID)
	assert.Equal(t, "1", res.TypeCode)
	assert.Equal(t, []string{"paisaje", "atardecer", "naranja"}, res.Tags)
	assert.Equal(t, "16x9 px", res.Dimensions)
	assert.NotEmpty(t, res.UploadedAt)
	_, err = time.ParseInLocation(model.TimestampLayout, res.UploadedAt, time.Local)
	assert.NoError(t, err)
	mRepo.AssertExpectations(t)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/loader"
	"github.com/cloo-solutions/admitbot/internal/pagination"
	"github.com/cloo-solutions/admitbot/internal/storage"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// DefaultIngestConcurrency bounds how many files of one request are
// ingested at once.
const DefaultIngestConcurrency = 2

// FileRepositoryInterface defines the repository interface for file records
type FileRepositoryInterface interface {
	GetByPublicID(ctx context.Context, publicID string) (*domain.FileRecord, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.FileRecord], error)
}

// DocumentLoader fetches and parses a source.
type DocumentLoader interface {
	Load(ctx context.Context, src loader.Source) (*loader.Loaded, error)
}

// KnowledgeManager writes and deletes documents across both stores.
type KnowledgeManager interface {
	Ingest(ctx context.Context, req ingestion.IngestRequest) (*domain.FileRecord, error)
	Delete(ctx context.Context, publicID string) (*ingestion.DeleteReport, error)
}

// ObjectStorage archives raw source bytes.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// FileService ingests, lists and deletes knowledge files.
type FileService struct {
	loader      DocumentLoader
	manager     KnowledgeManager
	files       FileRepositoryInterface
	storage     ObjectStorage
	concurrency int
	logger      zerolog.Logger
}

// NewFileService creates a FileService. storage may be nil, in which
// case raw files are not archived.
func NewFileService(l DocumentLoader, manager KnowledgeManager, files FileRepositoryInterface, storage ObjectStorage, logger zerolog.Logger) *FileService {
	return &FileService{
		loader:      l,
		manager:     manager,
		files:       files,
		storage:     storage,
		concurrency: DefaultIngestConcurrency,
		logger:      logger,
	}
}

// SetConcurrency bounds how many files IngestFiles handles at once.
func (s *FileService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// IngestFileInput names one file to ingest.
type IngestFileInput struct {
	PublicID string
	URL      string
	FileName string
	FileType string
}

// IngestResult is the outcome for one file of a batch. Err is set on
// failure and Record on success.
type IngestResult struct {
	PublicID string
	Record   *domain.FileRecord
	Err      error
}

// IngestFiles ingests every input independently; one failing file does
// not stop the others. Results keep input order.
func (s *FileService) IngestFiles(ctx context.Context, inputs []IngestFileInput) []IngestResult {
	results := make([]IngestResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			rec, err := s.Ingest(gctx, in)
			results[i] = IngestResult{PublicID: in.PublicID, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Ingest loads one file, archives its raw bytes and writes its chunks.
// Re-ingesting a public id replaces the previous version.
func (s *FileService) Ingest(ctx context.Context, in IngestFileInput) (*domain.FileRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "FileService.Ingest", telemetry.SpanAttributes{PublicID: in.PublicID, Operation: "ingest"})
	defer span.End()

	loaded, err := s.loader.Load(ctx, loader.Source{
		PublicID: in.PublicID,
		URL:      in.URL,
		FileName: in.FileName,
		FileType: in.FileType,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	key := s.archive(ctx, loaded)

	rec, err := s.manager.Ingest(ctx, ingestion.IngestRequest{Document: loaded.Document, ObjectKey: key})
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return rec, nil
}

// archive stores the raw bytes and returns their key, or "" when there
// is no storage or the upload failed.
func (s *FileService) archive(ctx context.Context, loaded *loader.Loaded) string {
	if s.storage == nil {
		return ""
	}
	doc := loaded.Document
	key := storage.ObjectKey(doc.PublicID, doc.FileName)
	if err := s.storage.PutObject(ctx, key, loaded.Raw, loaded.ContentType); err != nil {
		s.logger.Warn().Err(err).Str("public_id", doc.PublicID).Msg("failed to archive raw file")
		return ""
	}
	return key
}

// Delete removes a file's chunks and record, then its archived bytes.
func (s *FileService) Delete(ctx context.Context, publicID string) (*ingestion.DeleteReport, error) {
	if publicID == "" {
		return nil, domain.ErrMissingPublicID
	}

	var objectKey string
	rec, err := s.files.GetByPublicID(ctx, publicID)
	switch {
	case err == nil:
		objectKey = rec.ObjectKey
	case !errors.Is(err, domain.ErrFileNotFound):
		return nil, fmt.Errorf("failed to load file record: %w", err)
	}

	report, err := s.manager.Delete(ctx, publicID)
	if err != nil {
		return report, err
	}

	if objectKey != "" && s.storage != nil {
		if err := s.storage.DeleteObject(ctx, objectKey); err != nil {
			s.logger.Warn().Err(err).Str("public_id", publicID).Str("key", objectKey).Msg("failed to delete archived file")
		}
	}
	return report, nil
}

// FileView is a file record plus a temporary download link for its
// archived bytes.
type FileView struct {
	Record      *domain.FileRecord
	DownloadURL string
}

// List pages through ingested files, newest first.
func (s *FileService) List(ctx context.Context, input ListInput) (*pagination.PageResult[FileView], error) {
	cursor, err := decodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}
	page, err := s.files.List(ctx, cursor, pagination.ClampLimit(input.Limit, defaultPageSize, maxPageSize))
	if err != nil {
		return nil, err
	}

	views := make([]FileView, 0, len(page.Items))
	for _, rec := range page.Items {
		v := FileView{Record: rec}
		if rec.ObjectKey != "" && s.storage != nil {
			url, err := s.storage.GenerateDownloadURL(ctx, rec.ObjectKey)
			if err != nil {
				s.logger.Warn().Err(err).Str("public_id", rec.PublicID).Msg("failed to sign download url")
			} else {
				v.DownloadURL = url
			}
		}
		views = append(views, v)
	}
	return &pagination.PageResult[FileView]{Items: views, Cursor: page.Cursor, HasMore: page.HasMore}, nil
}

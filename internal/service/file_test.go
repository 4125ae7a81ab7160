package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/ingestion"
	"github.com/cloo-solutions/admitbot/internal/loader"
	"github.com/cloo-solutions/admitbot/internal/logger"
	"github.com/cloo-solutions/admitbot/internal/pagination"
)

var testTime = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

type fileFixture struct {
	loader  *MockDocumentLoader
	manager *MockKnowledgeManager
	files   *MockFileRepository
	storage *MockObjectStorage
	svc     *FileService
}

func newFileFixture(withStorage bool) *fileFixture {
	f := &fileFixture{
		loader:  new(MockDocumentLoader),
		manager: new(MockKnowledgeManager),
		files:   new(MockFileRepository),
		storage: new(MockObjectStorage),
	}
	var store ObjectStorage
	if withStorage {
		store = f.storage
	}
	f.svc = NewFileService(f.loader, f.manager, f.files, store, logger.Nop())
	return f
}

func loadedDoc(publicID string) *loader.Loaded {
	return &loader.Loaded{
		Document: &domain.KnowledgeDocument{
			PublicID: publicID,
			Source:   "https://tuyensinh.uit.edu.vn/" + publicID,
			FileType: domain.FileTypeHTML,
			FileName: publicID + ".html",
			Pages:    []domain.Page{{Number: 1, Text: "Học phí năm 2024"}},
		},
		Raw:         []byte("<p>Học phí năm 2024</p>"),
		ContentType: "text/html",
	}
}

func TestFileService_IngestArchivesRawBytes(t *testing.T) {
	f := newFileFixture(true)
	in := IngestFileInput{PublicID: "p1", URL: "https://tuyensinh.uit.edu.vn/p1", FileType: "html"}
	loaded := loadedDoc("p1")

	f.loader.On("Load", mock.Anything, loader.Source{PublicID: "p1", URL: in.URL, FileType: "html"}).Return(loaded, nil)
	f.storage.On("PutObject", mock.Anything, "documents/p1/p1.html", loaded.Raw, "text/html").Return(nil)
	f.manager.On("Ingest", mock.Anything, ingestion.IngestRequest{Document: loaded.Document, ObjectKey: "documents/p1/p1.html"}).
		Return(&domain.FileRecord{PublicID: "p1", ObjectKey: "documents/p1/p1.html", ChunkCount: 3}, nil)

	rec, err := f.svc.Ingest(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 3, rec.ChunkCount)
	f.loader.AssertExpectations(t)
	f.storage.AssertExpectations(t)
	f.manager.AssertExpectations(t)
}

func TestFileService_IngestArchiveFailureStillIngests(t *testing.T) {
	f := newFileFixture(true)
	loaded := loadedDoc("p1")

	f.loader.On("Load", mock.Anything, mock.Anything).Return(loaded, nil)
	f.storage.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing"))
	f.manager.On("Ingest", mock.Anything, ingestion.IngestRequest{Document: loaded.Document}).
		Return(&domain.FileRecord{PublicID: "p1"}, nil)

	_, err := f.svc.Ingest(context.Background(), IngestFileInput{PublicID: "p1", URL: "x"})

	require.NoError(t, err)
	f.manager.AssertExpectations(t)
}

func TestFileService_IngestWithoutStorage(t *testing.T) {
	f := newFileFixture(false)
	loaded := loadedDoc("p1")

	f.loader.On("Load", mock.Anything, mock.Anything).Return(loaded, nil)
	f.manager.On("Ingest", mock.Anything, ingestion.IngestRequest{Document: loaded.Document}).
		Return(&domain.FileRecord{PublicID: "p1"}, nil)

	_, err := f.svc.Ingest(context.Background(), IngestFileInput{PublicID: "p1", URL: "x"})

	require.NoError(t, err)
	f.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFileService_IngestFilesIsolatesFailures(t *testing.T) {
	f := newFileFixture(false)

	f.loader.On("Load", mock.Anything, mock.MatchedBy(func(s loader.Source) bool { return s.PublicID == "bad" })).
		Return(nil, domain.ErrUnsupportedFileType)
	for _, id := range []string{"a", "b", "c"} {
		loaded := loadedDoc(id)
		f.loader.On("Load", mock.Anything, mock.MatchedBy(func(s loader.Source) bool { return s.PublicID == id })).Return(loaded, nil)
		f.manager.On("Ingest", mock.Anything, ingestion.IngestRequest{Document: loaded.Document}).
			Return(&domain.FileRecord{PublicID: id}, nil)
	}

	results := f.svc.IngestFiles(context.Background(), []IngestFileInput{
		{PublicID: "a", URL: "u"}, {PublicID: "bad", URL: "u"}, {PublicID: "b", URL: "u"}, {PublicID: "c", URL: "u"},
	})

	require.Len(t, results, 4)
	assert.Equal(t, "a", results[0].PublicID)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrUnsupportedFileType)
	assert.Nil(t, results[1].Record)
	assert.Equal(t, "c", results[3].Record.PublicID)
}

func TestFileService_DeleteRemovesArchivedObject(t *testing.T) {
	f := newFileFixture(true)

	f.files.On("GetByPublicID", mock.Anything, "p1").Return(&domain.FileRecord{PublicID: "p1", ObjectKey: "documents/p1/a.md"}, nil)
	f.manager.On("Delete", mock.Anything, "p1").Return(&ingestion.DeleteReport{PublicID: "p1", Documents: 1, Chunks: 4}, nil)
	f.storage.On("DeleteObject", mock.Anything, "documents/p1/a.md").Return(nil)

	report, err := f.svc.Delete(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, 4, report.Chunks)
	f.storage.AssertExpectations(t)
}

func TestFileService_DeleteWithoutRecord(t *testing.T) {
	f := newFileFixture(true)

	f.files.On("GetByPublicID", mock.Anything, "p1").Return(nil, domain.ErrFileNotFound)
	f.manager.On("Delete", mock.Anything, "p1").Return(&ingestion.DeleteReport{PublicID: "p1", Chunks: 2}, nil)

	_, err := f.svc.Delete(context.Background(), "p1")

	require.NoError(t, err)
	f.storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestFileService_DeleteFailureKeepsArchive(t *testing.T) {
	f := newFileFixture(true)

	f.files.On("GetByPublicID", mock.Anything, "p1").Return(&domain.FileRecord{PublicID: "p1", ObjectKey: "k"}, nil)
	f.manager.On("Delete", mock.Anything, "p1").Return(nil, domain.ErrUpstreamUnavailable)

	_, err := f.svc.Delete(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	f.storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)

	_, err = f.svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingPublicID)
}

func TestFileService_ListSignsDownloads(t *testing.T) {
	f := newFileFixture(true)

	page := &pagination.PageResult[*domain.FileRecord]{
		Items: []*domain.FileRecord{
			{PublicID: "p1", ObjectKey: "documents/p1/a.md", CreatedAt: testTime},
			{PublicID: "p2", CreatedAt: testTime},
		},
		Cursor:  "next",
		HasMore: true,
	}
	f.files.On("List", mock.Anything, (*pagination.Cursor)(nil), 20).Return(page, nil)
	f.storage.On("GenerateDownloadURL", mock.Anything, "documents/p1/a.md").Return("https://s3.local/a.md?sig", nil)

	got, err := f.svc.List(context.Background(), ListInput{})

	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "https://s3.local/a.md?sig", got.Items[0].DownloadURL)
	assert.Empty(t, got.Items[1].DownloadURL)
	assert.True(t, got.HasMore)
	assert.Equal(t, "next", got.Cursor)
}

func TestFileService_IngestFilesRespectsConcurrency(t *testing.T) {
	f := newFileFixture(false)

	var mu sync.Mutex
	active, maxActive := 0, 0
	f.loader.On("Load", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}).Return(nil, domain.ErrEmptyDocument)

	inputs := make([]IngestFileInput, 6)
	for i := range inputs {
		inputs[i] = IngestFileInput{PublicID: "p", URL: "u"}
	}
	results := f.svc.IngestFiles(context.Background(), inputs)

	assert.Len(t, results, 6)
	assert.LessOrEqual(t, maxActive, DefaultIngestConcurrency)
}

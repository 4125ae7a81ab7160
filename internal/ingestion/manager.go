// Package ingestion turns documents into chunks and keeps the vector
// index and the document store consistent across writes and deletes.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/metrics"
	"github.com/cloo-solutions/admitbot/internal/retrieval"
	"github.com/cloo-solutions/admitbot/internal/telemetry"
)

// Defaults for the manager configuration.
const (
	DefaultEmbedConcurrency = 4
	DefaultStoreTimeout     = 10 * time.Second
)

// DocStore keeps chunk text and metadata keyed by chunk id.
type DocStore interface {
	Insert(ctx context.Context, chunks []*domain.Chunk) error
	DeleteByParent(ctx context.Context, parentID string) error
	FindByPublicID(ctx context.Context, publicID string) ([]*domain.Chunk, error)
	Get(ctx context.Context, id string) (*domain.Chunk, error)
}

// FileStore persists one record per ingested file.
type FileStore interface {
	Upsert(ctx context.Context, rec *domain.FileRecord) error
	Delete(ctx context.Context, publicID string) error
}

// CleanupJobStore records deferred deletions.
type CleanupJobStore interface {
	Create(ctx context.Context, job *domain.CleanupJob) error
}

// Stores groups the persistence dependencies of a Manager.
type Stores struct {
	Index retrieval.VectorIndex
	Docs  DocStore
	Files FileStore
	Jobs  CleanupJobStore
}

// Config tunes ingestion.
type Config struct {
	EmbedConcurrency int
	StoreTimeout     time.Duration
}

// Manager ingests and deletes documents across both stores.
type Manager struct {
	embedder retrieval.Embedder
	splitter Splitter
	stores   Stores
	cfg      Config
	uuidGen  UUIDGenerator
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewManager creates a new Manager instance
func NewManager(embedder retrieval.Embedder, splitter Splitter, stores Stores, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Manager {
	return NewManagerWithUUIDGen(embedder, splitter, stores, cfg, logger, m, &DefaultUUIDGenerator{})
}

// NewManagerWithUUIDGen creates a Manager with a custom UUID generator (for testing)
func NewManagerWithUUIDGen(embedder retrieval.Embedder, splitter Splitter, stores Stores, cfg Config, logger zerolog.Logger, m *metrics.Metrics, uuidGen UUIDGenerator) *Manager {
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Manager{
		embedder: embedder,
		splitter: splitter,
		stores:   stores,
		cfg:      cfg,
		uuidGen:  uuidGen,
		now:      time.Now,
		logger:   logger,
		metrics:  m,
	}
}

// IngestRequest is a loaded document plus where its raw bytes were archived.
type IngestRequest struct {
	Document  *domain.KnowledgeDocument
	ObjectKey string
}

// Ingest splits, embeds and stores a document, replacing any chunks
// previously stored under the same public id. A failed write is
// compensated in the stores that already accepted it and leaves the
// previous version in place; that version is only retired once the new
// one and its file record are stored.
func (m *Manager) Ingest(ctx context.Context, req IngestRequest) (*domain.FileRecord, error) {
	doc := req.Document
	if doc == nil {
		return nil, domain.ErrMissingRequiredField
	}
	ctx, span := telemetry.StartSpan(ctx, "ingestion.ingest", telemetry.SpanAttributes{Operation: "ingest"})
	defer span.End()
	span.SetTag("public_id", doc.PublicID)

	rec, err := m.ingest(ctx, doc, req.ObjectKey)
	if err != nil {
		span.SetError(err)
		m.metrics.IngestionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	m.metrics.IngestionsTotal.WithLabelValues("ok").Inc()
	m.metrics.ChunksIngested.Add(float64(rec.ChunkCount))
	return rec, nil
}

func (m *Manager) ingest(ctx context.Context, doc *domain.KnowledgeDocument, objectKey string) (*domain.FileRecord, error) {
	if doc.ID == "" {
		doc.ID = m.uuidGen.NewString()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	previous, err := m.parents(ctx, doc.PublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to find previous version: %w", err)
	}

	pages := make([]pageSessions, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		sessions, err := m.splitter.Split(ctx, p.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", p.Number, err)
		}
		pages = append(pages, pageSessions{page: p.Number, sessions: sessions})
	}

	now := m.now().UTC()
	arena, err := buildArena(doc, pages, m.uuidGen, now.UnixMicro())
	if err != nil {
		return nil, err
	}
	if arena.Len() == 0 {
		return nil, domain.ErrEmptyDocument
	}
	chunks := arena.Chunks()

	if err := m.embed(ctx, chunks); err != nil {
		return nil, err
	}

	if err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.stores.Index.Insert(ctx, chunks)
	}); err != nil {
		return nil, m.compensate(ctx, doc, storeError("vector insert", err), domain.CleanupTargetVector)
	}

	if err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.stores.Docs.Insert(ctx, chunks)
	}); err != nil {
		return nil, m.compensate(ctx, doc, storeError("document insert", err), domain.CleanupTargetVector)
	}

	rec := &domain.FileRecord{
		PublicID:   doc.PublicID,
		URL:        doc.Source,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		ObjectKey:  objectKey,
		DocumentID: doc.ID,
		ChunkCount: len(chunks),
		CreatedAt:  now,
	}
	if err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.stores.Files.Upsert(ctx, rec)
	}); err != nil {
		return nil, m.compensate(ctx, doc, storeError("file record", err), domain.CleanupTargetVector, domain.CleanupTargetDocStore)
	}

	retired := m.retire(context.WithoutCancel(ctx), doc.PublicID, doc.ID, previous)

	m.logger.Info().
		Str("public_id", doc.PublicID).
		Str("document_id", doc.ID).
		Int("chunks", len(chunks)).
		Int("retired", retired).
		Msg("document ingested")
	return rec, nil
}

// retire removes superseded documents. The new version is already
// stored, so a failed delete becomes a cleanup job rather than an error.
func (m *Manager) retire(ctx context.Context, publicID, current string, parents []string) int {
	retired := 0
	for _, parent := range parents {
		if parent == current {
			continue
		}
		if err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.stores.Index.DeleteByParent(ctx, parent)
		}); err != nil {
			m.logger.Warn().Err(err).Str("document_id", parent).Msg("failed to retire previous version, deferring")
			_ = m.enqueueCleanup(ctx, parent, publicID, domain.CleanupTargetVector)
			_ = m.enqueueCleanup(ctx, parent, publicID, domain.CleanupTargetDocStore)
			continue
		}
		if err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.stores.Docs.DeleteByParent(ctx, parent)
		}); err != nil {
			m.logger.Warn().Err(err).Str("document_id", parent).Msg("failed to retire previous version, deferring")
			_ = m.enqueueCleanup(ctx, parent, publicID, domain.CleanupTargetDocStore)
			continue
		}
		retired++
	}
	return retired
}

// parents lists the ids of the documents stored under publicID.
func (m *Manager) parents(ctx context.Context, publicID string) ([]string, error) {
	chunks, err := m.Chunks(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return parentIDs(chunks), nil
}

func parentIDs(chunks []*domain.Chunk) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range chunks {
		parent := c.ParentID()
		if _, ok := seen[parent]; ok || parent == "" {
			continue
		}
		seen[parent] = struct{}{}
		out = append(out, parent)
	}
	return out
}

func (m *Manager) embed(ctx context.Context, chunks []*domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.EmbedConcurrency)
	for _, c := range chunks {
		g.Go(func() error {
			emb, err := m.embedder.GenerateEmbedding(gctx, c.EmbedText())
			if err != nil {
				return fmt.Errorf("failed to embed chunk %s: %w", c.ID, err)
			}
			c.Embedding = emb
			return nil
		})
	}
	return g.Wait()
}

// compensate removes doc's chunks from the given stores after cause
// aborted an ingestion. A purge that fails is left to a cleanup job; if
// even the job cannot be recorded the stores have diverged.
func (m *Manager) compensate(ctx context.Context, doc *domain.KnowledgeDocument, cause error, targets ...domain.CleanupTarget) error {
	ctx = context.WithoutCancel(ctx)
	diverged := false
	for _, target := range targets {
		err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.purge(ctx, target, doc.ID)
		})
		if err == nil {
			continue
		}
		m.logger.Warn().Err(err).Str("document_id", doc.ID).Str("target", string(target)).Msg("compensating delete failed")
		if err := m.enqueueCleanup(ctx, doc.ID, doc.PublicID, target); err != nil {
			diverged = true
		}
	}
	if diverged {
		return domain.NewDomainErrorWithCause(domain.ErrCodeConsistency, domain.ErrPartialWrite.Message, cause)
	}
	return cause
}

func (m *Manager) enqueueCleanup(ctx context.Context, parentID, publicID string, target domain.CleanupTarget) error {
	job := domain.NewCleanupJob(m.uuidGen.NewString(), parentID, publicID, target, m.now().UTC())
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		return m.stores.Jobs.Create(ctx, job)
	})
	if err != nil {
		m.logger.Error().Err(err).Str("document_id", parentID).Str("target", string(target)).Msg("failed to enqueue cleanup job")
		m.metrics.CleanupJobsTotal.WithLabelValues("enqueue_failed").Inc()
		return err
	}
	m.metrics.CleanupJobsTotal.WithLabelValues("enqueued").Inc()
	return nil
}

// Purge deletes a document's chunks from the store a cleanup job names.
func (m *Manager) Purge(ctx context.Context, job *domain.CleanupJob) error {
	if err := domain.ValidateCleanupJob(job); err != nil {
		return err
	}
	return m.withTimeout(ctx, func(ctx context.Context) error {
		return m.purge(ctx, job.Target, job.ParentID)
	})
}

func (m *Manager) purge(ctx context.Context, target domain.CleanupTarget, parentID string) error {
	switch target {
	case domain.CleanupTargetVector:
		return m.stores.Index.DeleteByParent(ctx, parentID)
	case domain.CleanupTargetDocStore:
		return m.stores.Docs.DeleteByParent(ctx, parentID)
	}
	return domain.ErrInvalidJobTarget
}

// DeleteReport summarizes a delete. Pending lists documents whose
// chunks are still in the document store awaiting a cleanup job.
type DeleteReport struct {
	PublicID  string   `json:"public_id"`
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks"`
	Pending   []string `json:"pending,omitempty"`
}

// Delete removes every chunk stored under publicID, then the file
// record. Each owning document is deleted from the vector index first;
// a failure there aborts with nothing removed for that document.
//
// Chunks are found by scanning the document store for publicID, so a
// delete costs time proportional to the number of chunks it removes.
func (m *Manager) Delete(ctx context.Context, publicID string) (*DeleteReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "ingestion.delete", telemetry.SpanAttributes{Operation: "delete"})
	defer span.End()
	span.SetTag("public_id", publicID)

	report, err := m.deleteChunks(ctx, publicID)
	if err != nil {
		span.SetError(err)
		m.metrics.DeletionsTotal.WithLabelValues("error").Inc()
		return report, err
	}

	err = m.withTimeout(ctx, func(ctx context.Context) error {
		return m.stores.Files.Delete(ctx, publicID)
	})
	switch {
	case errors.Is(err, domain.ErrFileNotFound) && report.Chunks == 0:
		m.metrics.DeletionsTotal.WithLabelValues("not_found").Inc()
		return nil, domain.ErrFileNotFound
	case err != nil && !errors.Is(err, domain.ErrFileNotFound):
		span.SetError(err)
		m.metrics.DeletionsTotal.WithLabelValues("error").Inc()
		return report, storeError("file record delete", err)
	}

	status := "ok"
	if len(report.Pending) > 0 {
		status = "pending"
	}
	m.metrics.DeletionsTotal.WithLabelValues(status).Inc()
	m.logger.Info().
		Str("public_id", publicID).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("pending", len(report.Pending)).
		Msg("document deleted")
	return report, nil
}

func (m *Manager) deleteChunks(ctx context.Context, publicID string) (*DeleteReport, error) {
	report := &DeleteReport{PublicID: publicID}

	var chunks []*domain.Chunk
	if err := m.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		chunks, err = m.stores.Docs.FindByPublicID(ctx, publicID)
		return err
	}); err != nil {
		return report, storeError("document scan", err)
	}
	report.Chunks = len(chunks)

	for _, parent := range parentIDs(chunks) {
		if err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.stores.Index.DeleteByParent(ctx, parent)
		}); err != nil {
			return report, storeError("vector delete", err)
		}

		if err := m.withTimeout(ctx, func(ctx context.Context) error {
			return m.stores.Docs.DeleteByParent(ctx, parent)
		}); err != nil {
			m.logger.Warn().Err(err).Str("document_id", parent).Msg("document store delete failed, deferring")
			if jerr := m.enqueueCleanup(context.WithoutCancel(ctx), parent, publicID, domain.CleanupTargetDocStore); jerr != nil {
				return report, domain.NewDomainErrorWithCause(domain.ErrCodeConsistency, domain.ErrPartialWrite.Message, err)
			}
			report.Pending = append(report.Pending, parent)
			continue
		}
		report.Documents++
	}
	return report, nil
}

// Chunks lists the stored chunks of a file.
func (m *Manager) Chunks(ctx context.Context, publicID string) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		chunks, err = m.stores.Docs.FindByPublicID(ctx, publicID)
		return err
	})
	if err != nil {
		return nil, storeError("document scan", err)
	}
	return chunks, nil
}

// Chunk returns one stored chunk.
func (m *Manager) Chunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var c *domain.Chunk
	err := m.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		c, err = m.stores.Docs.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError("document get", err)
	}
	return c, nil
}

func (m *Manager) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.Upstream(op, err)
}

package ingestion

import (
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

type pageSessions struct {
	page     int
	sessions []Session
}

// buildArena turns the sessions of every page into chunks owned by doc.
// Seq values start at seqBase so chunks keep corpus order.
func buildArena(doc *domain.KnowledgeDocument, pages []pageSessions, ids UUIDGenerator, seqBase int64) (*domain.ChunkArena, error) {
	arena := domain.NewChunkArena()
	seq := seqBase
	for _, p := range pages {
		for _, s := range p.sessions {
			meta := doc.Metadata()
			if p.page > 0 {
				meta[domain.MetaPage] = strconv.Itoa(p.page)
			}
			if s.Title != "" {
				meta[domain.MetaTitle] = s.Title
			}
			c := &domain.Chunk{
				ID:                 ids.NewString(),
				Text:               s.Content,
				Title:              s.Title,
				Seq:                seq,
				Metadata:           meta,
				ExcludedEmbedKeys:  slices.Clone(domain.HiddenMetadataKeys),
				ExcludedPromptKeys: slices.Clone(domain.HiddenMetadataKeys),
			}
			if err := arena.Add(c); err != nil {
				return nil, err
			}
			seq++
		}
	}
	arena.Link(doc.ID)
	if err := arena.Validate(doc.ID); err != nil {
		return nil, err
	}
	return arena, nil
}

package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Relationships link a chunk to its document and siblings by id.
type Relationships struct {
	Source   string
	Previous string
	Next     string
}

// Chunk is the unit stored in both the vector index and the document store.
type Chunk struct {
	ID                 string
	Text               string
	Title              string
	Seq                int64
	Metadata           map[string]string
	Relationships      Relationships
	ExcludedEmbedKeys  []string
	ExcludedPromptKeys []string
	Embedding          []float32
}

// ParentID is the owning document id.
func (c *Chunk) ParentID() string {
	return c.Relationships.Source
}

// PublicID is the external handle inherited from the document.
func (c *Chunk) PublicID() string {
	return c.Metadata[MetaPublicID]
}

// EmbedText is the text sent to the embedding model.
func (c *Chunk) EmbedText() string {
	return c.render(c.ExcludedEmbedKeys, ": ")
}

// PromptMetadata serializes metadata visible to the LLM, keys sorted.
func (c *Chunk) PromptMetadata() string {
	return renderMetadata(c.Metadata, c.ExcludedPromptKeys, ": ")
}

func (c *Chunk) render(excluded []string, sep string) string {
	meta := renderMetadata(c.Metadata, excluded, sep)
	if meta == "" {
		return c.Text
	}
	return meta + "\n\n" + c.Text
}

func renderMetadata(meta map[string]string, excluded []string, sep string) string {
	if len(meta) == 0 {
		return ""
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, k := range excluded {
		skip[k] = struct{}{}
	}
	keys := make([]string, 0, len(meta))
	for k, v := range meta {
		if _, ok := skip[k]; ok || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteString(sep)
		b.WriteString(meta[k])
	}
	return b.String()
}

// ChunkArena owns the chunks of one document. Relationships are
// expressed as ids into the arena, never as pointers.
type ChunkArena struct {
	order  []string
	chunks map[string]*Chunk
}

// NewChunkArena returns an empty arena.
func NewChunkArena() *ChunkArena {
	return &ChunkArena{chunks: make(map[string]*Chunk)}
}

// Add appends a chunk in document order.
func (a *ChunkArena) Add(c *Chunk) error {
	if c.ID == "" {
		return ErrMissingRequiredField
	}
	if _, ok := a.chunks[c.ID]; ok {
		return fmt.Errorf("duplicate chunk id %s", c.ID)
	}
	a.order = append(a.order, c.ID)
	a.chunks[c.ID] = c
	return nil
}

// Get returns the chunk with the given id.
func (a *ChunkArena) Get(id string) (*Chunk, bool) {
	c, ok := a.chunks[id]
	return c, ok
}

// Len returns the number of chunks.
func (a *ChunkArena) Len() int {
	return len(a.order)
}

// Chunks returns the chunks in document order.
func (a *ChunkArena) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.chunks[id])
	}
	return out
}

// Link sets the source of every chunk and, when there is more than one
// chunk, the previous/next sibling ids.
func (a *ChunkArena) Link(sourceID string) {
	for i, id := range a.order {
		c := a.chunks[id]
		c.Relationships.Source = sourceID
		c.Relationships.Previous = ""
		c.Relationships.Next = ""
		if len(a.order) < 2 {
			continue
		}
		if i > 0 {
			c.Relationships.Previous = a.order[i-1]
		}
		if i < len(a.order)-1 {
			c.Relationships.Next = a.order[i+1]
		}
	}
}

// Validate checks that every relationship resolves inside the arena.
func (a *ChunkArena) Validate(sourceID string) error {
	for _, id := range a.order {
		c := a.chunks[id]
		if c.Relationships.Source != sourceID {
			return fmt.Errorf("chunk %s: source %q does not match document %q", id, c.Relationships.Source, sourceID)
		}
		for _, rel := range []string{c.Relationships.Previous, c.Relationships.Next} {
			if rel == "" {
				continue
			}
			if _, ok := a.chunks[rel]; !ok {
				return fmt.Errorf("chunk %s: dangling sibling %s", id, rel)
			}
		}
	}
	return nil
}

// ScoredChunk is one ranked search hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
	Rank  int
}

// RetrievalResult is the transient output of one retrieval.
type RetrievalResult struct {
	CombinedContext string
	RankedChunks    []ScoredChunk
}

// Texts returns the chunk texts in rank order.
func (r *RetrievalResult) Texts() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.RankedChunks))
	for _, c := range r.RankedChunks {
		out = append(out, c.Chunk.Text)
	}
	return out
}

// Package vectorindex adapts external vector databases to
// retrieval.VectorIndex and defines the stored chunk record they share.
package vectorindex

import (
	"encoding/json"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// chunkRecord is the stored form of a chunk, minus its embedding.
type chunkRecord struct {
	ID                 string            `json:"id"`
	Text               string            `json:"text"`
	Title              string            `json:"title,omitempty"`
	Seq                int64             `json:"seq"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	Source             string            `json:"source"`
	Previous           string            `json:"previous,omitempty"`
	Next               string            `json:"next,omitempty"`
	ExcludedEmbedKeys  []string          `json:"excluded_embed_keys,omitempty"`
	ExcludedPromptKeys []string          `json:"excluded_prompt_keys,omitempty"`
}

func recordOf(c *domain.Chunk) chunkRecord {
	return chunkRecord{
		ID:                 c.ID,
		Text:               c.Text,
		Title:              c.Title,
		Seq:                c.Seq,
		Metadata:           c.Metadata,
		Source:             c.Relationships.Source,
		Previous:           c.Relationships.Previous,
		Next:               c.Relationships.Next,
		ExcludedEmbedKeys:  c.ExcludedEmbedKeys,
		ExcludedPromptKeys: c.ExcludedPromptKeys,
	}
}

func (r chunkRecord) chunk() domain.Chunk {
	return domain.Chunk{
		ID:       r.ID,
		Text:     r.Text,
		Title:    r.Title,
		Seq:      r.Seq,
		Metadata: r.Metadata,
		Relationships: domain.Relationships{
			Source:   r.Source,
			Previous: r.Previous,
			Next:     r.Next,
		},
		ExcludedEmbedKeys:  r.ExcludedEmbedKeys,
		ExcludedPromptKeys: r.ExcludedPromptKeys,
	}
}

// MarshalChunk serializes everything but the embedding.
func MarshalChunk(c *domain.Chunk) ([]byte, error) {
	return json.Marshal(recordOf(c))
}

// UnmarshalChunk is the inverse of MarshalChunk.
func UnmarshalChunk(b []byte) (domain.Chunk, error) {
	var r chunkRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.Chunk{}, err
	}
	return r.chunk(), nil
}

func encodeRecord(c *domain.Chunk) (string, error) {
	b, err := MarshalChunk(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecord(s string) (domain.Chunk, error) {
	return UnmarshalChunk([]byte(s))
}

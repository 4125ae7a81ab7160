package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

func TestFormatSources(t *testing.T) {
	meta := map[string]string{
		domain.MetaFileName: "de-an-tuyen-sinh.md",
		domain.MetaFileType: "md",
		domain.MetaLink:     "https://tuyensinh.uit.edu.vn/de-an",
	}
	hits := []domain.ScoredChunk{
		{Chunk: domain.Chunk{ID: "1", Title: "Chỉ tiêu", Metadata: meta, Relationships: domain.Relationships{Source: "doc"}}},
		{Chunk: domain.Chunk{ID: "2", Title: "Học phí", Metadata: meta, Relationships: domain.Relationships{Source: "doc"}}},
		{Chunk: domain.Chunk{ID: "3", Metadata: map[string]string{domain.MetaLink: "https://uit.edu.vn"}, Relationships: domain.Relationships{Source: "other"}}},
	}

	got := FormatSources(hits)
	assert.True(t, strings.HasPrefix(got, "## Nguồn thông tin\n"))
	assert.Equal(t, 1, strings.Count(got, "de-an-tuyen-sinh.md"))
	assert.Contains(t, got, "### Tài liệu 2")
	assert.NotContains(t, got, "### Tài liệu 3")
	assert.Contains(t, got, "**Dạng dữ liệu:** Markdown")
	assert.Contains(t, got, "**Đường dẫn:** https://uit.edu.vn")
}

func TestFormatSources_Empty(t *testing.T) {
	assert.Empty(t, FormatSources(nil))
}

package retrieval

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

var fileTypeLabels = map[string]string{
	string(domain.FileTypeMarkdown): "Markdown",
	string(domain.FileTypeText):     "Văn bản",
	string(domain.FileTypeHTML):     "Trang web",
	string(domain.FileTypeLink):     "Trang web",
	string(domain.FileTypePDF):      "PDF",
	string(domain.FileTypeExcel):    "Bảng tính",
}

// FormatSources renders the attribution section appended to grounded
// answers. Hits from the same document page are listed once.
func FormatSources(hits []domain.ScoredChunk) string {
	var b strings.Builder
	seen := make(map[string]struct{})
	idx := 0
	for _, h := range hits {
		m := h.Chunk.Metadata
		name := m[domain.MetaFileName]
		key := h.Chunk.ParentID() + "\x00" + m[domain.MetaPage]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		idx++

		fmt.Fprintf(&b, "\n### Tài liệu %d\n", idx)
		if name != "" {
			fmt.Fprintf(&b, "**Tên tài liệu:** %s\n", name)
		}
		if h.Chunk.Title != "" {
			fmt.Fprintf(&b, "**Chương:** %s\n", h.Chunk.Title)
		}
		if page := m[domain.MetaPage]; page != "" {
			fmt.Fprintf(&b, "**Trang:** %s\n", page)
		}
		if label, ok := fileTypeLabels[m[domain.MetaFileType]]; ok {
			fmt.Fprintf(&b, "**Dạng dữ liệu:** %s\n", label)
		}
		if link := m[domain.MetaLink]; link != "" {
			fmt.Fprintf(&b, "**Đường dẫn:** %s\n", link)
		}
	}
	if idx == 0 {
		return ""
	}
	return "## Nguồn thông tin\n" + strings.TrimRight(b.String(), "\n")
}

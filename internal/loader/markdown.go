package loader

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// parseMarkdown keeps the markdown source and starts a new page at
// every top-level heading.
func parseMarkdown(source []byte) []domain.Page {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var starts []int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 || h.Lines().Len() == 0 {
			continue
		}
		start := h.Lines().At(0).Start
		// back up to the start of the line so the "# " marker is kept
		if i := bytes.LastIndexByte(source[:start], '\n'); i >= 0 {
			start = i + 1
		} else {
			start = 0
		}
		starts = append(starts, start)
	}

	if len(starts) == 0 || starts[0] != 0 {
		starts = append([]int{0}, starts...)
	}

	var pages []domain.Page
	for i, start := range starts {
		end := len(source)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		body := strings.TrimSpace(string(source[start:end]))
		if body == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: len(pages) + 1, Text: body})
	}
	return pages
}

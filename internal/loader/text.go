package loader

import (
	"strings"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// parseText treats form feeds as page breaks, as in text exported from PDF.
func parseText(raw []byte) []domain.Page {
	var pages []domain.Page
	for i, part := range strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\f") {
		if t := strings.TrimSpace(part); t != "" {
			pages = append(pages, domain.Page{Number: i + 1, Text: t})
		}
	}
	return pages
}

package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// parsePDF extracts the text layer of each page. Pages without text,
// such as scans, are skipped; the page numbers of the rest are kept.
func parsePDF(raw []byte) (pages []domain.Page, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, invalidSource("pdf", fmt.Errorf("%v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, invalidSource("pdf", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, invalidSource("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, domain.Page{Number: i, Text: t})
		}
	}
	return pages, nil
}

func invalidSource(kind string, err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "cannot parse "+kind+" source", err)
}

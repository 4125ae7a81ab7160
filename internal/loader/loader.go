// Package loader fetches source files and turns them into documents.
package loader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// DefaultMaxBytes caps a single fetched file.
const DefaultMaxBytes = 20 << 20

// Source names a file to ingest. URL is an http(s) URL or a local path.
type Source struct {
	PublicID string
	URL      string
	FileName string
	FileType string
}

// Loaded is a parsed document plus the raw bytes it was parsed from.
type Loaded struct {
	Document    *domain.KnowledgeDocument
	Raw         []byte
	ContentType string
}

// Loader fetches and parses sources.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// New creates a loader. A nil client gets a 30 second timeout.
func New(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, maxBytes: DefaultMaxBytes}
}

// Load fetches src and parses it according to its declared type, its
// extension, or the served content type, in that order.
func (l *Loader) Load(ctx context.Context, src Source) (*Loaded, error) {
	if strings.TrimSpace(src.PublicID) == "" {
		return nil, domain.ErrMissingPublicID
	}
	if strings.TrimSpace(src.URL) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	raw, contentType, err := l.fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	fileType, err := detectType(src, contentType)
	if err != nil {
		return nil, err
	}

	fileName := src.FileName
	if fileName == "" {
		fileName = lastPathPart(src.URL)
	}

	pages, err := Parse(fileType, raw)
	if err != nil {
		return nil, err
	}

	return &Loaded{
		Document: &domain.KnowledgeDocument{
			PublicID: src.PublicID,
			Source:   src.URL,
			FileType: fileType,
			FileName: fileName,
			Pages:    pages,
		},
		Raw:         raw,
		ContentType: contentType,
	}, nil
}

// Parse splits raw content of the given type into pages.
func Parse(fileType domain.FileType, raw []byte) ([]domain.Page, error) {
	switch fileType {
	case domain.FileTypeMarkdown:
		return parseMarkdown(raw), nil
	case domain.FileTypeHTML, domain.FileTypeLink:
		return parseHTML(raw)
	case domain.FileTypeText:
		return parseText(raw), nil
	case domain.FileTypePDF:
		return parsePDF(raw)
	case domain.FileTypeExcel:
		return parseExcel(raw)
	}
	return nil, domain.ErrUnsupportedFileType
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, string, error) {
	u, err := url.Parse(location)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return l.readFile(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", domain.Upstream("fetch "+u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", domain.Upstream("fetch "+u.Host, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	raw, err := l.readAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

func (l *Loader) readFile(name string) ([]byte, string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "cannot read source", err)
	}
	defer f.Close()
	raw, err := l.readAll(f)
	if err != nil {
		return nil, "", err
	}
	return raw, mime.TypeByExtension(filepath.Ext(name)), nil
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if int64(len(raw)) > l.maxBytes {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("source exceeds %d bytes", l.maxBytes))
	}
	return raw, nil
}

func detectType(src Source, contentType string) (domain.FileType, error) {
	if src.FileType != "" {
		return domain.ParseFileType(src.FileType)
	}
	for _, name := range []string{src.FileName, urlPath(src.URL)} {
		if ext := path.Ext(name); ext != "" {
			if ft, err := domain.ParseFileType(ext); err == nil {
				return ft, nil
			}
		}
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return domain.FileTypeHTML, nil
	case "text/markdown", "text/x-markdown":
		return domain.FileTypeMarkdown, nil
	case "text/plain":
		return domain.FileTypeText, nil
	case "application/pdf":
		return domain.FileTypePDF, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return domain.FileTypeExcel, nil
	}
	return "", domain.ErrUnsupportedFileType
}

func urlPath(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		return u.Path
	}
	return location
}

func lastPathPart(location string) string {
	p := strings.TrimRight(urlPath(location), "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		if u, err := url.Parse(location); err == nil {
			return u.Host
		}
	}
	return p
}

package domain

import (
	"strings"
	"time"
)

// FileType is the kind of source an ingested document came from.
type FileType string

const (
	FileTypeMarkdown FileType = "md"
	FileTypeText     FileType = "txt"
	FileTypeHTML     FileType = "html"
	FileTypeLink     FileType = "link"
	FileTypePDF      FileType = "pdf"
	FileTypeExcel    FileType = "xlsx"
)

// ParseFileType maps an extension or declared type to a FileType.
func ParseFileType(s string) (FileType, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "md", "markdown":
		return FileTypeMarkdown, nil
	case "txt", "text":
		return FileTypeText, nil
	case "html", "htm":
		return FileTypeHTML, nil
	case "link", "url":
		return FileTypeLink, nil
	case "pdf":
		return FileTypePDF, nil
	case "xlsx", "xlsm", "excel":
		return FileTypeExcel, nil
	}
	return "", ErrUnsupportedFileType
}

// Metadata keys carried by every chunk.
const (
	MetaPublicID = "public_id"
	MetaFileName = "file_name"
	MetaFileType = "file_type"
	MetaLink     = "link"
	MetaPage     = "page"
	MetaTitle    = "title"
	MetaDocID    = "doc_id"
)

// HiddenMetadataKeys are kept out of embeddings and prompts so
// identifiers do not pollute similarity search or generation.
var HiddenMetadataKeys = []string{MetaPublicID, MetaFileName, MetaDocID}

// Page is one addressable section of a source document.
type Page struct {
	Number int
	Text   string
}

// KnowledgeDocument is raw ingested content plus its metadata.
type KnowledgeDocument struct {
	ID       string
	PublicID string
	Source   string
	FileType FileType
	FileName string
	Pages    []Page
}

// Validate checks required fields.
func (d *KnowledgeDocument) Validate() error {
	if strings.TrimSpace(d.PublicID) == "" {
		return ErrMissingPublicID
	}
	if d.ID == "" || d.Source == "" {
		return ErrMissingRequiredField
	}
	if strings.TrimSpace(d.Text()) == "" {
		return ErrEmptyDocument
	}
	return nil
}

// Text joins all pages.
func (d *KnowledgeDocument) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Metadata is inherited by every chunk of the document.
func (d *KnowledgeDocument) Metadata() map[string]string {
	return map[string]string{
		MetaPublicID: d.PublicID,
		MetaFileName: d.FileName,
		MetaFileType: string(d.FileType),
		MetaLink:     d.Source,
		MetaDocID:    d.ID,
	}
}

// FileRecord is the persisted record of an ingested file.
type FileRecord struct {
	PublicID   string
	URL        string
	FileName   string
	FileType   FileType
	ObjectKey  string
	DocumentID string
	ChunkCount int
	CreatedAt  time.Time
}

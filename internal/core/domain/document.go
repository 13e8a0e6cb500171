package domain

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// MaxUploadBytes is the ceiling for a single uploaded document.
const MaxUploadBytes int64 = 10 << 20

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/bmp":       {},
	"application/pdf": {},
	"image/tiff":      {},
	"image/heic":      {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
}

// mimeTypesByExtension resolves supported file extensions without consulting
// the host's mime.types table, which disagrees across systems (.heic is
// image/heif on Debian).
var mimeTypesByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".bmp":  "image/bmp",
	".pdf":  "application/pdf",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".heif": "image/heic",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// MimeTypeForFileName returns the MIME type of a supported document by its
// extension, or "" when the extension is not supported.
func MimeTypeForFileName(name string) string {
	return mimeTypesByExtension[strings.ToLower(filepath.Ext(name))]
}

func IsAllowedMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	_, ok := allowedMimeTypes[mimeType]
	return ok
}

func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only processing -> completed and processing -> failed are legal.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == StatusProcessing && next.IsTerminal()
}

type Document struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"user_id"`
	FileName      string          `json:"file_name"`
	FileType      string          `json:"file_type"`
	FileSize      int64           `json:"file_size"`
	FilePath      string          `json:"file_path"`
	PublicURL     string          `json:"public_url"`
	Status        DocumentStatus  `json:"status"`
	ParsedContent string          `json:"parsed_content,omitempty"`
	ParsedHTML    string          `json:"parsed_html,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	FailureReason string          `json:"error,omitempty"`
	PageCount     int             `json:"page_count,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ExtractedText returns the parsed text, falling back to metadata.content.text
// when the direct field is empty.
func (d *Document) ExtractedText() string {
	if d == nil {
		return ""
	}
	if strings.TrimSpace(d.ParsedContent) != "" {
		return d.ParsedContent
	}
	if len(d.Metadata) == 0 {
		return ""
	}
	var meta struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(d.Metadata, &meta); err != nil {
		return ""
	}
	return meta.Content.Text
}

// ParsedDocument is what the OCR provider returns for one file.
type ParsedDocument struct {
	Text     string
	HTML     string
	Metadata json.RawMessage
}

// DocumentStatusEvent is published on every lifecycle change of a document.
type DocumentStatusEvent struct {
	DocumentID string         `json:"document_id"`
	OwnerID    string         `json:"user_id"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

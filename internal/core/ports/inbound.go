package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

// UploadRequest carries one uploaded file. Size is the declared size, 0 when unknown.
type UploadRequest struct {
	FileName string
	MimeType string
	Size     int64
	Body     io.Reader
}

// IngestResult is returned once a synchronous upload reaches a terminal state.
type IngestResult struct {
	DocumentID string           `json:"document_id"`
	Text       string           `json:"text"`
	Document   *domain.Document `json:"document"`
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, principal domain.Principal, req UploadRequest) (*IngestResult, error)
	Submit(ctx context.Context, principal domain.Principal, req UploadRequest) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	Get(ctx context.Context, principal domain.Principal, id string) (*domain.Document, error)
	List(ctx context.Context, principal domain.Principal) ([]domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) error
}

// WatchOutcome is the terminal observation of a watched document.
type WatchOutcome struct {
	DocumentID     string                `json:"document_id"`
	Status         domain.DocumentStatus `json:"status"`
	Text           string                `json:"text,omitempty"`
	FailureMessage string                `json:"error,omitempty"`
}

// DocumentWaiter blocks until a document reaches a terminal status.
type DocumentWaiter interface {
	WaitForTerminal(ctx context.Context, principal domain.Principal, documentID string) (WatchOutcome, error)
}

// JournalService is the inbound contract for writing and reading journal entries.
type JournalService interface {
	Preview(ctx context.Context, content string) (domain.AnalysisOutcome, error)
	CreateFromText(ctx context.Context, principal domain.Principal, content string) (*SavedEntry, error)
	SaveAnalyzed(ctx context.Context, principal domain.Principal, content string, result domain.AnalysisResult) (*SavedEntry, error)
	ConfirmDocument(ctx context.Context, principal domain.Principal, documentID, editedContent string) (*SavedEntry, error)
	ListEntries(ctx context.Context, principal domain.Principal, filter domain.EntryFilter) ([]domain.ResolvedEntry, error)
	GetEntry(ctx context.Context, principal domain.Principal, id string) (domain.ResolvedEntry, error)
}

// SavedEntry pairs a persisted entry with how its analysis was obtained.
type SavedEntry struct {
	Entry    domain.ResolvedEntry `json:"entry"`
	Degraded bool                 `json:"degraded"`
}

// InsightsService computes dashboard read models.
type InsightsService interface {
	MoodTrends(ctx context.Context, principal domain.Principal, rangeKey string) (domain.MoodTrends, error)
	Calendar(ctx context.Context, principal domain.Principal, month time.Time) ([]domain.CalendarDay, error)
	Summary(ctx context.Context, principal domain.Principal) (domain.DashboardSummary, error)
	Export(ctx context.Context, principal domain.Principal, w io.Writer) error
}

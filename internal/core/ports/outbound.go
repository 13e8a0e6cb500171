package ports

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

// DocumentRepository persists and reads uploaded document state.
// MarkCompleted and MarkFailed only apply to documents still processing.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Document, error)
	MarkCompleted(ctx context.Context, id string, parsed domain.ParsedDocument) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// EntryRepository persists journal entries.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.JournalEntry, error)
	List(ctx context.Context, ownerID string, filter domain.EntryFilter) ([]domain.JournalEntry, error)
	Count(ctx context.Context, ownerID string) (int, error)
}

// TaxonomyRepository manages emotion and theme labels and their entry links.
type TaxonomyRepository interface {
	FindByName(ctx context.Context, kind domain.TaxonomyKind, name string) (domain.Label, bool, error)
	Create(ctx context.Context, kind domain.TaxonomyKind, name string) (domain.Label, error)
	Link(ctx context.Context, kind domain.TaxonomyKind, entryID, labelID string) error
	ListForEntries(ctx context.Context, kind domain.TaxonomyKind, entryIDs []string) (map[string][]domain.Label, error)
}

// UserRepository makes sure the acting principal has an identity row.
type UserRepository interface {
	EnsureUser(ctx context.Context, principal domain.Principal) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

// DocumentParser sends a file to the OCR/document-digitization provider.
type DocumentParser interface {
	ParseDocument(ctx context.Context, fileName, mimeType string, data []byte) (domain.ParsedDocument, error)
}

// PageCounter reports the number of pages in a document, when the format has pages.
type PageCounter interface {
	CountPages(mimeType string, data []byte) (int, error)
}

// MoodAnalysis is a validated provider analysis plus the provider's raw response body.
type MoodAnalysis struct {
	Result      domain.AnalysisResult
	APIResponse json.RawMessage
}

// MoodProvider asks the hosted model to score a journal text. Any transport,
// parse or validation problem is returned as an error.
type MoodProvider interface {
	AnalyzeMood(ctx context.Context, text string) (MoodAnalysis, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// Subscription is a scoped change-notification channel.
type Subscription interface {
	Unsubscribe() error
}

// StatusNotifier fans out document lifecycle changes.
type StatusNotifier interface {
	PublishDocumentStatus(ctx context.Context, event domain.DocumentStatusEvent) error
	SubscribeDocumentStatus(ctx context.Context, documentID string, handler func(domain.DocumentStatusEvent)) (Subscription, error)
}

// EntryExporter renders resolved entries into a downloadable workbook.
type EntryExporter interface {
	Export(w io.Writer, entries []domain.ResolvedEntry, trends domain.MoodTrends) error
}

// PipelineObserver records stage outcomes. Implementations must be safe for concurrent use.
type PipelineObserver interface {
	ObserveIngest(status domain.DocumentStatus, duration time.Duration)
	ObserveAnalysis(degraded bool, duration time.Duration)
	ObserveEntrySaved()
	ObserveLinkFailure(kind domain.TaxonomyKind)
}

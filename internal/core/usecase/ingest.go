package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	parser   ports.DocumentParser
	pages    ports.PageCounter
	queue    ports.MessageQueue
	notifier ports.StatusNotifier
	observer ports.PipelineObserver
	logger   *slog.Logger
	now      func() time.Time
}

// IngestOptions carries the optional collaborators. A nil queue disables
// asynchronous submission; a nil notifier disables status events.
type IngestOptions struct {
	PageCounter ports.PageCounter
	Queue       ports.MessageQueue
	Notifier    ports.StatusNotifier
	Observer    ports.PipelineObserver
	Logger      *slog.Logger
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	parser ports.DocumentParser,
	options IngestOptions,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:     repo,
		storage:  storage,
		parser:   parser,
		pages:    options.PageCounter,
		queue:    options.Queue,
		notifier: options.Notifier,
		observer: observerOrNoop(options.Observer),
		logger:   loggerOrDefault(options.Logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores the file, records it as processing and parses it synchronously.
// The returned error, if any, is also recorded on the document as its failure reason.
func (uc *IngestDocumentUseCase) Upload(ctx context.Context, principal domain.Principal, req ports.UploadRequest) (*ports.IngestResult, error) {
	started := time.Now()
	doc, data, err := uc.accept(ctx, principal, req)
	if err != nil {
		return nil, err
	}

	err = uc.parse(ctx, doc, data)
	uc.observer.ObserveIngest(doc.Status, time.Since(started))
	if err != nil {
		return nil, err
	}
	return &ports.IngestResult{DocumentID: doc.ID, Text: doc.ExtractedText(), Document: doc}, nil
}

// Submit stores the file and hands parsing to a worker.
func (uc *IngestDocumentUseCase) Submit(ctx context.Context, principal domain.Principal, req ports.UploadRequest) (*domain.Document, error) {
	if uc.queue == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit document", errors.New("asynchronous ingestion is not configured"))
	}
	doc, _, err := uc.accept(ctx, principal, req)
	if err != nil {
		return nil, err
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		uc.fail(ctx, doc, err)
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}
	return doc, nil
}

// Process parses a previously submitted document. Redelivered jobs for
// documents that already reached a terminal status are ignored.
func (uc *IngestDocumentUseCase) Process(ctx context.Context, documentID string) error {
	started := time.Now()
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.Status.IsTerminal() {
		uc.logger.Info("document_already_terminal", "document_id", doc.ID, "status", doc.Status)
		return nil
	}

	data, err := uc.readBlob(ctx, doc.FilePath)
	if err != nil {
		uc.fail(ctx, doc, err)
		uc.observer.ObserveIngest(doc.Status, time.Since(started))
		return err
	}

	err = uc.parse(ctx, doc, data)
	uc.observer.ObserveIngest(doc.Status, time.Since(started))
	return err
}

func (uc *IngestDocumentUseCase) Get(ctx context.Context, principal domain.Principal, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != principal.UserID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
	}
	return doc, nil
}

func (uc *IngestDocumentUseCase) List(ctx context.Context, principal domain.Principal) ([]domain.Document, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	docs, err := uc.repo.ListByOwner(ctx, principal.UserID, 200)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// accept validates the upload, writes the blob and inserts the processing record.
func (uc *IngestDocumentUseCase) accept(ctx context.Context, principal domain.Principal, req ports.UploadRequest) (*domain.Document, []byte, error) {
	if err := principal.Validate(); err != nil {
		return nil, nil, err
	}
	data, err := readUpload(req)
	if err != nil {
		return nil, nil, err
	}

	storageKey := fmt.Sprintf("%s/%s-%s", sanitizeKeySegment(principal.UserID), uuid.NewString(), sanitizeFilename(req.FileName))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := uc.now()
	doc := &domain.Document{
		ID:        uuid.NewString(),
		OwnerID:   principal.UserID,
		FileName:  req.FileName,
		FileType:  req.MimeType,
		FileSize:  int64(len(data)),
		FilePath:  storageKey,
		PublicURL: uc.storage.PublicURL(storageKey),
		Status:    domain.StatusProcessing,
		PageCount: uc.countPages(req.MimeType, data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("create document metadata: %w", err)
	}
	uc.publishStatus(ctx, doc)
	return doc, data, nil
}

func (uc *IngestDocumentUseCase) parse(ctx context.Context, doc *domain.Document, data []byte) error {
	parsed, err := uc.parser.ParseDocument(ctx, doc.FileName, doc.FileType, data)
	if err != nil {
		uc.fail(ctx, doc, err)
		return fmt.Errorf("parse document: %w", err)
	}

	if err := uc.repo.MarkCompleted(ctx, doc.ID, parsed); err != nil {
		if domain.IsKind(err, domain.ErrInvalidTransition) {
			return err
		}
		uc.fail(ctx, doc, err)
		return fmt.Errorf("mark document completed: %w", err)
	}

	doc.Status = domain.StatusCompleted
	doc.ParsedContent = parsed.Text
	doc.ParsedHTML = parsed.HTML
	doc.Metadata = parsed.Metadata
	doc.UpdatedAt = uc.now()
	uc.publishStatus(ctx, doc)
	return nil
}

// fail records cause as the document's failure reason. It runs even when ctx
// was canceled so a document never stays processing because its caller left.
func (uc *IngestDocumentUseCase) fail(ctx context.Context, doc *domain.Document, cause error) {
	reason := cause.Error()
	ctx = context.WithoutCancel(ctx)
	if err := uc.repo.MarkFailed(ctx, doc.ID, reason); err != nil {
		uc.logger.Error("mark_document_failed_error", "document_id", doc.ID, "cause", reason, "error", err)
		return
	}
	doc.Status = domain.StatusFailed
	doc.FailureReason = reason
	doc.UpdatedAt = uc.now()
	uc.publishStatus(ctx, doc)
}

func (uc *IngestDocumentUseCase) publishStatus(ctx context.Context, doc *domain.Document) {
	if uc.notifier == nil {
		return
	}
	event := domain.DocumentStatusEvent{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Status:     doc.Status,
		Error:      doc.FailureReason,
		OccurredAt: uc.now(),
	}
	if err := uc.notifier.PublishDocumentStatus(ctx, event); err != nil {
		uc.logger.Warn("publish_status_failed", "document_id", doc.ID, "status", doc.Status, "error", err)
	}
}

func (uc *IngestDocumentUseCase) readBlob(ctx context.Context, key string) ([]byte, error) {
	reader, err := uc.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, domain.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	return data, nil
}

func (uc *IngestDocumentUseCase) countPages(mimeType string, data []byte) int {
	if uc.pages == nil {
		return 0
	}
	pages, err := uc.pages.CountPages(mimeType, data)
	if err != nil {
		uc.logger.Debug("page_count_unavailable", "mime_type", mimeType, "error", err)
		return 0
	}
	return pages
}

func readUpload(req ports.UploadRequest) ([]byte, error) {
	limitMB := domain.MaxUploadBytes >> 20
	if req.Size > domain.MaxUploadBytes {
		return nil, domain.WrapError(domain.ErrFileTooLarge, "validate upload", fmt.Errorf("%d bytes exceeds the %d MB limit", req.Size, limitMB))
	}
	if !domain.IsAllowedMimeType(req.MimeType) {
		return nil, domain.WrapError(domain.ErrUnsupportedFileType, "validate upload", fmt.Errorf("%q is not an accepted document type", req.MimeType))
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("file body is required"))
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, domain.MaxUploadBytes+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	if int64(len(data)) > domain.MaxUploadBytes {
		return nil, domain.WrapError(domain.ErrFileTooLarge, "validate upload", fmt.Errorf("file exceeds the %d MB limit", limitMB))
	}
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("file is empty"))
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	for strings.Contains(base, "..") {
		base = strings.ReplaceAll(base, "..", ".")
	}
	base = strings.TrimLeft(base, ".")
	if base == "" {
		return "document.bin"
	}
	return base
}

func sanitizeKeySegment(value string) string {
	segment := sanitizeFilename(value)
	if segment == "document.bin" {
		return "anonymous"
	}
	return segment
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, user_id, file_name, file_type, file_size, file_path, public_url, status,
	parsed_content, parsed_html, metadata, error_message, page_count, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO journal_documents (`+documentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		doc.ID, doc.OwnerID, doc.FileName, doc.FileType, doc.FileSize, doc.FilePath, doc.PublicURL, string(doc.Status),
		nullString(doc.ParsedContent), nullString(doc.ParsedHTML), nullableJSON(doc.Metadata), nullString(doc.FailureReason),
		doc.PageCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM journal_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM journal_documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) MarkCompleted(ctx context.Context, id string, parsed domain.ParsedDocument) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE journal_documents
SET status = $2, parsed_content = $3, parsed_html = $4, metadata = $5, error_message = NULL, updated_at = $6
WHERE id = $1 AND status = 'processing'
`, id, string(domain.StatusCompleted), parsed.Text, parsed.HTML, nullableJSON(parsed.Metadata), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}
	return r.ensureTransitioned(ctx, result, id, domain.StatusCompleted)
}

func (r *DocumentRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE journal_documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1 AND status = 'processing'
`, id, string(domain.StatusFailed), reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark document failed: %w", err)
	}
	return r.ensureTransitioned(ctx, result, id, domain.StatusFailed)
}

// ensureTransitioned tells a missing document apart from one that already
// reached a terminal status.
func (r *DocumentRepository) ensureTransitioned(ctx context.Context, result sql.Result, id string, next domain.DocumentStatus) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM journal_documents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id=%s", id))
	}
	if err != nil {
		return fmt.Errorf("read document status: %w", err)
	}
	return domain.WrapError(domain.ErrInvalidTransition, "update document status", fmt.Errorf("%s -> %s", current, next))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var parsedContent, parsedHTML, errorMessage sql.NullString
	var metadata []byte

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.FileName, &doc.FileType, &doc.FileSize, &doc.FilePath, &doc.PublicURL, &status,
		&parsedContent, &parsedHTML, &metadata, &errorMessage, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Status = domain.DocumentStatus(status)
	doc.ParsedContent = parsedContent.String
	doc.ParsedHTML = parsedHTML.String
	doc.FailureReason = errorMessage.String
	if len(metadata) > 0 {
		doc.Metadata = json.RawMessage(metadata)
	}
	return &doc, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

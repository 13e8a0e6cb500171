package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entryColumns = `id, user_id, content, mood_score, analysis_data, created_at`

func (r *EntryRepository) Create(ctx context.Context, entry *domain.JournalEntry) error {
	var analysisJSON []byte
	if entry.AnalysisData != nil {
		raw, err := json.Marshal(entry.AnalysisData)
		if err != nil {
			return fmt.Errorf("marshal analysis data: %w", err)
		}
		analysisJSON = raw
	}

	var moodScore sql.NullInt64
	if entry.MoodScore != nil {
		moodScore = sql.NullInt64{Int64: int64(*entry.MoodScore), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO journal_entries (`+entryColumns+`)
VALUES ($1,$2,$3,$4,$5,$6)
`, entry.ID, entry.OwnerID, entry.Content, moodScore, nullableJSON(analysisJSON), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+entryColumns+`
FROM journal_entries
WHERE id = $1 AND user_id = $2
`, id, ownerID)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrEntryNotFound, "get journal entry", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return entry, nil
}

func (r *EntryRepository) List(ctx context.Context, ownerID string, filter domain.EntryFilter) ([]domain.JournalEntry, error) {
	clauses := []string{"user_id = $1"}
	args := []any{ownerID}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	query := `
SELECT ` + entryColumns + `
FROM journal_entries
WHERE ` + strings.Join(clauses, " AND ") + `
ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf("\nLIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return out, nil
}

func (r *EntryRepository) Count(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE user_id = $1`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return count, nil
}

func scanEntry(row rowScanner) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var moodScore sql.NullInt64
	var analysisRaw []byte

	if err := row.Scan(&entry.ID, &entry.OwnerID, &entry.Content, &moodScore, &analysisRaw, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}

	if moodScore.Valid {
		score := int(moodScore.Int64)
		entry.MoodScore = &score
	}
	if len(analysisRaw) > 0 && string(analysisRaw) != "null" {
		var data domain.AnalysisData
		// Rows written by older clients may carry a differently shaped payload;
		// those resolve through the column and join tables instead.
		if err := json.Unmarshal(analysisRaw, &data); err == nil {
			entry.AnalysisData = &data
		}
	}
	return &entry, nil
}

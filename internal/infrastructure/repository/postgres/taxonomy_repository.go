package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

type TaxonomyRepository struct {
	db *sql.DB
}

func NewTaxonomyRepository(db *sql.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

type taxonomyTables struct {
	labels    string
	join      string
	joinLabel string
}

func tablesFor(kind domain.TaxonomyKind) (taxonomyTables, error) {
	switch kind {
	case domain.TaxonomyEmotion:
		return taxonomyTables{labels: "emotions", join: "entry_emotions", joinLabel: "emotion_id"}, nil
	case domain.TaxonomyTheme:
		return taxonomyTables{labels: "themes", join: "entry_themes", joinLabel: "theme_id"}, nil
	default:
		return taxonomyTables{}, domain.WrapError(domain.ErrInvalidInput, "taxonomy", fmt.Errorf("unknown kind %q", kind))
	}
}

func (r *TaxonomyRepository) FindByName(ctx context.Context, kind domain.TaxonomyKind, name string) (domain.Label, bool, error) {
	tables, err := tablesFor(kind)
	if err != nil {
		return domain.Label{}, false, err
	}

	var label domain.Label
	err = r.db.QueryRowContext(ctx, `SELECT id, name FROM `+tables.labels+` WHERE name = $1`, name).
		Scan(&label.ID, &label.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Label{}, false, nil
	}
	if err != nil {
		return domain.Label{}, false, fmt.Errorf("find %s: %w", kind, err)
	}
	return label, true, nil
}

// Create inserts a label. A concurrent insert of the same name resolves to
// the row that won, so names stay unique.
func (r *TaxonomyRepository) Create(ctx context.Context, kind domain.TaxonomyKind, name string) (domain.Label, error) {
	tables, err := tablesFor(kind)
	if err != nil {
		return domain.Label{}, err
	}

	var label domain.Label
	err = r.db.QueryRowContext(ctx, `
INSERT INTO `+tables.labels+` (id, name, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`, uuid.NewString(), name, time.Now().UTC()).Scan(&label.ID, &label.Name)
	if err != nil {
		return domain.Label{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return label, nil
}

func (r *TaxonomyRepository) Link(ctx context.Context, kind domain.TaxonomyKind, entryID, labelID string) error {
	tables, err := tablesFor(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO `+tables.join+` (entry_id, `+tables.joinLabel+`)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, entryID, labelID)
	if err != nil {
		return fmt.Errorf("link %s: %w", kind, err)
	}
	return nil
}

func (r *TaxonomyRepository) ListForEntries(ctx context.Context, kind domain.TaxonomyKind, entryIDs []string) (map[string][]domain.Label, error) {
	out := make(map[string][]domain.Label, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	tables, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(entryIDs))
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT j.entry_id, l.id, l.name
FROM `+tables.join+` j
JOIN `+tables.labels+` l ON l.id = j.`+tables.joinLabel+`
WHERE j.entry_id IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY l.name
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s links: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID string
		var label domain.Label
		if err := rows.Scan(&entryID, &label.ID, &label.Name); err != nil {
			return nil, fmt.Errorf("scan %s link: %w", kind, err)
		}
		out[entryID] = append(out[entryID], label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s links: %w", kind, err)
	}
	return out, nil
}

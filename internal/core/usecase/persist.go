package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

var apiResponseErrorMarker = json.RawMessage(`{"error":"Could not serialize API response"}`)

// SaveEntryUseCase persists a journal entry and links its emotions and themes.
type SaveEntryUseCase struct {
	users    ports.UserRepository
	entries  ports.EntryRepository
	taxonomy ports.TaxonomyRepository
	observer ports.PipelineObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewSaveEntryUseCase(
	users ports.UserRepository,
	entries ports.EntryRepository,
	taxonomy ports.TaxonomyRepository,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *SaveEntryUseCase {
	return &SaveEntryUseCase{
		users:    users,
		entries:  entries,
		taxonomy: taxonomy,
		observer: observerOrNoop(observer),
		logger:   loggerOrDefault(logger),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Save inserts the entry and then links labels one at a time. Only the entry
// insert is fatal; a label that cannot be looked up, created or linked is
// logged and skipped.
func (uc *SaveEntryUseCase) Save(ctx context.Context, principal domain.Principal, content string, outcome domain.AnalysisOutcome) (*domain.JournalEntry, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save entry", errors.New("content is required"))
	}

	if err := uc.users.EnsureUser(ctx, principal); err != nil {
		uc.logger.Warn("ensure_user_failed", "user_id", principal.UserID, "error", err)
	}

	result := outcome.Result.Normalized()
	score := result.MoodScore
	entry := &domain.JournalEntry{
		ID:        uuid.NewString(),
		OwnerID:   principal.UserID,
		Content:   content,
		MoodScore: &score,
		AnalysisData: &domain.AnalysisData{
			Analysis:    &result,
			APIResponse: sanitizeAPIResponse(outcome.APIResponse),
		},
		CreatedAt: uc.now(),
	}
	if err := uc.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("save journal entry: %w", err)
	}
	uc.observer.ObserveEntrySaved()

	entry.Emotions = uc.linkLabels(ctx, entry.ID, domain.TaxonomyEmotion, result.Emotions)
	entry.Themes = uc.linkLabels(ctx, entry.ID, domain.TaxonomyTheme, result.Themes)
	return entry, nil
}

func (uc *SaveEntryUseCase) linkLabels(ctx context.Context, entryID string, kind domain.TaxonomyKind, names []string) []domain.Label {
	linked := make([]domain.Label, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		label, err := uc.linkLabel(ctx, entryID, kind, name)
		if err != nil {
			uc.observer.ObserveLinkFailure(kind)
			uc.logger.Warn("taxonomy_link_failed", "entry_id", entryID, "kind", kind, "name", name, "error", err)
			continue
		}
		linked = append(linked, label)
	}
	return linked
}

func (uc *SaveEntryUseCase) linkLabel(ctx context.Context, entryID string, kind domain.TaxonomyKind, name string) (domain.Label, error) {
	label, found, err := uc.taxonomy.FindByName(ctx, kind, name)
	if err != nil {
		return domain.Label{}, fmt.Errorf("find %s: %w", kind, err)
	}
	if !found {
		label, err = uc.taxonomy.Create(ctx, kind, name)
		if err != nil {
			return domain.Label{}, fmt.Errorf("create %s: %w", kind, err)
		}
	}
	if err := uc.taxonomy.Link(ctx, kind, entryID, label.ID); err != nil {
		return domain.Label{}, fmt.Errorf("link %s: %w", kind, err)
	}
	return label, nil
}

// sanitizeAPIResponse re-encodes the raw provider body. Empty input is stored
// as null and anything that is not valid JSON is replaced with an error marker.
func sanitizeAPIResponse(raw json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return apiResponseErrorMarker
	}
	return json.RawMessage(buf.Bytes())
}

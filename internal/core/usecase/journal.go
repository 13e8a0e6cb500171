package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const defaultEntryListLimit = 100

var errEmptyContent = errors.New("content is required")

// JournalUseCase composes analysis and persistence into the user-facing
// journal flows.
type JournalUseCase struct {
	analyzer  *AnalyzeMoodUseCase
	saver     *SaveEntryUseCase
	documents ports.DocumentRepository
	entries   ports.EntryRepository
	taxonomy  ports.TaxonomyRepository
}

func NewJournalUseCase(
	analyzer *AnalyzeMoodUseCase,
	saver *SaveEntryUseCase,
	documents ports.DocumentRepository,
	entries ports.EntryRepository,
	taxonomy ports.TaxonomyRepository,
) *JournalUseCase {
	return &JournalUseCase{
		analyzer:  analyzer,
		saver:     saver,
		documents: documents,
		entries:   entries,
		taxonomy:  taxonomy,
	}
}

// Preview runs analysis without saving anything.
func (uc *JournalUseCase) Preview(ctx context.Context, content string) (domain.AnalysisOutcome, error) {
	if strings.TrimSpace(content) == "" {
		return domain.AnalysisOutcome{}, domain.WrapError(domain.ErrInvalidInput, "preview analysis", errEmptyContent)
	}
	return uc.analyzer.Analyze(ctx, content), nil
}

func (uc *JournalUseCase) CreateFromText(ctx context.Context, principal domain.Principal, content string) (*ports.SavedEntry, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create entry", errEmptyContent)
	}
	return uc.analyzeAndSave(ctx, principal, content)
}

// SaveAnalyzed persists a result the caller already holds, typically one
// returned by Preview and possibly edited.
func (uc *JournalUseCase) SaveAnalyzed(ctx context.Context, principal domain.Principal, content string, result domain.AnalysisResult) (*ports.SavedEntry, error) {
	entry, err := uc.saver.Save(ctx, principal, content, domain.AnalysisOutcome{Result: result})
	if err != nil {
		return nil, err
	}
	return &ports.SavedEntry{Entry: domain.ResolveEntry(*entry)}, nil
}

// ConfirmDocument turns a completed document into a journal entry. Edited
// content wins over the extracted text when it is not blank.
func (uc *JournalUseCase) ConfirmDocument(ctx context.Context, principal domain.Principal, documentID, editedContent string) (*ports.SavedEntry, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != principal.UserID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "confirm document", fmt.Errorf("id=%s", documentID))
	}
	if doc.Status != domain.StatusCompleted {
		return nil, domain.WrapError(domain.ErrInvalidTransition, "confirm document", fmt.Errorf("document is %s", doc.Status))
	}

	content := editedContent
	if strings.TrimSpace(content) == "" {
		content = doc.ExtractedText()
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "confirm document", errors.New("document has no extracted text"))
	}
	return uc.analyzeAndSave(ctx, principal, content)
}

func (uc *JournalUseCase) ListEntries(ctx context.Context, principal domain.Principal, filter domain.EntryFilter) ([]domain.ResolvedEntry, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultEntryListLimit
	}
	return loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, filter)
}

func (uc *JournalUseCase) GetEntry(ctx context.Context, principal domain.Principal, id string) (domain.ResolvedEntry, error) {
	if err := principal.Validate(); err != nil {
		return domain.ResolvedEntry{}, err
	}
	entry, err := uc.entries.GetByID(ctx, principal.UserID, id)
	if err != nil {
		return domain.ResolvedEntry{}, err
	}
	resolved, err := resolveEntries(ctx, uc.taxonomy, []domain.JournalEntry{*entry})
	if err != nil {
		return domain.ResolvedEntry{}, err
	}
	return resolved[0], nil
}

func (uc *JournalUseCase) analyzeAndSave(ctx context.Context, principal domain.Principal, content string) (*ports.SavedEntry, error) {
	outcome := uc.analyzer.Analyze(ctx, content)
	entry, err := uc.saver.Save(ctx, principal, content, outcome)
	if err != nil {
		return nil, err
	}
	return &ports.SavedEntry{Entry: domain.ResolveEntry(*entry), Degraded: outcome.Degraded}, nil
}

func loadResolvedEntries(ctx context.Context, entries ports.EntryRepository, taxonomy ports.TaxonomyRepository, ownerID string, filter domain.EntryFilter) ([]domain.ResolvedEntry, error) {
	list, err := entries.List(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return resolveEntries(ctx, taxonomy, list)
}

// resolveEntries loads join-table labels for entries that carry no embedded
// analysis and runs every entry through domain.ResolveEntry.
func resolveEntries(ctx context.Context, taxonomy ports.TaxonomyRepository, list []domain.JournalEntry) ([]domain.ResolvedEntry, error) {
	missing := make([]string, 0)
	for _, entry := range list {
		if entry.AnalysisData == nil || entry.AnalysisData.Analysis == nil {
			missing = append(missing, entry.ID)
		}
	}

	if len(missing) > 0 {
		emotions, err := taxonomy.ListForEntries(ctx, domain.TaxonomyEmotion, missing)
		if err != nil {
			return nil, err
		}
		themes, err := taxonomy.ListForEntries(ctx, domain.TaxonomyTheme, missing)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if labels, ok := emotions[list[i].ID]; ok {
				list[i].Emotions = labels
			}
			if labels, ok := themes[list[i].ID]; ok {
				list[i].Themes = labels
			}
		}
	}

	out := make([]domain.ResolvedEntry, 0, len(list))
	for _, entry := range list {
		out = append(out, domain.ResolveEntry(entry))
	}
	return out, nil
}

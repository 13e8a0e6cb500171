package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

type journalFake struct {
	principal domain.Principal
	filter    domain.EntryFilter
	saveErr   error
}

func (f *journalFake) Preview(_ context.Context, content string) (domain.AnalysisOutcome, error) {
	return domain.AnalysisOutcome{Result: domain.AnalysisResult{MoodScore: 64, Summary: content}}, nil
}

func (f *journalFake) CreateFromText(_ context.Context, principal domain.Principal, content string) (*ports.SavedEntry, error) {
	f.principal = principal
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &ports.SavedEntry{Entry: domain.ResolvedEntry{ID: "entry-1", Content: content, MoodScore: 64}}, nil
}

func (f *journalFake) SaveAnalyzed(context.Context, domain.Principal, string, domain.AnalysisResult) (*ports.SavedEntry, error) {
	return nil, errors.New("not used")
}

func (f *journalFake) ConfirmDocument(context.Context, domain.Principal, string, string) (*ports.SavedEntry, error) {
	return nil, errors.New("not used")
}

func (f *journalFake) ListEntries(_ context.Context, principal domain.Principal, filter domain.EntryFilter) ([]domain.ResolvedEntry, error) {
	f.principal = principal
	f.filter = filter
	return []domain.ResolvedEntry{{ID: "entry-1"}, {ID: "entry-2"}}, nil
}

func (f *journalFake) GetEntry(context.Context, domain.Principal, string) (domain.ResolvedEntry, error) {
	return domain.ResolvedEntry{}, errors.New("not used")
}

type insightsFake struct{}

func (insightsFake) MoodTrends(_ context.Context, _ domain.Principal, rangeKey string) (domain.MoodTrends, error) {
	if rangeKey == "" {
		rangeKey = "30d"
	}
	return domain.MoodTrends{Range: rangeKey}, nil
}

func (insightsFake) Calendar(context.Context, domain.Principal, time.Time) ([]domain.CalendarDay, error) {
	return nil, nil
}

func (insightsFake) Summary(context.Context, domain.Principal) (domain.DashboardSummary, error) {
	return domain.DashboardSummary{TotalEntries: 7, StreakDays: 2}, nil
}

func (insightsFake) Export(context.Context, domain.Principal, io.Writer) error {
	return nil
}

func newRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestSaveEntryUsesConfiguredPrincipal(t *testing.T) {
	journal := &journalFake{}
	owner := domain.Principal{UserID: "owner-1", Email: "owner@example.com"}
	s := New("test", journal, insightsFake{}, owner, nil)

	result, err := s.saveEntry(context.Background(), newRequest("save_entry", map[string]any{"content": "Slept well"}))
	if err != nil {
		t.Fatalf("saveEntry() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	var saved ports.SavedEntry
	if err := json.Unmarshal([]byte(resultText(t, result)), &saved); err != nil {
		t.Fatalf("decode saved entry: %v", err)
	}
	if saved.Entry.Content != "Slept well" {
		t.Fatalf("unexpected saved content %q", saved.Entry.Content)
	}
	if journal.principal.UserID != "owner-1" {
		t.Fatalf("expected owner principal, got %+v", journal.principal)
	}
}

func TestSaveEntryRequiresContent(t *testing.T) {
	s := New("test", &journalFake{}, insightsFake{}, domain.DemoPrincipal(), time.UTC)

	result, err := s.saveEntry(context.Background(), newRequest("save_entry", map[string]any{}))
	if err != nil {
		t.Fatalf("saveEntry() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing content")
	}
}

func TestSaveEntryReportsFailureAsToolError(t *testing.T) {
	journal := &journalFake{saveErr: errors.New("database unavailable")}
	s := New("test", journal, insightsFake{}, domain.DemoPrincipal(), time.UTC)

	result, err := s.saveEntry(context.Background(), newRequest("save_entry", map[string]any{"content": "x"}))
	if err != nil {
		t.Fatalf("saveEntry() error = %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "database unavailable") {
		t.Fatalf("expected tool error mentioning cause, got %+v", result)
	}
}

func TestListEntriesParsesDates(t *testing.T) {
	journal := &journalFake{}
	s := New("test", journal, insightsFake{}, domain.DemoPrincipal(), time.UTC)

	result, err := s.listEntries(context.Background(), newRequest("list_entries", map[string]any{
		"from":  "2026-05-01",
		"to":    "2026-05-02",
		"limit": float64(10),
	}))
	if err != nil {
		t.Fatalf("listEntries() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !journal.filter.To.Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected inclusive end date, got %v", journal.filter.To)
	}
	if journal.filter.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", journal.filter.Limit)
	}

	var entries []domain.ResolvedEntry
	if err := json.Unmarshal([]byte(resultText(t, result)), &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	result, err = s.listEntries(context.Background(), newRequest("list_entries", map[string]any{"from": "last week"}))
	if err != nil {
		t.Fatalf("listEntries() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for malformed date")
	}
}

func TestListEntriesReadsDatesInLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	journal := &journalFake{}
	s := New("test", journal, insightsFake{}, domain.DemoPrincipal(), tokyo)

	result, err := s.listEntries(context.Background(), newRequest("list_entries", map[string]any{
		"from": "2026-05-01",
		"to":   "2026-05-01",
	}))
	if err != nil {
		t.Fatalf("listEntries() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if want := time.Date(2026, 5, 1, 0, 0, 0, 0, tokyo); !journal.filter.From.Equal(want) {
		t.Fatalf("expected from %v, got %v", want, journal.filter.From)
	}
	if want := time.Date(2026, 5, 2, 0, 0, 0, 0, tokyo); !journal.filter.To.Equal(want) {
		t.Fatalf("expected to %v, got %v", want, journal.filter.To)
	}
}

func TestAnalyzeMoodAndSummary(t *testing.T) {
	s := New("test", &journalFake{}, insightsFake{}, domain.DemoPrincipal(), time.UTC)

	result, err := s.analyzeMood(context.Background(), newRequest("analyze_mood", map[string]any{"content": "Busy day"}))
	if err != nil {
		t.Fatalf("analyzeMood() error = %v", err)
	}
	var outcome domain.AnalysisOutcome
	if err := json.Unmarshal([]byte(resultText(t, result)), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Result.MoodScore != 64 {
		t.Fatalf("expected score 64, got %d", outcome.Result.MoodScore)
	}

	result, err = s.moodSummary(context.Background(), newRequest("mood_summary", nil))
	if err != nil {
		t.Fatalf("moodSummary() error = %v", err)
	}
	var summary domain.DashboardSummary
	if err := json.Unmarshal([]byte(resultText(t, result)), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalEntries != 7 || summary.StreakDays != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	result, err = s.moodTrends(context.Background(), newRequest("mood_trends", map[string]any{"range": "7d"}))
	if err != nil {
		t.Fatalf("moodTrends() error = %v", err)
	}
	if !strings.Contains(resultText(t, result), `"range":"7d"`) {
		t.Fatalf("expected 7d range in %s", resultText(t, result))
	}
}

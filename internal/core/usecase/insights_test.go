package usecase

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

type exporterFake struct {
	entries []domain.ResolvedEntry
	trends  domain.MoodTrends
}

func (f *exporterFake) Export(w io.Writer, entries []domain.ResolvedEntry, trends domain.MoodTrends) error {
	f.entries = entries
	f.trends = trends
	_, err := w.Write([]byte("xlsx"))
	return err
}

var insightsNow = time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)

func embeddedEntry(id string, created time.Time, score int, emotions ...string) domain.JournalEntry {
	return domain.JournalEntry{
		ID:        id,
		OwnerID:   domain.DemoUserID,
		Content:   id,
		CreatedAt: created,
		AnalysisData: &domain.AnalysisData{Analysis: &domain.AnalysisResult{
			MoodScore: score,
			Emotions:  emotions,
		}},
	}
}

func newInsightsFixture(entries ...domain.JournalEntry) (*InsightsUseCase, *exporterFake) {
	exporter := &exporterFake{}
	uc := NewInsightsUseCase(&entryRepoFake{entries: entries}, newTaxonomyRepoFake(), exporter, time.UTC)
	uc.now = func() time.Time { return insightsNow }
	return uc, exporter
}

func TestMoodTrendsAggregates(t *testing.T) {
	uc, _ := newInsightsFixture(
		embeddedEntry("e1", insightsNow.AddDate(0, 0, -40), 90, "Happy"),
		embeddedEntry("e2", insightsNow.AddDate(0, 0, -3), 20, "Sad", "Tired"),
		embeddedEntry("e3", insightsNow.AddDate(0, 0, -2), 50, "Happy", "Calm"),
		embeddedEntry("e4", insightsNow.AddDate(0, 0, -1), 80, "Happy", "Tired"),
	)

	trends, err := uc.MoodTrends(context.Background(), domain.DemoPrincipal(), "")
	if err != nil {
		t.Fatalf("MoodTrends() error = %v", err)
	}
	if trends.Range != DefaultTrendRange {
		t.Fatalf("expected default range, got %s", trends.Range)
	}
	if len(trends.Points) != 3 || trends.Points[0].EntryID != "e2" || trends.Points[2].EntryID != "e4" {
		t.Fatalf("expected 3 ascending points, got %+v", trends.Points)
	}
	if trends.EmotionFrequency[0] != (domain.LabelCount{Name: "Happy", Count: 2}) ||
		trends.EmotionFrequency[1] != (domain.LabelCount{Name: "Tired", Count: 2}) {
		t.Fatalf("unexpected emotion frequency %+v", trends.EmotionFrequency)
	}
	counts := []int{trends.Distribution[0].Count, trends.Distribution[1].Count, trends.Distribution[2].Count}
	if counts[0] != 1 || counts[1] != 1 || counts[2] != 1 {
		t.Fatalf("unexpected distribution %v", counts)
	}
}

func TestMoodTrendsRejectsUnknownRange(t *testing.T) {
	uc, _ := newInsightsFixture()
	if _, err := uc.MoodTrends(context.Background(), domain.DemoPrincipal(), "2w"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCalendarAveragesPerDay(t *testing.T) {
	uc, _ := newInsightsFixture(
		embeddedEntry("a", time.Date(2026, 5, 3, 9, 0, 0, 0, time.UTC), 60),
		embeddedEntry("b", time.Date(2026, 5, 3, 21, 0, 0, 0, time.UTC), 71),
		embeddedEntry("c", time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC), 30),
		embeddedEntry("d", time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC), 99),
	)

	days, err := uc.Calendar(context.Background(), domain.DemoPrincipal(), time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %+v", days)
	}
	if days[0].Day != "2026-05-03" || days[0].AverageScore != 66 || days[0].Entries != 2 {
		t.Fatalf("unexpected first day %+v", days[0])
	}
	if days[1].Day != "2026-05-10" || days[1].MoodLevel != domain.MoodLevel(30) {
		t.Fatalf("unexpected second day %+v", days[1])
	}
}

func TestCalendarUsesConfiguredZoneForMonth(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	uc := NewInsightsUseCase(&entryRepoFake{entries: []domain.JournalEntry{
		embeddedEntry("oct", time.Date(2026, 10, 15, 12, 0, 0, 0, newYork), 70),
		embeddedEntry("sep", time.Date(2026, 9, 30, 12, 0, 0, 0, newYork), 40),
	}}, newTaxonomyRepoFake(), nil, newYork)

	month, err := time.Parse("2006-01", "2026-10")
	if err != nil {
		t.Fatalf("parse month: %v", err)
	}
	days, err := uc.Calendar(context.Background(), domain.DemoPrincipal(), month)
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	if len(days) != 1 || days[0].Day != "2026-10-15" {
		t.Fatalf("expected only 2026-10-15, got %+v", days)
	}
}

func TestCalendarZeroMonthUsesCurrentMonthInZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	uc := NewInsightsUseCase(&entryRepoFake{entries: []domain.JournalEntry{
		embeddedEntry("june", time.Date(2026, 6, 1, 8, 0, 0, 0, tokyo), 55),
		embeddedEntry("may", time.Date(2026, 5, 31, 8, 0, 0, 0, tokyo), 55),
	}}, newTaxonomyRepoFake(), nil, tokyo)
	// 2026-05-31 18:00 UTC is already June 1 in Tokyo.
	uc.now = func() time.Time { return time.Date(2026, 5, 31, 18, 0, 0, 0, time.UTC) }

	days, err := uc.Calendar(context.Background(), domain.DemoPrincipal(), time.Time{})
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	if len(days) != 1 || days[0].Day != "2026-06-01" {
		t.Fatalf("expected only 2026-06-01, got %+v", days)
	}
}

func TestMoodTrendsYearRangeIsCalendarYear(t *testing.T) {
	leapNow := time.Date(2028, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := NewInsightsUseCase(&entryRepoFake{entries: []domain.JournalEntry{
		embeddedEntry("inside", time.Date(2027, 3, 1, 13, 0, 0, 0, time.UTC), 60),
		embeddedEntry("outside", time.Date(2027, 3, 1, 11, 0, 0, 0, time.UTC), 60),
	}}, newTaxonomyRepoFake(), nil, time.UTC)
	uc.now = func() time.Time { return leapNow }

	trends, err := uc.MoodTrends(context.Background(), domain.DemoPrincipal(), "1y")
	if err != nil {
		t.Fatalf("MoodTrends() error = %v", err)
	}
	if want := time.Date(2027, 3, 1, 12, 0, 0, 0, time.UTC); !trends.From.Equal(want) {
		t.Fatalf("expected from %s, got %s", want, trends.From)
	}
	if len(trends.Points) != 1 || trends.Points[0].EntryID != "inside" {
		t.Fatalf("expected only the entry inside the year, got %+v", trends.Points)
	}
}

func TestSummaryStreakAndWeeklyAverage(t *testing.T) {
	uc, _ := newInsightsFixture(
		embeddedEntry("gap", insightsNow.AddDate(0, 0, -5), 10),
		embeddedEntry("d2", insightsNow.AddDate(0, 0, -2), 60),
		embeddedEntry("d1", insightsNow.AddDate(0, 0, -1), 70),
		embeddedEntry("d0", insightsNow.Add(-time.Hour), 81),
	)

	summary, err := uc.Summary(context.Background(), domain.DemoPrincipal())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.TotalEntries != 4 {
		t.Fatalf("expected 4 entries, got %d", summary.TotalEntries)
	}
	if summary.StreakDays != 3 {
		t.Fatalf("expected streak of 3, got %d", summary.StreakDays)
	}
	if summary.WeeklyEntryCount != 4 || summary.WeeklyAverage != 55 {
		t.Fatalf("expected weekly average 55 over 4 entries, got %d over %d", summary.WeeklyAverage, summary.WeeklyEntryCount)
	}
	if summary.LatestEntry == nil || summary.LatestEntry.ID != "d0" {
		t.Fatalf("expected latest entry d0, got %+v", summary.LatestEntry)
	}
}

func TestSummaryNoEntryTodayBreaksStreak(t *testing.T) {
	uc, _ := newInsightsFixture(
		embeddedEntry("old", insightsNow.AddDate(0, 0, -60), 40),
		embeddedEntry("y", insightsNow.AddDate(0, 0, -1), 40),
	)

	summary, err := uc.Summary(context.Background(), domain.DemoPrincipal())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.StreakDays != 0 {
		t.Fatalf("expected streak 0, got %d", summary.StreakDays)
	}
}

func TestSummaryEmpty(t *testing.T) {
	uc, _ := newInsightsFixture()
	summary, err := uc.Summary(context.Background(), domain.DemoPrincipal())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.TotalEntries != 0 || summary.LatestEntry != nil {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestSummaryLatestOutsideLookback(t *testing.T) {
	uc, _ := newInsightsFixture(embeddedEntry("old", insightsNow.AddDate(0, 0, -60), 40))
	summary, err := uc.Summary(context.Background(), domain.DemoPrincipal())
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary.LatestEntry == nil || summary.LatestEntry.ID != "old" {
		t.Fatalf("expected latest entry old, got %+v", summary.LatestEntry)
	}
	if summary.WeeklyAverage != domain.DefaultMoodScore {
		t.Fatalf("expected default weekly average, got %d", summary.WeeklyAverage)
	}
}

func TestExportPassesEntriesAndTrends(t *testing.T) {
	uc, exporter := newInsightsFixture(
		embeddedEntry("a", insightsNow.AddDate(0, 0, -400), 40),
		embeddedEntry("b", insightsNow.AddDate(0, 0, -1), 80),
	)

	var buf bytes.Buffer
	if err := uc.Export(context.Background(), domain.DemoPrincipal(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(exporter.entries) != 2 {
		t.Fatalf("expected all entries exported, got %d", len(exporter.entries))
	}
	if exporter.trends.Range != "1y" || len(exporter.trends.Points) != 1 {
		t.Fatalf("unexpected trends %+v", exporter.trends)
	}
	if buf.String() != "xlsx" {
		t.Fatalf("expected exporter output written")
	}
}

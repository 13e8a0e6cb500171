package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const (
	DefaultTrendRange  = "30d"
	topEmotionsLimit   = 10
	streakLookbackDays = 30
	exportTrendRange   = "1y"
	calendarDayLayout  = "2006-01-02"
)

// trendRanges maps a range key to the start of its window ending at to.
var trendRanges = map[string]func(to time.Time) time.Time{
	"7d":  func(to time.Time) time.Time { return to.AddDate(0, 0, -7) },
	"30d": func(to time.Time) time.Time { return to.AddDate(0, 0, -30) },
	"90d": func(to time.Time) time.Time { return to.AddDate(0, 0, -90) },
	"1y":  func(to time.Time) time.Time { return to.AddDate(-1, 0, 0) },
}

// InsightsUseCase computes dashboard read models from resolved entries.
type InsightsUseCase struct {
	entries  ports.EntryRepository
	taxonomy ports.TaxonomyRepository
	exporter ports.EntryExporter
	location *time.Location
	now      func() time.Time
}

func NewInsightsUseCase(entries ports.EntryRepository, taxonomy ports.TaxonomyRepository, exporter ports.EntryExporter, location *time.Location) *InsightsUseCase {
	if location == nil {
		location = time.UTC
	}
	return &InsightsUseCase{
		entries:  entries,
		taxonomy: taxonomy,
		exporter: exporter,
		location: location,
		now:      time.Now,
	}
}

func (uc *InsightsUseCase) MoodTrends(ctx context.Context, principal domain.Principal, rangeKey string) (domain.MoodTrends, error) {
	if err := principal.Validate(); err != nil {
		return domain.MoodTrends{}, err
	}
	if rangeKey == "" {
		rangeKey = DefaultTrendRange
	}
	rangeStart, ok := trendRanges[rangeKey]
	if !ok {
		return domain.MoodTrends{}, domain.WrapError(domain.ErrInvalidInput, "mood trends", fmt.Errorf("unknown range %q", rangeKey))
	}

	to := uc.now().In(uc.location)
	from := rangeStart(to)
	entries, err := loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, domain.EntryFilter{From: from})
	if err != nil {
		return domain.MoodTrends{}, err
	}
	return buildTrends(rangeKey, from, to, entries), nil
}

// Location is the zone used to bucket entries into days and months.
func (uc *InsightsUseCase) Location() *time.Location {
	return uc.location
}

// Calendar averages entries per day for the month named by month's year and
// month fields, taken as a month in the configured zone.
func (uc *InsightsUseCase) Calendar(ctx context.Context, principal domain.Principal, month time.Time) ([]domain.CalendarDay, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}
	if month.IsZero() {
		month = uc.now().In(uc.location)
	}
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, uc.location)
	end := start.AddDate(0, 1, 0)

	entries, err := loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, domain.EntryFilter{From: start, To: end})
	if err != nil {
		return nil, err
	}

	type dayTotals struct {
		sum   int
		count int
	}
	totals := make(map[string]*dayTotals)
	for _, entry := range entries {
		key := entry.CreatedAt.In(uc.location).Format(calendarDayLayout)
		t, ok := totals[key]
		if !ok {
			t = &dayTotals{}
			totals[key] = t
		}
		t.sum += entry.MoodScore
		t.count++
	}

	out := make([]domain.CalendarDay, 0, len(totals))
	for day, t := range totals {
		avg := roundedAverage(t.sum, t.count)
		out = append(out, domain.CalendarDay{
			Day:          day,
			AverageScore: avg,
			MoodLevel:    domain.MoodLevel(avg),
			Entries:      t.count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (uc *InsightsUseCase) Summary(ctx context.Context, principal domain.Principal) (domain.DashboardSummary, error) {
	if err := principal.Validate(); err != nil {
		return domain.DashboardSummary{}, err
	}
	total, err := uc.entries.Count(ctx, principal.UserID)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	summary := domain.DashboardSummary{TotalEntries: total}
	if total == 0 {
		summary.WeeklyMoodLevel = domain.MoodLevel(domain.DefaultMoodScore)
		return summary, nil
	}

	now := uc.now().In(uc.location)
	today := startOfDay(now)
	lookback := today.AddDate(0, 0, -(streakLookbackDays - 1))
	recent, err := loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, domain.EntryFilter{From: lookback})
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	if len(recent) > 0 {
		latest := recent[0]
		summary.LatestEntry = &latest
	} else {
		latest, err := loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, domain.EntryFilter{Limit: 1})
		if err != nil {
			return domain.DashboardSummary{}, err
		}
		if len(latest) > 0 {
			summary.LatestEntry = &latest[0]
		}
	}

	weekStart := now.AddDate(0, 0, -7)
	sum := 0
	days := make(map[string]struct{})
	for _, entry := range recent {
		created := entry.CreatedAt.In(uc.location)
		days[created.Format(calendarDayLayout)] = struct{}{}
		if !created.Before(weekStart) {
			sum += entry.MoodScore
			summary.WeeklyEntryCount++
		}
	}
	summary.WeeklyAverage = roundedAverage(sum, summary.WeeklyEntryCount)
	if summary.WeeklyEntryCount == 0 {
		summary.WeeklyAverage = domain.DefaultMoodScore
	}
	summary.WeeklyMoodLevel = domain.MoodLevel(summary.WeeklyAverage)
	summary.StreakDays = streak(days, today)
	return summary, nil
}

// Export writes every entry plus a yearly trend snapshot as a workbook.
func (uc *InsightsUseCase) Export(ctx context.Context, principal domain.Principal, w io.Writer) error {
	if uc.exporter == nil {
		return errors.New("entry exporter is not configured")
	}
	trends, err := uc.MoodTrends(ctx, principal, exportTrendRange)
	if err != nil {
		return err
	}
	entries, err := loadResolvedEntries(ctx, uc.entries, uc.taxonomy, principal.UserID, domain.EntryFilter{})
	if err != nil {
		return err
	}
	if err := uc.exporter.Export(w, entries, trends); err != nil {
		return fmt.Errorf("export entries: %w", err)
	}
	return nil
}

func buildTrends(rangeKey string, from, to time.Time, entries []domain.ResolvedEntry) domain.MoodTrends {
	trends := domain.MoodTrends{
		Range:  rangeKey,
		From:   from,
		To:     to,
		Points: make([]domain.TrendPoint, 0, len(entries)),
		Distribution: []domain.MoodBucket{
			{Name: "Low", Min: 0, Max: 33},
			{Name: "Medium", Min: 34, Max: 66},
			{Name: "High", Min: 67, Max: 100},
		},
	}

	counts := make(map[string]int)
	for _, entry := range entries {
		trends.Points = append(trends.Points, domain.TrendPoint{
			EntryID:   entry.ID,
			Date:      entry.CreatedAt,
			MoodScore: entry.MoodScore,
		})
		for _, emotion := range entry.Emotions {
			counts[emotion]++
		}
		for i := range trends.Distribution {
			bucket := &trends.Distribution[i]
			if entry.MoodScore >= bucket.Min && entry.MoodScore <= bucket.Max {
				bucket.Count++
				break
			}
		}
	}
	sort.SliceStable(trends.Points, func(i, j int) bool {
		return trends.Points[i].Date.Before(trends.Points[j].Date)
	})

	trends.EmotionFrequency = make([]domain.LabelCount, 0, len(counts))
	for name, count := range counts {
		trends.EmotionFrequency = append(trends.EmotionFrequency, domain.LabelCount{Name: name, Count: count})
	}
	sort.Slice(trends.EmotionFrequency, func(i, j int) bool {
		a, b := trends.EmotionFrequency[i], trends.EmotionFrequency[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if len(trends.EmotionFrequency) > topEmotionsLimit {
		trends.EmotionFrequency = trends.EmotionFrequency[:topEmotionsLimit]
	}
	return trends
}

// streak counts consecutive days with an entry, ending today.
func streak(days map[string]struct{}, today time.Time) int {
	count := 0
	for i := 0; i < streakLookbackDays; i++ {
		day := today.AddDate(0, 0, -i).Format(calendarDayLayout)
		if _, ok := days[day]; !ok {
			break
		}
		count++
	}
	return count
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func roundedAverage(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}

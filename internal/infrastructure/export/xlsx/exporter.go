package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

const (
	entriesSheet = "Entries"
	trendsSheet  = "Trends"
	timeLayout   = "2006-01-02 15:04"
)

var entryHeader = []any{"Date", "Mood Score", "Mood Level", "Emotions", "Themes", "Summary", "Content"}

// Exporter renders journal entries into an XLSX workbook.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(w io.Writer, entries []domain.ResolvedEntry, trends domain.MoodTrends) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return fmt.Errorf("rename entries sheet: %w", err)
	}
	if _, err := f.NewSheet(trendsSheet); err != nil {
		return fmt.Errorf("create trends sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeEntries(f, bold, entries); err != nil {
		return err
	}
	if err := writeTrends(f, bold, trends); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, headerStyle int, entries []domain.ResolvedEntry) error {
	if err := writeRow(f, entriesSheet, 1, entryHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(entriesSheet, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("style entries header: %w", err)
	}
	for i, entry := range entries {
		row := []any{
			entry.CreatedAt.Format(timeLayout),
			entry.MoodScore,
			entry.MoodLevel,
			strings.Join(entry.Emotions, ", "),
			strings.Join(entry.Themes, ", "),
			entry.Summary,
			entry.Content,
		}
		if err := writeRow(f, entriesSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(entriesSheet, "A", "A", 18); err != nil {
		return fmt.Errorf("size entries columns: %w", err)
	}
	if err := f.SetColWidth(entriesSheet, "D", "G", 40); err != nil {
		return fmt.Errorf("size entries columns: %w", err)
	}
	return nil
}

// writeTrends lays out three blocks one under another: the per-entry series,
// the emotion frequency and the mood distribution.
func writeTrends(f *excelize.File, headerStyle int, trends domain.MoodTrends) error {
	row := 1
	if err := writeHeader(f, headerStyle, row, "Range", trends.Range); err != nil {
		return err
	}
	row += 2

	if err := writeHeader(f, headerStyle, row, "Date", "Mood Score"); err != nil {
		return err
	}
	for _, point := range trends.Points {
		row++
		if err := writeRow(f, trendsSheet, row, []any{point.Date.Format(timeLayout), point.MoodScore}); err != nil {
			return err
		}
	}
	row += 2

	if err := writeHeader(f, headerStyle, row, "Emotion", "Count"); err != nil {
		return err
	}
	for _, label := range trends.EmotionFrequency {
		row++
		if err := writeRow(f, trendsSheet, row, []any{label.Name, label.Count}); err != nil {
			return err
		}
	}
	row += 2

	if err := writeHeader(f, headerStyle, row, "Mood", "Count"); err != nil {
		return err
	}
	for _, bucket := range trends.Distribution {
		row++
		name := fmt.Sprintf("%s (%d-%d)", bucket.Name, bucket.Min, bucket.Max)
		if err := writeRow(f, trendsSheet, row, []any{name, bucket.Count}); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, style int, row int, values ...any) error {
	if err := writeRow(f, trendsSheet, row, values); err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(trendsSheet, first, last, style); err != nil {
		return fmt.Errorf("style trends header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

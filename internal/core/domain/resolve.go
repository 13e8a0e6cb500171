package domain

import "time"

type ResolutionSource string

const (
	SourceEmbedded ResolutionSource = "embedded"
	SourceColumn   ResolutionSource = "column"
	SourceDefault  ResolutionSource = "default"
)

// ResolvedEntry is the display view of a journal entry.
type ResolvedEntry struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	MoodScore int              `json:"mood_score"`
	MoodLevel string           `json:"mood_level"`
	Emotions  []string         `json:"emotions"`
	Themes    []string         `json:"themes"`
	Summary   string           `json:"summary"`
	Source    ResolutionSource `json:"source"`
}

// ResolveEntry computes how an entry is displayed.
//
// Mood score precedence: embedded analysis, then the mood_score column, then
// DefaultMoodScore. Emotions and themes come from the embedded analysis when
// one is present, otherwise from the join-table labels.
func ResolveEntry(entry JournalEntry) ResolvedEntry {
	out := ResolvedEntry{
		ID:        entry.ID,
		Content:   entry.Content,
		CreatedAt: entry.CreatedAt,
		MoodScore: DefaultMoodScore,
		Source:    SourceDefault,
	}

	var embedded *AnalysisResult
	if entry.AnalysisData != nil {
		embedded = entry.AnalysisData.Analysis
	}

	switch {
	case embedded != nil && embedded.MoodScore != 0:
		out.MoodScore = embedded.MoodScore
		out.Source = SourceEmbedded
	case entry.MoodScore != nil:
		out.MoodScore = *entry.MoodScore
		out.Source = SourceColumn
	}

	if embedded != nil {
		out.Emotions = cleanLabels(embedded.Emotions)
		out.Themes = cleanLabels(embedded.Themes)
		out.Summary = embedded.Summary
	} else {
		out.Emotions = labelNames(entry.Emotions)
		out.Themes = labelNames(entry.Themes)
	}
	out.MoodLevel = MoodLevel(out.MoodScore)
	return out
}

func labelNames(labels []Label) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		out = append(out, label.Name)
	}
	return out
}

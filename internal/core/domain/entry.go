package domain

import "time"

type TaxonomyKind string

const (
	TaxonomyEmotion TaxonomyKind = "emotion"
	TaxonomyTheme   TaxonomyKind = "theme"
)

// Label is one row of the deduplicated emotion or theme vocabulary.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JournalEntry struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"user_id"`
	Content      string        `json:"content"`
	MoodScore    *int          `json:"mood_score,omitempty"`
	AnalysisData *AnalysisData `json:"analysis_data,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`

	// Join-table associations, loaded on read.
	Emotions []Label `json:"emotions,omitempty"`
	Themes   []Label `json:"themes,omitempty"`
}

type EntryFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

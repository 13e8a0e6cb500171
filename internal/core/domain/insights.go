package domain

import "time"

type TrendPoint struct {
	EntryID   string    `json:"entry_id"`
	Date      time.Time `json:"date"`
	MoodScore int       `json:"mood_score"`
}

type LabelCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MoodBucket struct {
	Name  string `json:"name"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

type MoodTrends struct {
	Range            string       `json:"range"`
	From             time.Time    `json:"from"`
	To               time.Time    `json:"to"`
	Points           []TrendPoint `json:"points"`
	EmotionFrequency []LabelCount `json:"emotion_frequency"`
	Distribution     []MoodBucket `json:"distribution"`
}

type CalendarDay struct {
	Day          string `json:"day"`
	AverageScore int    `json:"average_score"`
	MoodLevel    string `json:"mood_level"`
	Entries      int    `json:"entries"`
}

type DashboardSummary struct {
	TotalEntries     int            `json:"total_entries"`
	LatestEntry      *ResolvedEntry `json:"latest_entry,omitempty"`
	WeeklyAverage    int            `json:"weekly_average"`
	WeeklyMoodLevel  string         `json:"weekly_mood_level"`
	WeeklyEntryCount int            `json:"weekly_entry_count"`
	StreakDays       int            `json:"streak_days"`
}

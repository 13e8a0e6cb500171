package domain

import (
	"encoding/json"
	"strings"
)

const (
	DefaultMoodScore = 50
	FallbackSummary  = "The mood appears neutral. Unable to perform detailed analysis due to technical issues."
)

type AnalysisResult struct {
	MoodScore int      `json:"mood_score"`
	Emotions  []string `json:"emotions"`
	Themes    []string `json:"themes"`
	Summary   string   `json:"summary"`
}

// FallbackAnalysis is substituted whenever a genuine analysis cannot be obtained.
func FallbackAnalysis() AnalysisResult {
	return AnalysisResult{
		MoodScore: DefaultMoodScore,
		Emotions:  []string{"Neutral", "Calm", "Thoughtful"},
		Themes:    []string{"Personal reflection", "Daily life"},
		Summary:   FallbackSummary,
	}
}

// Normalized returns a copy safe for persistence: a zero score becomes the
// default, label lists are never nil and blank labels are dropped.
func (a AnalysisResult) Normalized() AnalysisResult {
	out := AnalysisResult{
		MoodScore: a.MoodScore,
		Emotions:  cleanLabels(a.Emotions),
		Themes:    cleanLabels(a.Themes),
		Summary:   a.Summary,
	}
	if out.MoodScore == 0 {
		out.MoodScore = DefaultMoodScore
	}
	return out
}

func cleanLabels(in []string) []string {
	out := make([]string, 0, len(in))
	for _, label := range in {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out = append(out, label)
	}
	return out
}

// AnalysisOutcome is what the analysis stage hands to persistence.
type AnalysisOutcome struct {
	Result      AnalysisResult  `json:"analysis"`
	APIResponse json.RawMessage `json:"api_response,omitempty"`
	Degraded    bool            `json:"degraded"`
	Reason      string          `json:"reason,omitempty"`
}

// AnalysisData is the payload embedded on every journal entry.
type AnalysisData struct {
	Analysis    *AnalysisResult `json:"analysis"`
	APIResponse json.RawMessage `json:"api_response"`
}

func MoodLevel(score int) string {
	switch {
	case score >= 80:
		return "Very Positive"
	case score >= 60:
		return "Positive"
	case score >= 40:
		return "Neutral"
	case score >= 20:
		return "Negative"
	default:
		return "Very Negative"
	}
}

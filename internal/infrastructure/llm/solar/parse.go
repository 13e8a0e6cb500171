package solar

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

var (
	errNoJSONObject   = errors.New("no JSON object in model output")
	errMissingMoodKey = errors.New("invalid response format")
)

// parseMoodContent decodes the model output. When the whole text is not JSON
// the first-brace to last-brace substring is tried instead.
func parseMoodContent(content string) (domain.AnalysisResult, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		object, ok := extractJSONObject(content)
		if !ok {
			return domain.AnalysisResult{}, domain.WrapError(domain.ErrProvider, "parse mood json", errNoJSONObject)
		}
		if err := json.Unmarshal([]byte(object), &payload); err != nil {
			return domain.AnalysisResult{}, domain.WrapError(domain.ErrProvider, "parse mood json", err)
		}
	}
	return moodFromPayload(payload)
}

func moodFromPayload(payload map[string]any) (domain.AnalysisResult, error) {
	for _, key := range []string{"mood_score", "emotions", "themes", "summary"} {
		if !truthy(payload[key]) {
			return domain.AnalysisResult{}, domain.WrapError(domain.ErrProvider, "validate mood json", fmt.Errorf("%w: %s", errMissingMoodKey, key))
		}
	}

	return domain.AnalysisResult{
		MoodScore: coerceScore(payload["mood_score"]),
		Emotions:  coerceLabels(payload["emotions"]),
		Themes:    coerceLabels(payload["themes"]),
		Summary:   coerceString(payload["summary"]),
	}, nil
}

func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], true
	}
	return "", false
}

func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0 && !math.IsNaN(value)
	case string:
		return value != ""
	default:
		return true
	}
}

func coerceScore(v any) int {
	switch value := v.(type) {
	case float64:
		return int(math.Round(value))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return int(math.Round(f))
	default:
		return 0
	}
}

func coerceLabels(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

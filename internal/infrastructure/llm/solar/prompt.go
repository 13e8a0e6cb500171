package solar

import (
	"strings"

	"github.com/kirillkom/mood-builder/internal/core/domain"
)

func buildMoodPrompt(vocab domain.Vocabulary, text string) string {
	return `
You are an expert psychologist and mood analyst. Your task is to analyze the following journal entry and determine:

1. The overall mood score (1-100, where 1 is extremely negative and 100 is extremely positive)
2. The top 3 emotions expressed (choose from: ` + strings.Join(vocab.Emotions, ", ") + `)
3. The main themes discussed (choose from: ` + strings.Join(vocab.Themes, ", ") + `)
4. A brief summary of the mood and themes (2-3 sentences)

Respond in the following JSON format only:
{
  "mood_score": [number between 1-100],
  "emotions": ["emotion1", "emotion2", "emotion3"],
  "themes": ["theme1", "theme2"],
  "summary": "Brief summary of the mood and themes"
}

Journal entry:
` + text + "\n"
}

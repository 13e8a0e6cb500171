package domain

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary lists the labels the analysis prompt asks the model to choose from.
type Vocabulary struct {
	Emotions []string `yaml:"emotions"`
	Themes   []string `yaml:"themes"`
}

func DefaultVocabulary() Vocabulary {
	vocab, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary: %v", err))
	}
	return vocab
}

// LoadVocabulary reads a YAML vocabulary file. An empty path yields the default.
func LoadVocabulary(path string) (Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(raw)
}

func ParseVocabulary(raw []byte) (Vocabulary, error) {
	var vocab Vocabulary
	if err := yaml.Unmarshal(raw, &vocab); err != nil {
		return Vocabulary{}, fmt.Errorf("decode vocabulary: %w", err)
	}
	vocab.Emotions = cleanLabels(vocab.Emotions)
	vocab.Themes = cleanLabels(vocab.Themes)
	if len(vocab.Emotions) == 0 || len(vocab.Themes) == 0 {
		return Vocabulary{}, WrapError(ErrInvalidInput, "parse vocabulary", fmt.Errorf("emotions and themes must be non-empty"))
	}
	return vocab, nil
}

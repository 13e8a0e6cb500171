package domain

import (
	"encoding/json"
	"testing"
)

func TestDocumentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to DocumentStatus
		ok       bool
	}{
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestMimeTypeForFileName(t *testing.T) {
	cases := map[string]string{
		"page.JPG":      "image/jpeg",
		"page.jpeg":     "image/jpeg",
		"scan.png":      "image/png",
		"scan.bmp":      "image/bmp",
		"notes.pdf":     "application/pdf",
		"fax.tif":       "image/tiff",
		"fax.tiff":      "image/tiff",
		"photo.heic":    "image/heic",
		"photo.HEIF":    "image/heic",
		"diary.docx":    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"slides.pptx":   "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"sheet.xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"dir/a.b/x.png": "image/png",
		"notes.txt":     "",
		"no-extension":  "",
	}
	for name, want := range cases {
		got := MimeTypeForFileName(name)
		if got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
		if want != "" && !IsAllowedMimeType(got) {
			t.Fatalf("%s: resolved type %q is not allowed", name, got)
		}
	}
}

func TestIsAllowedMimeType(t *testing.T) {
	allowed := []string{
		"image/jpeg", "image/png", "image/bmp", "application/pdf", "image/tiff", "image/heic",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"Application/PDF; charset=binary",
	}
	for _, mime := range allowed {
		if !IsAllowedMimeType(mime) {
			t.Fatalf("expected %q to be allowed", mime)
		}
	}
	for _, mime := range []string{"text/plain", "image/gif", "", "application/msword"} {
		if IsAllowedMimeType(mime) {
			t.Fatalf("expected %q to be rejected", mime)
		}
	}
}

func TestExtractedTextFallsBackToMetadata(t *testing.T) {
	doc := &Document{
		ParsedContent: "  ",
		Metadata:      json.RawMessage(`{"content":{"text":"from metadata","html":"<p/>"}}`),
	}
	if got := doc.ExtractedText(); got != "from metadata" {
		t.Fatalf("expected metadata text, got %q", got)
	}

	doc.ParsedContent = "direct"
	if got := doc.ExtractedText(); got != "direct" {
		t.Fatalf("expected direct text, got %q", got)
	}

	if got := (&Document{Metadata: json.RawMessage(`not json`)}).ExtractedText(); got != "" {
		t.Fatalf("expected empty text for broken metadata, got %q", got)
	}
}

func TestNormalizedAnalysis(t *testing.T) {
	got := AnalysisResult{Emotions: []string{"Happy", " ", ""}}.Normalized()
	if got.MoodScore != DefaultMoodScore {
		t.Fatalf("expected default score, got %d", got.MoodScore)
	}
	if len(got.Emotions) != 1 || got.Emotions[0] != "Happy" {
		t.Fatalf("unexpected emotions: %v", got.Emotions)
	}
	if got.Themes == nil {
		t.Fatalf("expected non-nil themes")
	}
}

func TestMoodLevelBoundaries(t *testing.T) {
	cases := map[int]string{80: "Very Positive", 79: "Positive", 60: "Positive", 40: "Neutral", 20: "Negative", 19: "Very Negative"}
	for score, want := range cases {
		if got := MoodLevel(score); got != want {
			t.Fatalf("score %d: expected %q, got %q", score, want, got)
		}
	}
}

func TestDefaultVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	if len(vocab.Emotions) != 15 || len(vocab.Themes) != 10 {
		t.Fatalf("expected 15 emotions and 10 themes, got %d and %d", len(vocab.Emotions), len(vocab.Themes))
	}
	if _, err := ParseVocabulary([]byte("emotions: []\nthemes: [Work]\n")); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty emotions, got %v", err)
	}
}

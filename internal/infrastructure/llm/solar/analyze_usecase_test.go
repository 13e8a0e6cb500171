package solar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/usecase"
)

func newChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(t, content))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnalyzeUseCaseRecoversProseWrappedJSON(t *testing.T) {
	server := newChatServer(t, "Sure! Here is the analysis you asked for:\n```json\n"+
		`{"mood_score":78,"emotions":["Happy","Grateful","Calm"],"themes":["Family"],"summary":"A warm evening at home."}`+
		"\n```\nLet me know if you need anything else.")

	client := New(Config{BaseURL: server.URL + "/v1", APIKey: "secret", Model: "solar-pro"}, testExecutor(1))
	outcome := usecase.NewAnalyzeMoodUseCase(client, nil, nil).Analyze(context.Background(), "Dinner with my parents.")

	if outcome.Degraded {
		t.Fatalf("expected a genuine analysis, got fallback: %s", outcome.Reason)
	}
	if outcome.Result.MoodScore != 78 || outcome.Result.Summary != "A warm evening at home." {
		t.Fatalf("unexpected result %+v", outcome.Result)
	}
	if len(outcome.Result.Emotions) != 3 || outcome.Result.Themes[0] != "Family" {
		t.Fatalf("unexpected labels %+v", outcome.Result)
	}
	if len(outcome.APIResponse) == 0 {
		t.Fatalf("expected raw provider response to be kept")
	}
}

func TestAnalyzeUseCaseFallsBackOnProseWithoutJSON(t *testing.T) {
	server := newChatServer(t, "I'm sorry, I can't analyze that entry.")

	client := New(Config{BaseURL: server.URL + "/v1", APIKey: "secret", Model: "solar-pro"}, testExecutor(1))
	outcome := usecase.NewAnalyzeMoodUseCase(client, nil, nil).Analyze(context.Background(), "Dinner with my parents.")

	if !outcome.Degraded {
		t.Fatalf("expected fallback analysis")
	}
	if outcome.Result.MoodScore != domain.DefaultMoodScore {
		t.Fatalf("expected default score %d, got %d", domain.DefaultMoodScore, outcome.Result.MoodScore)
	}
}

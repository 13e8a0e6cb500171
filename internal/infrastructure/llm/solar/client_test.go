package solar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
)

func chatResponse(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "solar-pro",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return body
}

func testExecutor(maxAttempts int) *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    maxAttempts,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
	})
}

func TestAnalyzeMoodSendsChatRequest(t *testing.T) {
	var captured map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(t, `{"mood_score":72,"emotions":["Happy","Hopeful","Grateful"],"themes":["Work"],"summary":"A good day."}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/v1", APIKey: "secret", Model: "solar-pro"}, testExecutor(1))
	got, err := client.AnalyzeMood(context.Background(), "Today was great")
	if err != nil {
		t.Fatalf("AnalyzeMood() error = %v", err)
	}

	want := domain.AnalysisResult{MoodScore: 72, Emotions: []string{"Happy", "Hopeful", "Grateful"}, Themes: []string{"Work"}, Summary: "A good day."}
	if !reflect.DeepEqual(got.Result, want) {
		t.Fatalf("expected %+v, got %+v", want, got.Result)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if captured["model"] != "solar-pro" || captured["stream"] != false {
		t.Fatalf("unexpected request payload: %v", captured)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected single message, got %v", captured["messages"])
	}
	message, _ := messages[0].(map[string]any)
	prompt, _ := message["content"].(string)
	if message["role"] != "user" || !strings.Contains(prompt, "Journal entry:\nToday was great") {
		t.Fatalf("unexpected message: %v", message)
	}
	if _, ok := captured["response_format"]; ok {
		t.Fatalf("structured output must be opt-in")
	}
	if !json.Valid(got.APIResponse) || !strings.Contains(string(got.APIResponse), "chatcmpl-1") {
		t.Fatalf("expected raw api response, got %s", got.APIResponse)
	}
}

func TestAnalyzeMoodStructuredOutputSendsSchema(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(t, `{"mood_score":60,"emotions":["Calm"],"themes":["Health"],"summary":"ok"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k", Model: "solar-pro", StructuredOutput: true}, testExecutor(1))
	if _, err := client.AnalyzeMood(context.Background(), "text"); err != nil {
		t.Fatalf("AnalyzeMood() error = %v", err)
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", captured["response_format"])
	}
}

func TestAnalyzeMoodRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(t, `{"mood_score":40,"emotions":["Tired"],"themes":["Work"],"summary":"meh"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k", Model: "solar-pro"}, testExecutor(3))
	got, err := client.AnalyzeMood(context.Background(), "text")
	if err != nil {
		t.Fatalf("AnalyzeMood() error = %v", err)
	}
	if got.Result.MoodScore != 40 || calls.Load() != 2 {
		t.Fatalf("expected retry then success, got score=%d calls=%d", got.Result.MoodScore, calls.Load())
	}
}

func TestAnalyzeMoodReturnsProviderErrorOnClientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "k", Model: "solar-pro"}, testExecutor(3))
	_, err := client.AnalyzeMood(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry for 401, got %d calls", calls.Load())
	}
}

func TestParseMoodContentRecoversEmbeddedObject(t *testing.T) {
	got, err := parseMoodContent(`Here is the result: {"mood_score":60,"emotions":["Calm","Content","Tired"],"themes":["Health"],"summary":"Steady."} Thanks`)
	if err != nil {
		t.Fatalf("parseMoodContent() error = %v", err)
	}
	if got.MoodScore != 60 || len(got.Emotions) != 3 || got.Themes[0] != "Health" || got.Summary != "Steady." {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseMoodContentRejectsIncompletePayload(t *testing.T) {
	cases := []string{
		`{"mood_score":0,"emotions":["Calm"],"themes":["Work"],"summary":"s"}`,
		`{"mood_score":55,"themes":["Work"],"summary":"s"}`,
		`{"mood_score":55,"emotions":["Calm"],"themes":null,"summary":"s"}`,
		`{"mood_score":55,"emotions":["Calm"],"themes":["Work"],"summary":""}`,
		`no json here`,
		`{broken`,
	}
	for _, content := range cases {
		if _, err := parseMoodContent(content); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestParseMoodContentCoercesLooseValues(t *testing.T) {
	got, err := parseMoodContent(`{"mood_score":"72.4","emotions":"Happy","themes":["Work",3],"summary":"s"}`)
	if err != nil {
		t.Fatalf("parseMoodContent() error = %v", err)
	}
	if got.MoodScore != 72 {
		t.Fatalf("expected 72, got %d", got.MoodScore)
	}
	if len(got.Emotions) != 0 || !reflect.DeepEqual(got.Themes, []string{"Work"}) {
		t.Fatalf("unexpected labels: %v %v", got.Emotions, got.Themes)
	}
}

func TestBuildMoodPromptListsVocabulary(t *testing.T) {
	prompt := buildMoodPrompt(domain.DefaultVocabulary(), "entry text")
	for _, fragment := range []string{"Happy, Excited, Calm", "Spirituality, Social life", "\"mood_score\"", "Journal entry:\nentry text"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("expected prompt to contain %q", fragment)
		}
	}
}

package upstage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
)

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

func TestParseDocumentSendsFixedParameters(t *testing.T) {
	fields := map[string]string{}
	var fileBody, fileName, fileType, auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/document-digitization" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		reader, err := r.MultipartReader()
		if err != nil {
			t.Fatalf("multipart reader: %v", err)
		}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("next part: %v", err)
			}
			value, _ := io.ReadAll(part)
			if part.FormName() == "document" {
				fileBody = string(value)
				fileName = part.FileName()
				fileType = part.Header.Get("Content-Type")
				continue
			}
			fields[part.FormName()] = string(value)
		}
		_, _ = w.Write([]byte(`{"api":"2.0","content":{"text":"Today was great","html":"<p>Today was great</p>"},"usage":{"pages":1}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/v1", APIKey: "key"}, testExecutor(1))
	parsed, err := client.ParseDocument(context.Background(), "journal.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	if parsed.Text != "Today was great" || parsed.HTML != "<p>Today was great</p>" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
	if !strings.Contains(string(parsed.Metadata), `"usage"`) {
		t.Fatalf("expected raw response as metadata, got %s", parsed.Metadata)
	}
	if auth != "Bearer key" {
		t.Fatalf("expected bearer auth, got %q", auth)
	}
	if fileBody != "%PDF-1.4" || fileName != "journal.pdf" || fileType != "application/pdf" {
		t.Fatalf("unexpected document part: %q %q %q", fileBody, fileName, fileType)
	}
	want := map[string]string{
		"output_formats":  `["html","text"]`,
		"base64_encoding": `["table"]`,
		"ocr":             "auto",
		"coordinates":     "true",
		"model":           "document-parse",
	}
	for key, value := range want {
		if fields[key] != value {
			t.Fatalf("field %s: expected %q, got %q", key, value, fields[key])
		}
	}
}

func TestParseDocumentDefaultsMissingContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "key"}, testExecutor(1))
	parsed, err := client.ParseDocument(context.Background(), "a.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if parsed.Text != "" || parsed.HTML != "" {
		t.Fatalf("expected empty text and html, got %+v", parsed)
	}
}

func TestParseDocumentClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported document", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "key"}, testExecutor(3))
	_, err := client.ParseDocument(context.Background(), "a.png", "image/png", []byte("png"))
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Upstage API error: 400 - unsupported document") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestParseDocumentRetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"content":{"text":"ok","html":""}}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "key"}, testExecutor(3))
	parsed, err := client.ParseDocument(context.Background(), "a.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if parsed.Text != "ok" || calls.Load() != 3 {
		t.Fatalf("expected success on third call, got %q after %d calls", parsed.Text, calls.Load())
	}
}

func TestParseDocumentExhaustedRetriesAreTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "key"}, testExecutor(2))
	_, err := client.ParseDocument(context.Background(), "a.png", "image/png", []byte("png"))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

package upstage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
)

const parseOperation = "upstage.document_parse"

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls the Upstage document-digitization endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "document-parse"
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// ParseDocument implements ports.DocumentParser.
func (c *Client) ParseDocument(ctx context.Context, fileName, mimeType string, data []byte) (domain.ParsedDocument, error) {
	var raw []byte
	err := c.executor.Execute(ctx, parseOperation, func(callCtx context.Context) error {
		body, err := c.postDocument(callCtx, fileName, mimeType, data)
		if err != nil {
			return err
		}
		raw = body
		return nil
	}, resilience.ClassifyProviderError)
	if err != nil {
		return domain.ParsedDocument{}, resilience.WrapProviderError(parseOperation, err, resilience.ClassifyProviderError)
	}

	var response struct {
		Content struct {
			Text string `json:"text"`
			HTML string `json:"html"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return domain.ParsedDocument{}, domain.WrapError(domain.ErrProvider, parseOperation, fmt.Errorf("decode response: %w", err))
	}

	return domain.ParsedDocument{
		Text:     response.Content.Text,
		HTML:     response.Content.HTML,
		Metadata: json.RawMessage(raw),
	}, nil
}

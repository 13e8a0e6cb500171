package solar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const chatOperation = "solar.chat"

type Config struct {
	BaseURL          string
	APIKey           string
	Model            string
	Timeout          time.Duration
	StructuredOutput bool
	Vocabulary       domain.Vocabulary
}

// Client talks to the Upstage Solar chat completion endpoint through its
// OpenAI-compatible surface.
type Client struct {
	api        openai.Client
	model      string
	structured bool
	vocab      domain.Vocabulary
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/") + "/"
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	vocab := cfg.Vocabulary
	if len(vocab.Emotions) == 0 || len(vocab.Themes) == 0 {
		vocab = domain.DefaultVocabulary()
	}

	return &Client{
		api: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(cfg.APIKey),
			option.WithHTTPClient(&http.Client{Timeout: timeout}),
			option.WithMaxRetries(0),
		),
		model:      cfg.Model,
		structured: cfg.StructuredOutput,
		vocab:      vocab,
		executor:   executor,
	}
}

// AnalyzeMood implements ports.MoodProvider.
func (c *Client) AnalyzeMood(ctx context.Context, text string) (ports.MoodAnalysis, error) {
	content, raw, err := c.complete(ctx, buildMoodPrompt(c.vocab, text))
	if err != nil {
		return ports.MoodAnalysis{}, err
	}

	result, err := parseMoodContent(content)
	if err != nil {
		return ports.MoodAnalysis{}, err
	}
	return ports.MoodAnalysis{Result: result, APIResponse: raw}, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, json.RawMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "mood_analysis",
					Description: openai.String("Journal mood analysis JSON"),
					Schema:      moodSchema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	var completion *openai.ChatCompletion
	err := c.executor.Execute(ctx, chatOperation, func(callCtx context.Context) error {
		resp, err := c.api.Chat.Completions.New(callCtx, params, option.WithJSONSet("stream", false))
		if err != nil {
			return asStatusError(err)
		}
		completion = resp
		return nil
	}, resilience.ClassifyProviderError)
	if err != nil {
		return "", nil, resilience.WrapProviderError(chatOperation, err, resilience.ClassifyProviderError)
	}

	if len(completion.Choices) == 0 {
		return "", nil, domain.WrapError(domain.ErrProvider, chatOperation, errors.New("response has no choices"))
	}
	raw := json.RawMessage(completion.RawJSON())
	if !json.Valid(raw) {
		raw = nil
	}
	return completion.Choices[0].Message.Content, raw, nil
}

// asStatusError maps SDK API errors onto the shared provider status error so
// retry classification is identical for every provider.
func asStatusError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("solar completion: %w", &resilience.StatusError{
			Provider:   "Solar",
			Operation:  chatOperation,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Message,
		})
	}
	return fmt.Errorf("solar completion: %w", err)
}

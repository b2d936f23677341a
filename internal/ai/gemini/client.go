package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/smart-apply/internal/ai"
	"github.com/spigell/smart-apply/internal/logger"
	"github.com/spigell/smart-apply/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName          = "gemini"
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultTimeout        = 60 * time.Second
	defaultMaxRetries     = 3
	defaultMaxLogLength   = 200
)

// modelsAPI is the subset of *genai.Models used by the client.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config holds the Gemini connection and call settings.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Dimensions     int
	Temperature    float32
	MaxRetries     int
	Timeout        time.Duration
	MaxLogLength   int
}

// Client talks to the Gemini API. It implements ai.Generator and ai.Embedder
// and is meant to be created once per run and passed explicitly.
type Client struct {
	models         modelsAPI
	model          string
	embeddingModel string
	dimensions     int
	temperature    float32
	policy         retryPolicy
	maxLogLen      int
	logger         *zap.Logger
	observer       ai.CallObserver
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger, observer ai.CallObserver) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, cfg, log, observer), nil
}

func newClient(models modelsAPI, cfg Config, log *zap.Logger, observer ai.CallObserver) *Client {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}
	if observer == nil {
		observer = ai.NopObserver
	}

	return &Client{
		models:         models,
		model:          model,
		embeddingModel: embeddingModel,
		dimensions:     cfg.Dimensions,
		temperature:    cfg.Temperature,
		policy: retryPolicy{
			attempts:  retries,
			timeout:   timeout,
			baseDelay: time.Second,
			maxDelay:  30 * time.Second,
		},
		maxLogLen: maxLogLen,
		logger:    logger.WithCommonFields(log, providerName, model),
		observer:  observer,
	}
}

// Model returns the generation model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// EmbeddingModel returns the embedding model name.
func (c *Client) EmbeddingModel() string {
	if c == nil {
		return ""
	}
	return c.embeddingModel
}

// GenerateContent sends the prompt to Gemini and returns the concatenated
// text parts of the response.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.models == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	c.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}

	var output string
	err := c.policy.do(ctx, c.logger, "generate content", func(callCtx context.Context) error {
		start := time.Now()
		resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(prompt), cfg)
		if err == nil {
			output, err = responseText(resp)
		}
		c.observer.ObserveModelCall("generate", time.Since(start), err)
		return err
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

var errEmptyResponse = errors.New("gemini api returned empty response")

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errEmptyResponse
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errEmptyResponse
	}

	return output, nil
}

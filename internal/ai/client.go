// Package ai wraps the Anthropic API behind a small completion interface with
// retry, circuit breaking, concurrency limiting and resilient JSON parsing.
// Everything in modforge that talks to a model goes through this package.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Model constants. Tag generation and similarity judgments are short,
// structured tasks; module generation needs the stronger model.
const (
	// ModelSonnet is the high-end model for generation tasks
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for short structured judgments
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the generation model, checking MODFORGE_MODEL first.
func GetDefaultModel() string {
	if model := os.Getenv("MODFORGE_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// GetJudgmentModel returns the model for short judgment calls, checking
// MODFORGE_MODEL_JUDGMENT first.
func GetJudgmentModel() string {
	if model := os.Getenv("MODFORGE_MODEL_JUDGMENT"); model != "" {
		return model
	}
	return ModelHaiku
}

// Completer is the completion surface the rest of the codebase depends on.
// The similarity oracle and the generators take this interface so tests can
// substitute canned responses without network access.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single prompt completion request.
type Request struct {
	Prompt    string
	Operation string // short label for logs and errors
	Model     string // empty means the client default
	MaxTokens int    // 0 means 4096
}

// Config holds client configuration.
type Config struct {
	APIKey string // if empty, reads ANTHROPIC_API_KEY
	Model  string // default model (empty: GetDefaultModel())
	Retry  RetryConfig
	Logger *zap.Logger

	// RequestsPerSecond throttles outbound calls. 0 disables throttling.
	RequestsPerSecond float64
}

// Client is the production Completer backed by the Anthropic API.
type Client struct {
	client         *anthropic.Client
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
	limiter        *rate.Limiter
	logger         *zap.Logger
}

var _ Completer = (*Client)(nil)

// NewClient creates a new API client.
func NewClient(cfg *Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	c := &Client{
		client: &client,
		model:  model,
		retry:  retry,
		logger: logger,
	}

	if retry.CircuitBreakerEnabled {
		c.circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}
	if retry.MaxConcurrentCalls > 0 {
		c.concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return c, nil
}

// Model returns the client's default model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a prompt and returns the concatenated text blocks from the
// response. Retries, circuit breaking and throttling all happen inside.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	operation := req.Operation
	if operation == "" {
		operation = "completion"
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%s rate limit wait: %w", operation, err)
		}
	}

	startTime := time.Now()
	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	c.logger.Debug("model call completed",
		zap.String("operation", operation),
		zap.String("model", model),
		zap.Int64("input_tokens", response.Usage.InputTokens),
		zap.Int64("output_tokens", response.Usage.OutputTokens),
		zap.Duration("duration", time.Since(startTime)))

	return text, nil
}

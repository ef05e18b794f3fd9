package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"calmnest-api/internal/common"
	"calmnest-api/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
// The default base URL targets Groq.
type OpenAIProvider struct {
	config     config.LLMConfig
	client     openai.Client
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewOpenAIProvider creates a new OpenAIProvider instance
func NewOpenAIProvider(cfg config.LLMConfig, logger *zap.Logger) *OpenAIProvider {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = DefaultBaseURL
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = config.DefaultSystemPrompt
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	// Retries are driven by backoff below, not by the SDK.
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIEndpoint),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAIProvider{
		config: cfg,
		client: client,
		logger: logger,
		newBackOff: func() backoff.BackOff {
			strategy := backoff.NewExponentialBackOff()
			strategy.InitialInterval = 500 * time.Millisecond
			strategy.MaxInterval = 5 * time.Second
			strategy.MaxElapsedTime = time.Duration(cfg.Timeout) * time.Second
			strategy.Multiplier = 2.0
			return backoff.WithMaxRetries(strategy, uint64(maxRetries))
		},
	}
}

// Complete implements the Provider interface
func (p *OpenAIProvider) Complete(ctx context.Context, history []common.Turn) (string, error) {
	if err := p.ValidateConfig(); err != nil {
		return "", err
	}

	req := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.config.Model),
		Messages:    p.buildMessages(history),
		Temperature: openai.Float(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(p.config.MaxTokens))
	}

	var reply string
	attempt := 0
	operation := func() error {
		attempt++
		content, err := p.callAPI(ctx, req)
		if err != nil {
			if IsRetryable(err) {
				p.logger.Warn("Retryable completion error, will retry",
					zap.Int("attempt", attempt),
					zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		reply = content
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(p.newBackOff(), ctx)); err != nil {
		p.logger.Error("Completion failed",
			zap.String("model", p.config.Model),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return "", err
	}

	return reply, nil
}

func (p *OpenAIProvider) callAPI(ctx context.Context, req openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", EmptyResponseError{Model: p.config.Model}
	}

	p.logger.Debug("Completion received",
		zap.String("model", p.config.Model),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// buildMessages prefixes the persona and maps stored roles onto chat messages.
func (p *OpenAIProvider) buildMessages(history []common.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(p.config.SystemPrompt))

	for _, turn := range history {
		switch turn.Role {
		case common.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		case common.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	return messages
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return RateLimitError{ErrorMsg: apiErr.Message, RetryAfter: parseRetryAfter(apiErr.Response), Wrapped: err}
		}
		return NewAPIError(apiErr.StatusCode, strings.ToUpper(apiErr.Code), apiErr.Message, err)
	}

	if isNetworkFailure(err) {
		return NewNetworkError("chat completion", "request did not complete", err)
	}

	return err
}

// ValidateConfig implements the Provider interface
func (p *OpenAIProvider) ValidateConfig() error {
	if strings.TrimSpace(p.config.APIKey) == "" {
		return NewConfigurationError("api_key", "API key is required")
	}
	if strings.TrimSpace(p.config.Model) == "" {
		return NewConfigurationError("model", "model is required")
	}
	return nil
}

// GetModelInfo implements the Provider interface
func (p *OpenAIProvider) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:        p.config.Model,
		Provider:    "openai-compatible",
		BaseURL:     p.config.APIEndpoint,
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
	}
}

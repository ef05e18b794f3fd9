package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"calmnest-api/internal/common"
	"calmnest-api/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "llama-3.3-70b-versatile",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "logprobs": null,
    "message": {"role": "assistant", "content": "Let's breathe together.", "refusal": null}
  }],
  "usage": {"prompt_tokens": 20, "completion_tokens": 5, "total_tokens": 25}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc, maxRetries uint64) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewOpenAIProvider(config.LLMConfig{
		APIEndpoint:  server.URL + "/openai/v1",
		APIKey:       "test-key",
		Model:        "llama-3.3-70b-versatile",
		Timeout:      5,
		MaxRetries:   int(maxRetries),
		MaxTokens:    4096,
		Temperature:  0.6,
		SystemPrompt: "You are CalmNest.",
	}, zap.NewNop())
	p.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxRetries)
	}
	return p
}

func TestOpenAIProvider_Complete_SendsPersonaFirst(t *testing.T) {
	var captured recordedRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}, 0)

	reply, err := p.Complete(context.Background(), []common.Turn{
		{Role: common.RoleUser, Content: "I feel anxious"},
		{Role: common.RoleAssistant, Content: "I'm listening."},
		{Role: common.RoleUser, Content: "Work is a lot"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Let's breathe together.", reply)

	assert.Equal(t, "llama-3.3-70b-versatile", captured.Model)
	assert.Equal(t, 4096, captured.MaxTokens)
	assert.InDelta(t, 0.6, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "You are CalmNest.", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "Work is a lot", captured.Messages[3].Content)
}

func TestOpenAIProvider_Complete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream hiccup","type":"server_error","code":"internal"}}`)
			return
		}
		_, _ = io.WriteString(w, completionBody)
	}, 2)

	reply, err := p.Complete(context.Background(), []common.Turn{{Role: common.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Let's breathe together.", reply)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIProvider_Complete_DoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error","code":"model_not_found"}}`)
	}, 3)

	_, err := p.Complete(context.Background(), []common.Turn{{Role: common.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.False(t, IsRetryable(err))
}

func TestOpenAIProvider_Complete_RateLimitIsRetryable(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limit_exceeded"}}`)
	}, 2)

	_, err := p.Complete(context.Background(), []common.Turn{{Role: common.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "initial call plus two retries")

	var rateErr RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, time.Second, rateErr.RetryAfter)
}

func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}, 0)

	_, err := p.Complete(context.Background(), nil)
	var emptyErr EmptyResponseError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestOpenAIProvider_ValidateConfig(t *testing.T) {
	p := NewOpenAIProvider(config.LLMConfig{Model: "m"}, zap.NewNop())

	err := p.ValidateConfig()
	var cfgErr ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_key", cfgErr.Field)

	_, err = p.Complete(context.Background(), nil)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider(config.LLMConfig{APIKey: "k", Model: "m"}, zap.NewNop())

	info := p.GetModelInfo()
	assert.Equal(t, DefaultBaseURL, info.BaseURL)
	assert.Equal(t, "m", info.Name)
	assert.Equal(t, config.DefaultSystemPrompt, p.config.SystemPrompt)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewAPIError(http.StatusServiceUnavailable, "", "down", nil)))
	assert.True(t, IsRetryable(NewAPIError(http.StatusRequestTimeout, "", "slow", nil)))
	assert.False(t, IsRetryable(NewAPIError(http.StatusUnauthorized, "", "nope", nil)))
	assert.True(t, IsRetryable(NewNetworkError("chat", "reset", nil)))
	assert.True(t, IsRetryable(RateLimitError{ErrorMsg: "429"}))
	assert.False(t, IsRetryable(NewConfigurationError("api_key", "missing")))
	assert.False(t, IsRetryable(EmptyResponseError{}))
	assert.False(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(NewAPIError(http.StatusNotImplemented, "", "no", nil)))
}

package chatbot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"calmnest-api/internal/config"
	"calmnest-api/internal/mocks"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const getMeResult = `{"ok":true,"result":{"id":99,"is_bot":true,"first_name":"CalmNest","username":"calmnest_bot"}}`

type botAPIServer struct {
	mu       sync.Mutex
	requests map[string]url.Values
	replies  map[string]string
}

func newBotAPIServer(t *testing.T) (*botAPIServer, string) {
	t.Helper()
	api := &botAPIServer{
		requests: make(map[string]url.Values),
		replies: map[string]string{
			"getMe":         getMeResult,
			"sendMessage":   `{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":4200,"type":"private"},"text":"hi"}}`,
			"setWebhook":    `{"ok":true,"result":true,"description":"Webhook was set"}`,
			"deleteWebhook": `{"ok":true,"result":true}`,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		body, _ := io.ReadAll(r.Body)
		values, _ := url.ParseQuery(string(body))

		api.mu.Lock()
		api.requests[method] = values
		reply, ok := api.replies[method]
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			reply = `{"ok":false,"error_code":404,"description":"Not Found"}`
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(server.Close)

	return api, server.URL + "/bot%s/%s"
}

func (a *botAPIServer) request(method string) url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[method]
}

func (a *botAPIServer) reply(method, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replies[method] = body
}

func newTestTelegramProvider(t *testing.T) (TelegramProvider, *botAPIServer) {
	t.Helper()
	api, endpoint := newBotAPIServer(t)
	provider, err := NewTelegramProviderWithEndpoint(config.ChatbotConfig{Token: "123:abc", Timeout: 5}, endpoint, zap.NewNop())
	require.NoError(t, err)
	return provider, api
}

func TestTelegramProvider_SendMessageIsPlainText(t *testing.T) {
	provider, api := newTestTelegramProvider(t)

	require.NoError(t, provider.SendMessage(4200, "Good morning 🌅 <b>not bold</b>"))

	sent := api.request("sendMessage")
	assert.Equal(t, "4200", sent.Get("chat_id"))
	assert.Equal(t, "Good morning 🌅 <b>not bold</b>", sent.Get("text"))
	assert.Empty(t, sent.Get("parse_mode"))
}

func TestTelegramProvider_SendMessageError(t *testing.T) {
	provider, api := newTestTelegramProvider(t)
	api.reply("sendMessage", `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`)

	err := provider.SendMessage(4200, "hi")

	var apiErr TelegramAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Equal(t, "TOO_MANY_REQUESTS", apiErr.APIError)
	assert.Equal(t, 3, apiErr.RetryAfter)
	assert.True(t, IsTemporaryError(err))

	api.reply("sendMessage", `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
	err = provider.SendMessage(4200, "hi")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.False(t, IsTemporaryError(err))
	assert.True(t, IsChatUnreachable(err))
}

func TestTelegramProvider_SetWebhookWithSecret(t *testing.T) {
	provider, api := newTestTelegramProvider(t)

	require.NoError(t, provider.SetWebhook("https://calmnest.example/webhook", "s3cret"))

	req := api.request("setWebhook")
	assert.Equal(t, "https://calmnest.example/webhook", req.Get("url"))
	assert.Equal(t, "s3cret", req.Get("secret_token"))

	require.NoError(t, provider.SetWebhook("https://calmnest.example/webhook", ""))
	assert.False(t, api.request("setWebhook").Has("secret_token"))
}

func TestTelegramProvider_DeleteWebhookAndGetMe(t *testing.T) {
	provider, api := newTestTelegramProvider(t)

	require.NoError(t, provider.DeleteWebhook())
	assert.NotNil(t, api.request("deleteWebhook"))

	me, err := provider.GetMe()
	require.NoError(t, err)
	assert.Equal(t, "calmnest_bot", me.UserName)
}

func TestNewTelegramProvider_Validation(t *testing.T) {
	_, err := NewTelegramProvider(config.ChatbotConfig{}, zap.NewNop())
	var cfgErr ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "token", cfgErr.Field)

	api, endpoint := newBotAPIServer(t)
	api.reply("getMe", `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	_, err = NewTelegramProviderWithEndpoint(config.ChatbotConfig{Token: "bad"}, endpoint, zap.NewNop())
	assert.Error(t, err)
}

func TestWrapTelegramError(t *testing.T) {
	assert.NoError(t, WrapTelegramError(nil, "x"))

	err := WrapTelegramError(errors.New("connection reset"), "send_message")
	var apiErr TelegramAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())

	err = WrapTelegramError(&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, "send_message")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_REQUEST", apiErr.APIError)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Message())
	assert.True(t, IsChatUnreachable(err))

	assert.False(t, IsChatUnreachable(WrapTelegramError(&tgbotapi.Error{Code: 400, Message: "Bad Request: message text is empty"}, "send_message")))
	assert.Equal(t, "UNKNOWN_ERROR", GetTelegramErrorCode(999))
}

func TestNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockTelegramProvider(ctrl)
	notifier := NewNotifier(provider)

	provider.EXPECT().SendMessage(int64(11), "Good evening").Return(nil)
	require.NoError(t, notifier.Notify(context.Background(), 11, "Good evening"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, notifier.Notify(ctx, 11, "never sent"), context.Canceled)
}

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"calmnest-api/internal/config"
	"calmnest-api/internal/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// startPostgres runs a throwaway Postgres container for the calling test.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("test_calmnest"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := database.NewPostgresConnection(config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "test_user",
		Password:        "test_password",
		DBName:          "test_calmnest",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300,
	})
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

type sentMessage struct {
	ChatID string
	Text   string
}

// fakeTelegram is a Bot API stand-in that records every sendMessage.
type fakeTelegram struct {
	server *httptest.Server
	mu     sync.Mutex
	sent   []sentMessage
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		body, _ := io.ReadAll(r.Body)
		values, _ := url.ParseQuery(string(body))

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"CalmNest","username":"calmnest_bot"}}`)
		case "sendMessage":
			f.mu.Lock()
			f.sent = append(f.sent, sentMessage{ChatID: values.Get("chat_id"), Text: values.Get("text")})
			f.mu.Unlock()
			_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":%s,"type":"private"}}}`, values.Get("chat_id"))
		default:
			_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTelegram) endpoint() string {
	return f.server.URL + "/bot%s/%s"
}

func (f *fakeTelegram) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// fakeCompletions is an OpenAI-compatible chat completion endpoint. It
// replies with reply, or with status when status is not 200.
type fakeCompletions struct {
	server   *httptest.Server
	mu       sync.Mutex
	reply    string
	status   int
	requests [][]completionMessage
}

func newFakeCompletions(t *testing.T) *fakeCompletions {
	t.Helper()
	f := &fakeCompletions{reply: "Let's breathe together.", status: http.StatusOK}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []completionMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.requests = append(f.requests, req.Messages)
		status, reply := f.status, f.reply
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"upstream unavailable","type":"server_error"}}`)
			return
		}

		content, _ := json.Marshal(reply)
		_, _ = fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "finish_reason": "stop", "logprobs": null,
				"message": {"role": "assistant", "content": %s, "refusal": null}}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`, content)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCompletions) baseURL() string {
	return f.server.URL + "/openai/v1"
}

func (f *fakeCompletions) set(status int, reply string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.reply = status, reply
}

func (f *fakeCompletions) lastRequest() []completionMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeCompletions) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	f.status, f.reply = http.StatusOK, "Let's breathe together."
}

func textUpdate(updateID int, userID int64, text string) string {
	return fmt.Sprintf(`{"update_id": %d, "message": {"message_id": %d, "date": 1700000000,
		"from": {"id": %d, "is_bot": false, "first_name": "Sam"},
		"chat": {"id": %d, "type": "private"}, "text": %q}}`, updateID, updateID, userID, userID*100, text)
}

func commandUpdate(updateID int, userID int64, text string) string {
	command := strings.Fields(text)[0]
	return fmt.Sprintf(`{"update_id": %d, "message": {"message_id": %d, "date": 1700000000,
		"from": {"id": %d, "is_bot": false, "first_name": "Sam"},
		"chat": {"id": %d, "type": "private"}, "text": %q,
		"entities": [{"type": "bot_command", "offset": 0, "length": %d}]}}`, updateID, updateID, userID, userID*100, text, len(command))
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"calmnest-api/internal/mocks"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const validUpdate = `{"update_id": 123456, "message": {"message_id": 1, "date": 1700000000, "from": {"id": 12345, "first_name": "Sam"}, "chat": {"id": 12345, "type": "private"}, "text": "Hello"}}`

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func setupWebhookRouter(t *testing.T, secret string) (*gin.Engine, *mocks.MockChatbotService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	service := mocks.NewMockChatbotService(ctrl)

	router := gin.New()
	router.POST("/webhook", NewWebhookHandler(service, secret, testLogger()).HandleTelegramWebhook)
	return router, service
}

func postWebhook(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeOK(t *testing.T, w *httptest.ResponseRecorder) bool {
	t.Helper()
	var response struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.OK
}

func TestWebhookHandler_ForwardsUpdate(t *testing.T) {
	router, service := setupWebhookRouter(t, "")
	service.EXPECT().HandleWebhook(gomock.Any(), []byte(validUpdate)).Return(nil)

	w := postWebhook(router, validUpdate, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeOK(t, w))
}

func TestWebhookHandler_ServiceErrorStillReturns200(t *testing.T) {
	router, service := setupWebhookRouter(t, "")
	service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any()).Return(errors.New("processing error"))

	w := postWebhook(router, validUpdate, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeOK(t, w))
}

func TestWebhookHandler_RejectsBodiesBeforeService(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "invalid json{"},
		{"missing update id", `{"message": {"text": "hi"}}`},
		{"zero update id", `{"update_id": 0}`},
		{"array", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The mock has no expectations, so any service call fails the test.
			router, _ := setupWebhookRouter(t, "")

			w := postWebhook(router, tt.body, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, decodeOK(t, w))
		})
	}
}

func TestWebhookHandler_SecretToken(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		forwarded  bool
	}{
		{"missing header", nil, http.StatusUnauthorized, false},
		{"wrong secret", map[string]string{SecretTokenHeader: "nope"}, http.StatusUnauthorized, false},
		{"matching secret", map[string]string{SecretTokenHeader: "s3cret"}, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := setupWebhookRouter(t, "s3cret")
			if tt.forwarded {
				service.EXPECT().HandleWebhook(gomock.Any(), gomock.Any()).Return(nil)
			}

			w := postWebhook(router, validUpdate, tt.headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.forwarded, decodeOK(t, w))
		})
	}
}

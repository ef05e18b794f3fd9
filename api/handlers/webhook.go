package handlers

import (
	"crypto/subtle"
	"io"
	"net/http"

	"calmnest-api/internal/chatbot"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/valyala/fastjson"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// maxWebhookBody bounds how much of a request body is read.
const maxWebhookBody = 1 << 20

// WebhookHandler handles Telegram webhook requests
type WebhookHandler struct {
	chatbotService chatbot.ChatbotService
	secretToken    string
	logger         *logger.Logger
	parsers        fastjson.ParserPool
}

// NewWebhookHandler creates a new WebhookHandler. An empty secretToken
// disables the header check.
func NewWebhookHandler(chatbotService chatbot.ChatbotService, secretToken string, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		chatbotService: chatbotService,
		secretToken:    secretToken,
		logger:         logger,
	}
}

// HandleTelegramWebhook processes incoming Telegram webhook updates. Every
// request that passes the secret check gets a 200 so Telegram does not retry.
func (h *WebhookHandler) HandleTelegramWebhook(c *gin.Context) {
	log := requestLogger(c, h.logger)

	if h.secretToken != "" {
		got := c.GetHeader(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secretToken)) != 1 {
			log.Warn("Rejected webhook with invalid secret token", "client_ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false})
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Error("Failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	parser := h.parsers.Get()
	value, err := parser.ParseBytes(body)
	if err != nil {
		h.parsers.Put(parser)
		log.Warn("Received non-JSON webhook body", "body_size", len(body), "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}
	updateID := value.GetInt64("update_id")
	h.parsers.Put(parser)

	if updateID <= 0 {
		log.Warn("Received webhook without update_id", "body_size", len(body))
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	log = &logger.Logger{SugaredLogger: log.With("update_id", updateID)}
	log.Info("Received Telegram webhook", "body_size", len(body))

	if err := h.chatbotService.HandleWebhook(c.Request.Context(), body); err != nil {
		log.Error("Failed to process webhook", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// requestLogger returns the request-scoped logger set by the logging
// middleware, or fallback when the middleware is not installed.
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return fallback
}

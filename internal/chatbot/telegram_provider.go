package chatbot

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"calmnest-api/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramProvider implements the TelegramProvider interface using the telegram-bot-api library
type telegramProvider struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramProvider creates a provider against the public Bot API.
func NewTelegramProvider(cfg config.ChatbotConfig, logger *zap.Logger) (TelegramProvider, error) {
	return NewTelegramProviderWithEndpoint(cfg, tgbotapi.APIEndpoint, logger)
}

// NewTelegramProviderWithEndpoint creates a provider against apiEndpoint, a
// format string taking the token and method name.
func NewTelegramProviderWithEndpoint(cfg config.ChatbotConfig, apiEndpoint string, logger *zap.Logger) (TelegramProvider, error) {
	if cfg.Token == "" {
		return nil, NewConfigurationError("token", "telegram bot token is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// NewBotAPIWithClient validates the token with a getMe call.
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, apiEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot initialized successfully", zap.String("username", bot.Self.UserName))

	return &telegramProvider{
		bot:    bot,
		logger: logger,
	}, nil
}

// SendMessage sends a plain text message to the specified chat
func (p *telegramProvider) SendMessage(chatID int64, text string) error {
	p.logger.Debug("Sending message",
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(text)))

	if _, err := p.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		p.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return WrapTelegramError(err, "send_message")
	}

	return nil
}

// SetWebhook configures the webhook URL for receiving updates
func (p *telegramProvider) SetWebhook(webhookURL, secretToken string) error {
	p.logger.Info("Setting webhook", zap.String("webhook_url", webhookURL))

	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secretToken)

	if _, err := p.bot.MakeRequest("setWebhook", params); err != nil {
		p.logger.Error("Failed to set webhook",
			zap.String("webhook_url", webhookURL),
			zap.Error(err))
		return WrapTelegramError(err, "set_webhook")
	}

	p.logger.Info("Webhook set successfully", zap.String("webhook_url", webhookURL))
	return nil
}

// DeleteWebhook removes the configured webhook
func (p *telegramProvider) DeleteWebhook() error {
	p.logger.Info("Deleting webhook")

	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.logger.Error("Failed to delete webhook", zap.Error(err))
		return WrapTelegramError(err, "delete_webhook")
	}

	p.logger.Info("Webhook deleted successfully")
	return nil
}

// GetMe returns information about the bot
func (p *telegramProvider) GetMe() (tgbotapi.User, error) {
	me, err := p.bot.GetMe()
	if err != nil {
		return tgbotapi.User{}, WrapTelegramError(err, "get_me")
	}
	return me, nil
}

// WrapTelegramError converts a Bot API failure into a TelegramAPIError,
// keeping the status code and retry hint when Telegram supplied them.
func WrapTelegramError(err error, operation string) error {
	if err == nil {
		return nil
	}

	apiErr := TelegramAPIError{
		Operation:   operation,
		StatusCode:  http.StatusInternalServerError,
		Description: err.Error(),
		Cause:       err,
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		apiErr.StatusCode = tgErr.Code
		apiErr.Description = tgErr.Message
		apiErr.RetryAfter = tgErr.RetryAfter
	}
	apiErr.APIError = GetTelegramErrorCode(apiErr.StatusCode)

	return apiErr
}

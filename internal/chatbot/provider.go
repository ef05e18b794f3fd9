package chatbot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramProvider defines the contract for Telegram API operations
type TelegramProvider interface {
	// SendMessage sends a plain text message to the specified chat
	SendMessage(chatID int64, text string) error

	// SetWebhook registers the webhook URL. A non-empty secretToken is echoed
	// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
	SetWebhook(webhookURL, secretToken string) error

	// DeleteWebhook removes the configured webhook
	DeleteWebhook() error

	// GetMe returns information about the bot
	GetMe() (tgbotapi.User, error)
}

package chatbot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookParser provides utilities for parsing Telegram webhook updates
type WebhookParser struct{}

// NewWebhookParser creates a new WebhookParser instance
func NewWebhookParser() *WebhookParser {
	return &WebhookParser{}
}

// ParseUpdate unmarshals webhook data into a Telegram Update struct
func (p *WebhookParser) ParseUpdate(updateData []byte) (*tgbotapi.Update, error) {
	if len(updateData) == 0 {
		return nil, fmt.Errorf("empty update data")
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(updateData, &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update data: %w", err)
	}

	if update.UpdateID <= 0 {
		return nil, fmt.Errorf("invalid update: missing update ID")
	}

	return &update, nil
}

// ExtractMessage returns the actionable part of an update. ok is false for
// updates the bot ignores: no message, no sender, no chat, or no text.
func (p *WebhookParser) ExtractMessage(update *tgbotapi.Update) (msg InboundMessage, ok bool) {
	if update == nil || update.Message == nil {
		return InboundMessage{}, false
	}

	m := update.Message
	if m.From == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return InboundMessage{}, false
	}

	return InboundMessage{
		UpdateID:  update.UpdateID,
		UserID:    m.From.ID,
		ChatID:    m.Chat.ID,
		Text:      m.Text,
		IsCommand: m.IsCommand(),
	}, true
}

// ExtractCommand parses bot commands from messages. The command name is
// lower-cased; args are the whitespace-separated words after it.
func (p *WebhookParser) ExtractCommand(message *tgbotapi.Message) (Command, []string, error) {
	if message == nil {
		return "", nil, fmt.Errorf("message is nil")
	}

	if !message.IsCommand() {
		return "", nil, fmt.Errorf("message is not a command")
	}

	name := strings.ToLower(message.Command())
	return Command(name), strings.Fields(message.CommandArguments()), nil
}

// BuildCorrelationID generates a unique correlation ID for tracking
func (p *WebhookParser) BuildCorrelationID(update *tgbotapi.Update) string {
	if update == nil {
		return fmt.Sprintf("corr_%d", time.Now().UnixNano())
	}

	if update.Message != nil {
		return fmt.Sprintf("msg_%d_%d", update.UpdateID, update.Message.MessageID)
	}

	return fmt.Sprintf("upd_%d", update.UpdateID)
}

package chatbot

import (
	"context"
	"fmt"

	"calmnest-api/internal/conversation"
	"calmnest-api/internal/events"

	"go.uber.org/zap"
)

// ChatbotService defines the interface for chatbot operations
type ChatbotService interface {
	HandleWebhook(ctx context.Context, webhookData []byte) error
}

// Responder turns one user message into a reply.
type Responder interface {
	Respond(ctx context.Context, userID, address int64, text string) conversation.Reply
}

// chatbotService implements the ChatbotService interface
type chatbotService struct {
	eventBus         events.EventBus
	logger           *zap.Logger
	provider         TelegramProvider
	parser           *WebhookParser
	commandProcessor *CommandProcessor
	responder        Responder
}

// NewChatbotService wires the webhook path. Free text is handed to responder
// on an async event subscription so the webhook call returns immediately.
func NewChatbotService(eventBus events.EventBus, provider TelegramProvider, directory CheckinDirectory, responder Responder, logger *zap.Logger) (ChatbotService, error) {
	service := &chatbotService{
		eventBus:         eventBus,
		logger:           logger,
		provider:         provider,
		parser:           NewWebhookParser(),
		commandProcessor: NewCommandProcessor(directory, logger),
		responder:        responder,
	}

	if err := eventBus.SubscribeAsync(events.TopicMessageReceived, service.handleMessageReceived); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", events.TopicMessageReceived, err)
	}

	return service, nil
}

// HandleWebhook processes incoming webhook data from Telegram. Only malformed
// payloads return an error; updates without usable text are ignored.
func (s *chatbotService) HandleWebhook(ctx context.Context, webhookData []byte) error {
	update, err := s.parser.ParseUpdate(webhookData)
	if err != nil {
		s.logger.Warn("Failed to parse webhook update", zap.Error(err))
		return WrapParsingError(err, "telegram_update")
	}

	correlationID := s.parser.BuildCorrelationID(update)
	logger := s.logger.With(zap.String("correlation_id", correlationID))

	msg, ok := s.parser.ExtractMessage(update)
	if !ok {
		logger.Debug("Ignoring update without text message", zap.Int("update_id", update.UpdateID))
		return nil
	}
	logger = logger.With(zap.Int64("user_id", msg.UserID))

	if msg.IsCommand {
		command, args, err := s.parser.ExtractCommand(update.Message)
		if err != nil {
			return WrapParsingError(err, "command")
		}
		s.handleCommand(ctx, logger, msg, command, args)
		return nil
	}

	logger.Info("Processing text message", zap.Int("text_length", len(msg.Text)))

	return s.eventBus.Publish(events.TopicMessageReceived, events.MessageReceived{
		Event:  events.NewEventWithCorrelation(correlationID),
		UserID: msg.UserID,
		ChatID: msg.ChatID,
		Text:   msg.Text,
	})
}

func (s *chatbotService) handleCommand(ctx context.Context, logger *zap.Logger, msg InboundMessage, command Command, args []string) {
	logger.Info("Processing command", zap.String("command", string(command)))

	reply, err := s.commandProcessor.Process(ctx, msg.UserID, msg.ChatID, command, args)
	if err != nil {
		logger.Error("Command processing failed",
			zap.String("command", string(command)),
			zap.Error(err))
		reply = commandErrorText
	}

	if err := s.provider.SendMessage(msg.ChatID, reply); err != nil {
		logger.Error("Failed to send command reply", zap.Error(err))
	}
}

// handleMessageReceived runs on the event bus's goroutine, detached from the
// webhook request that published the event.
func (s *chatbotService) handleMessageReceived(event events.MessageReceived) {
	logger := s.logger.With(
		zap.String("correlation_id", event.CorrelationID),
		zap.Int64("user_id", event.UserID))

	reply := s.responder.Respond(context.Background(), event.UserID, event.ChatID, event.Text)

	if err := s.provider.SendMessage(event.ChatID, reply.Text); err != nil {
		if IsChatUnreachable(err) {
			logger.Warn("Chat unreachable, reply dropped", zap.Error(err))
			return
		}
		logger.Error("Failed to send reply",
			zap.Bool("fallback", reply.Fallback),
			zap.Error(err))
		return
	}

	logger.Debug("Reply sent", zap.Bool("fallback", reply.Fallback))
}

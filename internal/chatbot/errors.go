package chatbot

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ChatbotError is implemented by every error this package returns.
type ChatbotError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// TelegramAPIError is a failed Bot API call. StatusCode is Telegram's
// error_code, or 500 when the request never got an answer.
type TelegramAPIError struct {
	Operation   string
	StatusCode  int
	APIError    string
	Description string
	RetryAfter  int
	Cause       error
}

func (e TelegramAPIError) Error() string {
	return fmt.Sprintf("telegram %s failed: %s (code %d)", e.Operation, e.Description, e.StatusCode)
}

func (e TelegramAPIError) Code() string    { return "TELEGRAM_API_ERROR" }
func (e TelegramAPIError) Message() string { return e.Description }
func (e TelegramAPIError) Unwrap() error   { return e.Cause }

func (e TelegramAPIError) Temporary() bool {
	return e.RetryAfter > 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// ChatUnreachable reports failures no retry can fix: the user blocked the
// bot, deleted their account, or the chat no longer exists.
func (e TelegramAPIError) ChatUnreachable() bool {
	if e.StatusCode == http.StatusForbidden {
		return true
	}
	return e.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(e.Description), "chat not found")
}

// WebhookParsingError means a webhook body was not a usable Telegram update.
type WebhookParsingError struct {
	UpdateType string
	Details    string
	Cause      error
}

func (e WebhookParsingError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid %s: %s", e.UpdateType, e.Details)
	}
	return fmt.Sprintf("invalid %s: %s: %v", e.UpdateType, e.Details, e.Cause)
}

func (e WebhookParsingError) Code() string    { return "WEBHOOK_PARSING_ERROR" }
func (e WebhookParsingError) Message() string { return e.Details }
func (e WebhookParsingError) Temporary() bool { return false }
func (e WebhookParsingError) Unwrap() error   { return e.Cause }

// ConfigurationError reports a provider setting that cannot work.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("chatbot config %s: %s", e.Field, e.Reason)
}

func (e ConfigurationError) Code() string    { return "CONFIGURATION_ERROR" }
func (e ConfigurationError) Message() string { return e.Reason }
func (e ConfigurationError) Temporary() bool { return false }

// WrapParsingError wraps err as a WebhookParsingError for updateType.
func WrapParsingError(err error, updateType string) error {
	if err == nil {
		return nil
	}
	return WebhookParsingError{
		UpdateType: updateType,
		Details:    "failed to parse webhook data",
		Cause:      err,
	}
}

func NewConfigurationError(field, reason string) error {
	return ConfigurationError{Field: field, Reason: reason}
}

// IsTemporaryError reports whether retrying err later may succeed.
func IsTemporaryError(err error) bool {
	var chatbotErr ChatbotError
	return errors.As(err, &chatbotErr) && chatbotErr.Temporary()
}

func IsWebhookParsingError(err error) bool {
	var parsingErr WebhookParsingError
	return errors.As(err, &parsingErr)
}

// IsChatUnreachable reports whether err means messages to the chat can no
// longer be delivered.
func IsChatUnreachable(err error) bool {
	var apiErr TelegramAPIError
	return errors.As(err, &apiErr) && apiErr.ChatUnreachable()
}

// GetTelegramErrorCode names an error_code, e.g. 429 is TOO_MANY_REQUESTS.
func GetTelegramErrorCode(statusCode int) string {
	text := http.StatusText(statusCode)
	if text == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(text))
}

package chatbot

import (
	"context"
)

// Notifier delivers check-in texts through the Telegram provider.
type Notifier struct {
	provider TelegramProvider
}

func NewNotifier(provider TelegramProvider) *Notifier {
	return &Notifier{provider: provider}
}

func (n *Notifier) Notify(ctx context.Context, address int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.provider.SendMessage(address, text)
}

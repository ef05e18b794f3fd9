package user

import (
	"context"

	"calmnest-api/internal/slot"
)

// Directory is the durable record of every known user.
type Directory interface {
	// Register inserts an unseen user with check-ins enabled, or updates only
	// the delivery address of a known one.
	Register(ctx context.Context, userID, address int64) error

	// SetCheckinEnabled is a no-op for unknown users.
	SetCheckinEnabled(ctx context.Context, userID int64, enabled bool) error

	// GetCheckinEnabled returns false for unknown users.
	GetCheckinEnabled(ctx context.Context, userID int64) (bool, error)

	// ListCheckinSubscribers returns every opted-in user in no particular order.
	ListCheckinSubscribers(ctx context.Context) ([]Subscriber, error)

	// RecordCheckinSlot overwrites the last check-in slot unconditionally.
	RecordCheckinSlot(ctx context.Context, userID int64, s slot.Slot) error

	// Get returns common.NotFoundError for unknown users.
	Get(ctx context.Context, userID int64) (*User, error)
}

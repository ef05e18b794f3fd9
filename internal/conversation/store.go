package conversation

import (
	"context"

	"calmnest-api/internal/common"
)

// Store is the append-only per-user message log.
type Store interface {
	// Append adds one message stamped with the current time.
	Append(ctx context.Context, userID int64, role common.Role, content string) error

	// History returns every message for the user, oldest first.
	History(ctx context.Context, userID int64) ([]common.Turn, error)
}

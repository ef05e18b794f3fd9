package conversation

import (
	"context"

	"calmnest-api/internal/common"
)

// Assembler builds the completion context for a user from the stored history.
// A window of n > 0 keeps only the n most recent turns; 0 keeps everything.
type Assembler struct {
	store  Store
	window int
}

func NewAssembler(store Store, window int) *Assembler {
	if window < 0 {
		window = 0
	}
	return &Assembler{store: store, window: window}
}

// BuildContext returns the user's turns oldest first with the retention
// window applied. The persona prompt is not included.
func (a *Assembler) BuildContext(ctx context.Context, userID int64) ([]common.Turn, error) {
	history, err := a.store.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	if a.window > 0 && len(history) > a.window {
		history = history[len(history)-a.window:]
	}

	return history, nil
}

func (a *Assembler) Window() int {
	return a.window
}

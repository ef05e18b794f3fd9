// Package checkin sends opt-in check-in messages, at most one per user per
// day-part.
package checkin

import (
	"context"
	"sync"
	"time"

	"calmnest-api/internal/common"
	"calmnest-api/internal/slot"
	"calmnest-api/internal/user"

	"go.uber.org/zap"
)

// Notifier delivers a text to a chat address.
type Notifier interface {
	Notify(ctx context.Context, address int64, text string) error
}

// SubscriberStore is the part of the user directory the dispatcher reads and
// writes. It is the only state a dispatch run depends on.
type SubscriberStore interface {
	ListCheckinSubscribers(ctx context.Context) ([]user.Subscriber, error)
	RecordCheckinSlot(ctx context.Context, userID int64, s slot.Slot) error
}

type Config struct {
	// Location is the zone whose wall clock decides the current slot.
	Location  *time.Location
	Workers   int
	Templates Templates
}

// Report summarizes one dispatch run.
type Report struct {
	Slot           slot.Slot
	Subscribers    int
	Sent           int
	Skipped        int
	Failed         int
	RecordFailures int
	Duration       time.Duration
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeFailed
	outcomeRecordFailed
)

type Dispatcher struct {
	store    SubscriberStore
	notifier Notifier
	clock    common.Clock
	config   Config
	logger   *zap.Logger
}

func NewDispatcher(store SubscriberStore, notifier Notifier, clock common.Clock, cfg Config, logger *zap.Logger) (*Dispatcher, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Templates == nil {
		cfg.Templates = DefaultTemplates()
	}
	if err := cfg.Templates.Validate(); err != nil {
		return nil, err
	}

	return &Dispatcher{
		store:    store,
		notifier: notifier,
		clock:    clock,
		config:   cfg,
		logger:   logger,
	}, nil
}

// CurrentSlot returns the slot for the dispatcher's clock and location.
func (d *Dispatcher) CurrentSlot() slot.Slot {
	return slot.For(d.clock.Now().In(d.config.Location))
}

// Dispatch runs one pass over all subscribers. Subscribers already notified
// in the current slot are skipped. A slot is recorded only after a
// successful send, and one recipient's failure never stops the batch.
// The returned error is non-nil only when the subscriber list could not be
// read or ctx ended the run early.
func (d *Dispatcher) Dispatch(ctx context.Context) (Report, error) {
	start := time.Now()
	current := d.CurrentSlot()
	report := Report{Slot: current}

	subscribers, err := d.store.ListCheckinSubscribers(ctx)
	if err != nil {
		return report, err
	}
	report.Subscribers = len(subscribers)

	text := d.config.Templates[current]
	jobs := make(chan user.Subscriber)
	results := make(chan outcome, len(subscribers))

	var wg sync.WaitGroup
	for i := 0; i < d.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				results <- d.deliver(ctx, sub, current, text)
			}
		}()
	}

feed:
	for _, sub := range subscribers {
		if sub.LastSlot == current {
			report.Skipped++
			continue
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- sub:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	for o := range results {
		switch o {
		case outcomeSent:
			report.Sent++
		case outcomeFailed:
			report.Failed++
		case outcomeRecordFailed:
			report.Sent++
			report.RecordFailures++
		}
	}
	report.Duration = time.Since(start)

	d.logger.Info("Check-in dispatch completed",
		zap.String("slot", current.String()),
		zap.Int("subscribers", report.Subscribers),
		zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("record_failures", report.RecordFailures),
		zap.Duration("duration", report.Duration))

	return report, ctx.Err()
}

func (d *Dispatcher) deliver(ctx context.Context, sub user.Subscriber, current slot.Slot, text string) outcome {
	logger := d.logger.With(
		zap.Int64("user_id", sub.UserID),
		zap.String("slot", current.String()))

	if err := d.notifier.Notify(ctx, sub.Address, text); err != nil {
		logger.Warn("Check-in delivery failed", zap.Int64("chat_id", sub.Address), zap.Error(err))
		return outcomeFailed
	}

	if err := d.store.RecordCheckinSlot(ctx, sub.UserID, current); err != nil {
		// The message went out; the user may get a repeat next tick.
		logger.Error("Failed to record check-in slot", zap.Error(err))
		return outcomeRecordFailed
	}

	logger.Debug("Check-in sent")
	return outcomeSent
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"calmnest-api/internal/checkin"
	"calmnest-api/internal/config"

	"go.uber.org/zap"
)

// Dispatcher runs one check-in pass.
type Dispatcher interface {
	Dispatch(ctx context.Context) (checkin.Report, error)
}

// Scheduler defines the interface for the background check-in scheduler
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	RunOnce(ctx context.Context) (checkin.Report, error)
	GetMetrics() *SchedulerMetrics
}

// scheduler implements the Scheduler interface
type scheduler struct {
	config     config.SchedulerConfig
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *SchedulerMetrics

	ctx    context.Context
	cancel context.CancelFunc

	// tickMu keeps RunOnce and the ticker from dispatching at the same time.
	tickMu  sync.Mutex
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg config.SchedulerConfig, dispatcher Dispatcher, logger *zap.Logger) (Scheduler, error) {
	if cfg.PollInterval <= 0 {
		return nil, NewConfigurationError("poll_interval", cfg.PollInterval, "must be greater than 0")
	}
	if cfg.WorkerCount <= 0 {
		return nil, NewConfigurationError("worker_count", cfg.WorkerCount, "must be greater than 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, NewConfigurationError("shutdown_timeout", cfg.ShutdownTimeout, "must be greater than 0")
	}
	if dispatcher == nil {
		return nil, NewConfigurationError("dispatcher", nil, "is required")
	}

	interval := time.Duration(cfg.PollInterval) * time.Second
	return &scheduler{
		config:     cfg,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    NewSchedulerMetrics(2*interval + time.Minute),
	}, nil
}

// Start launches the tick loop. It returns immediately.
func (s *scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.metrics.MarkStarted()

	s.logger.Info("Starting check-in scheduler",
		zap.Int("poll_interval_seconds", s.config.PollInterval),
		zap.Int("worker_count", s.config.WorkerCount),
		zap.Bool("run_on_start", s.config.RunOnStart))

	s.wg.Add(1)
	go s.loop()

	return nil
}

// Stop gracefully shuts down the scheduler
func (s *scheduler) Stop() error {
	if !s.running.Load() {
		return ErrNotRunning
	}

	s.logger.Info("Stopping check-in scheduler...")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Duration(s.config.ShutdownTimeout) * time.Second):
		s.logger.Warn("Scheduler shutdown timed out, a dispatch may still be running")
		return &ShutdownError{TimeoutSeconds: s.config.ShutdownTimeout}
	}

	s.running.Store(false)
	s.logger.Info("Check-in scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is currently running
func (s *scheduler) IsRunning() bool {
	return s.running.Load()
}

// GetMetrics returns the current scheduler metrics
func (s *scheduler) GetMetrics() *SchedulerMetrics {
	return s.metrics
}

// RunOnce performs one tick synchronously, outside the ticker.
func (s *scheduler) RunOnce(ctx context.Context) (checkin.Report, error) {
	return s.tick(ctx)
}

func (s *scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Duration(s.config.PollInterval) * time.Second)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runTick()
	}

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Scheduler loop stopping due to context cancellation")
			return
		case <-ticker.C:
			s.runTick()
		}
	}
}

func (s *scheduler) runTick() {
	if _, err := s.tick(s.ctx); err != nil {
		s.logger.Error("Check-in tick failed", zap.Error(err))
	}
}

// tick dispatches once. A panic in the dispatcher is recovered and reported
// as a tick error so the loop keeps running.
func (s *scheduler) tick(ctx context.Context) (report checkin.Report, err error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Dispatch panic recovered", zap.Any("panic", r))
			err = &TickError{Operation: "dispatch", Cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			s.metrics.RecordTickError(err)
			return
		}
		s.metrics.RecordTick(report, time.Since(start))
	}()

	report, err = s.dispatcher.Dispatch(ctx)
	if err != nil {
		return report, &TickError{Operation: "dispatch", Cause: err}
	}
	return report, nil
}

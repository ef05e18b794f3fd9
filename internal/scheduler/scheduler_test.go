package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"calmnest-api/internal/checkin"
	"calmnest-api/internal/config"
	"calmnest-api/internal/slot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDispatcher struct {
	calls  atomic.Int32
	report checkin.Report
	err    error
	panics bool
	block  chan struct{}
}

func (d *fakeDispatcher) Dispatch(ctx context.Context) (checkin.Report, error) {
	d.calls.Add(1)
	if d.panics {
		panic("dispatcher exploded")
	}
	if d.block != nil {
		<-d.block
	}
	return d.report, d.err
}

func validConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		PollInterval:    1,
		WorkerCount:     2,
		ShutdownTimeout: 5,
		Enabled:         true,
	}
}

func TestNewScheduler_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.SchedulerConfig)
		expectedError string
	}{
		{"invalid poll interval", func(c *config.SchedulerConfig) { c.PollInterval = 0 }, "poll_interval"},
		{"invalid worker count", func(c *config.SchedulerConfig) { c.WorkerCount = 0 }, "worker_count"},
		{"invalid shutdown timeout", func(c *config.SchedulerConfig) { c.ShutdownTimeout = -1 }, "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			_, err := NewScheduler(cfg, &fakeDispatcher{}, zap.NewNop())
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}

	_, err := NewScheduler(validConfig(), nil, zap.NewNop())
	assert.True(t, IsConfigurationError(err))
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(validConfig(), &fakeDispatcher{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_DoubleStartStop(t *testing.T) {
	s, err := NewScheduler(validConfig(), &fakeDispatcher{}, zap.NewNop())
	require.NoError(t, err)

	err = s.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, s.Stop())
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	dispatcher := &fakeDispatcher{report: checkin.Report{Slot: slot.Morning, Sent: 2, Skipped: 1}}
	s, err := NewScheduler(validConfig(), dispatcher, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return dispatcher.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	assert.Eventually(t, func() bool {
		return s.GetMetrics().GetMetricsSummary().Ticks >= 1
	}, time.Second, 20*time.Millisecond)

	summary := s.GetMetrics().GetMetricsSummary()
	assert.GreaterOrEqual(t, summary.CheckinsSent, int64(2))
	assert.Equal(t, "morning", s.GetMetrics().GetHealthStatus().LastSlot)
}

func TestScheduler_RunOnStart(t *testing.T) {
	cfg := validConfig()
	cfg.PollInterval = 3600
	cfg.RunOnStart = true

	dispatcher := &fakeDispatcher{}
	s, err := NewScheduler(cfg, dispatcher, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	assert.Eventually(t, func() bool {
		return dispatcher.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_RunOnce(t *testing.T) {
	dispatcher := &fakeDispatcher{report: checkin.Report{Slot: slot.Evening, Sent: 3, Failed: 1}}
	s, err := NewScheduler(validConfig(), dispatcher, zap.NewNop())
	require.NoError(t, err)

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Sent)

	summary := s.GetMetrics().GetMetricsSummary()
	assert.Equal(t, int64(1), summary.Ticks)
	assert.Equal(t, int64(3), summary.CheckinsSent)
	assert.Equal(t, int64(1), summary.DeliveryFailures)
}

func TestScheduler_DispatchErrorIsRecorded(t *testing.T) {
	cause := errors.New("database connection failed")
	s, err := NewScheduler(validConfig(), &fakeDispatcher{err: cause}, zap.NewNop())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTemporaryError(err))

	var tickErr *TickError
	require.ErrorAs(t, err, &tickErr)
	assert.Equal(t, "dispatch", tickErr.Operation)

	assert.Equal(t, int64(1), s.GetMetrics().GetMetricsSummary().TickErrors)
	assert.False(t, s.GetMetrics().IsHealthy(), "every tick failed")
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	s, err := NewScheduler(validConfig(), &fakeDispatcher{panics: true}, zap.NewNop())
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatcher exploded")
	assert.Equal(t, int64(1), s.GetMetrics().GetMetricsSummary().TickErrors)
}

func TestScheduler_ShutdownTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.ShutdownTimeout = 1
	cfg.RunOnStart = true

	dispatcher := &fakeDispatcher{block: make(chan struct{})}
	defer close(dispatcher.block)

	s, err := NewScheduler(cfg, dispatcher, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return dispatcher.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)

	err = s.Stop()
	var shutdownErr *ShutdownError
	require.ErrorAs(t, err, &shutdownErr)
	assert.Equal(t, 1, shutdownErr.TimeoutSeconds)
}

func TestSchedulerMetrics_Health(t *testing.T) {
	m := NewSchedulerMetrics(time.Minute)
	assert.True(t, m.IsHealthy(), "never started")

	m.MarkStarted()
	assert.True(t, m.IsHealthy(), "started, first tick pending")

	m.RecordTick(checkin.Report{Slot: slot.Morning}, 10*time.Millisecond)
	m.RecordTick(checkin.Report{Slot: slot.Night}, 20*time.Millisecond)
	m.RecordTickError(errors.New("x"))
	status := m.GetHealthStatus()
	assert.True(t, status.IsHealthy)
	assert.InDelta(t, 1.0/3.0, status.ErrorRate, 0.0001)
	assert.Equal(t, "15ms", status.AverageTickTime)
	assert.Equal(t, "night", status.LastSlot)

	stale := NewSchedulerMetrics(time.Nanosecond)
	stale.MarkStarted()
	time.Sleep(time.Millisecond)
	assert.False(t, stale.IsHealthy())

	m.Reset()
	assert.Zero(t, m.GetMetricsSummary().Ticks)
}

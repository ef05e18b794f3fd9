package scheduler

import (
	"sync"
	"time"

	"calmnest-api/internal/checkin"
)

// SchedulerMetrics tracks tick outcomes and health for the scheduler
type SchedulerMetrics struct {
	mu               sync.RWMutex
	Ticks            int64
	TickErrors       int64
	CheckinsSent     int64
	CheckinsSkipped  int64
	DeliveryFailures int64
	RecordFailures   int64
	AverageTickTime  time.Duration
	LastTickTime     time.Time
	LastSlot         string
	startedAt        time.Time
	staleAfter       time.Duration
	totalTickTime    time.Duration
}

// HealthStatus represents the health status of the scheduler
type HealthStatus struct {
	IsHealthy       bool      `json:"is_healthy"`
	LastTickTime    time.Time `json:"last_tick_time"`
	LastSlot        string    `json:"last_slot,omitempty"`
	TickErrors      int64     `json:"tick_errors"`
	AverageTickTime string    `json:"average_tick_time"`
	ErrorRate       float64   `json:"error_rate"`
}

// MetricsSummary provides a summary of scheduler metrics
type MetricsSummary struct {
	Ticks            int64     `json:"ticks"`
	TickErrors       int64     `json:"tick_errors"`
	CheckinsSent     int64     `json:"checkins_sent"`
	CheckinsSkipped  int64     `json:"checkins_skipped"`
	DeliveryFailures int64     `json:"delivery_failures"`
	RecordFailures   int64     `json:"record_failures"`
	AverageTickTime  string    `json:"average_tick_time"`
	LastTickTime     time.Time `json:"last_tick_time"`
	ErrorRate        float64   `json:"error_rate_percentage"`
}

// NewSchedulerMetrics creates a metrics instance that reports unhealthy when
// no tick has completed within staleAfter.
func NewSchedulerMetrics(staleAfter time.Duration) *SchedulerMetrics {
	return &SchedulerMetrics{staleAfter: staleAfter}
}

func (m *SchedulerMetrics) MarkStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.startedAt = time.Now()
}

// RecordTick records a completed dispatch run
func (m *SchedulerMetrics) RecordTick(report checkin.Report, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Ticks++
	m.CheckinsSent += int64(report.Sent)
	m.CheckinsSkipped += int64(report.Skipped)
	m.DeliveryFailures += int64(report.Failed)
	m.RecordFailures += int64(report.RecordFailures)
	m.LastTickTime = time.Now()
	m.LastSlot = report.Slot.String()
	m.totalTickTime += duration
	m.AverageTickTime = m.totalTickTime / time.Duration(m.Ticks)
}

// RecordTickError increments the error counter
func (m *SchedulerMetrics) RecordTickError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TickErrors++
}

// IsHealthy reports whether a tick completed recently and fewer than half
// of all ticks failed. A scheduler that never ran a tick is healthy.
func (m *SchedulerMetrics) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.isHealthy()
}

func (m *SchedulerMetrics) isHealthy() bool {
	if m.errorRate() >= 0.5 {
		return false
	}

	reference := m.LastTickTime
	if reference.IsZero() {
		reference = m.startedAt
	}
	if reference.IsZero() {
		return true
	}

	return m.staleAfter <= 0 || time.Since(reference) < m.staleAfter
}

// GetHealthStatus returns detailed health information
func (m *SchedulerMetrics) GetHealthStatus() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return HealthStatus{
		IsHealthy:       m.isHealthy(),
		LastTickTime:    m.LastTickTime,
		LastSlot:        m.LastSlot,
		TickErrors:      m.TickErrors,
		AverageTickTime: m.AverageTickTime.String(),
		ErrorRate:       m.errorRate(),
	}
}

// GetMetricsSummary returns a comprehensive metrics summary
func (m *SchedulerMetrics) GetMetricsSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSummary{
		Ticks:            m.Ticks,
		TickErrors:       m.TickErrors,
		CheckinsSent:     m.CheckinsSent,
		CheckinsSkipped:  m.CheckinsSkipped,
		DeliveryFailures: m.DeliveryFailures,
		RecordFailures:   m.RecordFailures,
		AverageTickTime:  m.AverageTickTime.String(),
		LastTickTime:     m.LastTickTime,
		ErrorRate:        m.errorRate() * 100,
	}
}

func (m *SchedulerMetrics) errorRate() float64 {
	total := m.Ticks + m.TickErrors
	if total == 0 {
		return 0.0
	}
	return float64(m.TickErrors) / float64(total)
}

// Reset resets all counters to zero
func (m *SchedulerMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Ticks = 0
	m.TickErrors = 0
	m.CheckinsSent = 0
	m.CheckinsSkipped = 0
	m.DeliveryFailures = 0
	m.RecordFailures = 0
	m.AverageTickTime = 0
	m.LastTickTime = time.Time{}
	m.LastSlot = ""
	m.totalTickTime = 0
}

package handlers

import (
	"net/http"
	"time"

	"calmnest-api/internal/database"
	"calmnest-api/internal/scheduler"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const serviceName = "calmnest-api"

// SchedulerHealth reports the check-in scheduler's health.
type SchedulerHealth interface {
	GetHealthStatus() scheduler.HealthStatus
}

type HealthHandler struct {
	db        *gorm.DB
	scheduler SchedulerHealth
	logger    *logger.Logger
}

// NewHealthHandler creates a HealthHandler. schedulerHealth may be nil when
// the scheduler is disabled.
func NewHealthHandler(db *gorm.DB, schedulerHealth SchedulerHealth, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		scheduler: schedulerHealth,
		logger:    logger,
	}
}

func (h *HealthHandler) Alive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "CalmNest is alive 🌿"})
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	statusCode := http.StatusOK

	databaseStatus := "ok"
	if err := database.HealthCheck(h.db); err != nil {
		requestLogger(c, h.logger).Error("Database health check failed", "error", err)
		databaseStatus = "error"
		status = "error"
		statusCode = http.StatusServiceUnavailable
	}

	response := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"database":  databaseStatus,
	}

	if h.scheduler != nil {
		schedulerStatus := h.scheduler.GetHealthStatus()
		if !schedulerStatus.IsHealthy {
			requestLogger(c, h.logger).Warn("Scheduler reported unhealthy",
				"tick_errors", schedulerStatus.TickErrors,
				"last_tick_time", schedulerStatus.LastTickTime)
			status = "error"
			statusCode = http.StatusServiceUnavailable
			response["status"] = status
		}
		response["scheduler"] = schedulerStatus
	}

	c.JSON(statusCode, response)
}

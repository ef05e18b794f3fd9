package routes

import (
	"calmnest-api/api/handlers"
	"calmnest-api/api/middleware"
	"calmnest-api/internal/chatbot"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies groups what the HTTP surface needs.
type Dependencies struct {
	DB              *gorm.DB
	Logger          *logger.Logger
	ChatbotService  chatbot.ChatbotService
	SchedulerHealth handlers.SchedulerHealth
	RateLimit       gin.HandlerFunc
	WebhookPath     string
	SecretToken     string
}

const v1WebhookPath = "/api/v1/telegram/webhook"

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RequestLogging(deps.Logger))
	router.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.SchedulerHealth, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.ChatbotService, deps.SecretToken, deps.Logger)

	webhook := []gin.HandlerFunc{webhookHandler.HandleTelegramWebhook}
	if deps.RateLimit != nil {
		webhook = append([]gin.HandlerFunc{deps.RateLimit}, webhook...)
	}

	webhookPath := deps.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}

	router.GET("/", healthHandler.Alive)
	router.GET("/health", healthHandler.Check)
	if webhookPath != v1WebhookPath {
		router.POST(webhookPath, webhook...)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Check)
		v1.POST("/telegram/webhook", webhook...)
	}
}

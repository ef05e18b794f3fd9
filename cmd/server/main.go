package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calmnest-api/api/handlers"
	"calmnest-api/api/middleware"
	"calmnest-api/api/routes"
	"calmnest-api/internal/chatbot"
	"calmnest-api/internal/checkin"
	"calmnest-api/internal/common"
	"calmnest-api/internal/config"
	"calmnest-api/internal/conversation"
	"calmnest-api/internal/database"
	"calmnest-api/internal/events"
	"calmnest-api/internal/llm"
	"calmnest-api/internal/scheduler"
	"calmnest-api/internal/user"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level)
	defer logger.Sync()

	// Services take the structured logger.
	zapLogger := logger.SugaredLogger.Desugar()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	defer database.Close(db)

	if err := conversation.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	location, err := cfg.Checkin.Location()
	if err != nil {
		logger.Fatal("Invalid check-in timezone", "timezone", cfg.Checkin.Timezone, "error", err)
	}

	clock := common.NewRealClock()
	eventBus := events.NewEventBus(zapLogger)

	// Storage
	directory := user.NewGormDirectory(db, clock, zapLogger)
	store := conversation.NewGormStore(db, clock, zapLogger)

	// Message path
	completer := llm.NewOpenAIProvider(cfg.LLM, zapLogger)
	if err := completer.ValidateConfig(); err != nil {
		logger.Fatal("Invalid completion client configuration", "error", err)
	}
	conversationService := conversation.NewService(
		directory,
		store,
		conversation.NewAssembler(store, cfg.Conversation.HistoryWindow),
		completer,
		conversation.ServiceConfig{
			CompletionTimeout: time.Duration(cfg.LLM.Timeout) * time.Second,
			FallbackReply:     cfg.Conversation.FallbackReply,
		},
		zapLogger,
	)

	telegram, err := chatbot.NewTelegramProvider(cfg.Chatbot, zapLogger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram provider", "error", err)
	}
	chatbotService, err := chatbot.NewChatbotService(eventBus, telegram, directory, conversationService, zapLogger)
	if err != nil {
		logger.Fatal("Failed to initialize chatbot service", "error", err)
	}

	if cfg.Chatbot.WebhookURL != "" {
		if err := telegram.SetWebhook(cfg.Chatbot.WebhookURL, cfg.Chatbot.SecretToken); err != nil {
			logger.Error("Failed to register webhook", "webhook_url", cfg.Chatbot.WebhookURL, "error", err)
		}
	}

	// Check-in path
	var checkinScheduler scheduler.Scheduler
	var schedulerHealth handlers.SchedulerHealth
	if cfg.Scheduler.Enabled {
		dispatcher, err := checkin.NewDispatcher(directory, chatbot.NewNotifier(telegram), clock, checkin.Config{
			Location:  location,
			Workers:   cfg.Scheduler.WorkerCount,
			Templates: checkin.TemplatesFromConfig(cfg.Checkin.Messages),
		}, zapLogger)
		if err != nil {
			logger.Fatal("Failed to create check-in dispatcher", "error", err)
		}

		checkinScheduler, err = scheduler.NewScheduler(cfg.Scheduler, dispatcher, zapLogger)
		if err != nil {
			logger.Fatal("Failed to create scheduler", "error", err)
		}
		if err := checkinScheduler.Start(context.Background()); err != nil {
			logger.Fatal("Scheduler failed to start", "error", err)
		}
		schedulerHealth = checkinScheduler.GetMetrics()

		logger.Info("Check-in scheduler started",
			"poll_interval", cfg.Scheduler.PollInterval,
			"worker_count", cfg.Scheduler.WorkerCount,
			"timezone", location.String())
	} else {
		logger.Info("Check-in scheduler disabled")
	}

	rateLimit, closeLimiter, err := middleware.RateLimitFromConfig(context.Background(), cfg.RateLimit, logger)
	if err != nil {
		logger.Fatal("Failed to configure rate limiting", "error", err)
	}
	defer closeLimiter()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, routes.Dependencies{
		DB:              db,
		Logger:          logger,
		ChatbotService:  chatbotService,
		SchedulerHealth: schedulerHealth,
		RateLimit:       rateLimit,
		WebhookPath:     cfg.Chatbot.WebhookPath,
		SecretToken:     cfg.Chatbot.SecretToken,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if checkinScheduler != nil {
		if err := checkinScheduler.Stop(); err != nil {
			logger.Error("Failed to stop scheduler gracefully", "error", err)
		} else {
			logger.Info("Check-in scheduler stopped")
		}
	}

	closeEventBus(eventBus, time.Duration(cfg.Events.ShutdownTimeout)*time.Second, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// closeEventBus waits up to timeout for in-flight replies. Completions still
// running after that are abandoned.
func closeEventBus(eventBus events.EventBus, timeout time.Duration, logger *logger.Logger) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- eventBus.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Failed to close event bus", "error", err)
			return
		}
		logger.Info("Event bus closed")
	case <-time.After(timeout):
		logger.Warn("Event bus shutdown timed out", "timeout", timeout)
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Chatbot      ChatbotConfig      `mapstructure:"chatbot"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Events       EventsConfig       `mapstructure:"events"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Checkin      CheckinConfig      `mapstructure:"checkin"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig selects the storage backend. Driver is "postgres" for shared
// multi-instance deployments or "sqlite" for a single process.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type ChatbotConfig struct {
	Token       string `mapstructure:"token"`
	WebhookPath string `mapstructure:"webhook_path"`
	WebhookURL  string `mapstructure:"webhook_url"`
	SecretToken string `mapstructure:"secret_token"`
	Timeout     int    `mapstructure:"timeout"`
}

type LLMConfig struct {
	APIEndpoint  string  `mapstructure:"api_endpoint"`
	APIKey       string  `mapstructure:"api_key"`
	Timeout      int     `mapstructure:"timeout"`
	MaxRetries   int     `mapstructure:"max_retries"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// ConversationConfig controls the message path. HistoryWindow of 0 keeps the
// full history as completion context.
type ConversationConfig struct {
	HistoryWindow int    `mapstructure:"history_window"`
	FallbackReply string `mapstructure:"fallback_reply"`
}

type EventsConfig struct {
	ShutdownTimeout int `mapstructure:"shutdown_timeout"`
}

type SchedulerConfig struct {
	PollInterval    int  `mapstructure:"poll_interval"`
	WorkerCount     int  `mapstructure:"worker_count"`
	ShutdownTimeout int  `mapstructure:"shutdown_timeout"`
	Enabled         bool `mapstructure:"enabled"`
	RunOnStart      bool `mapstructure:"run_on_start"`
}

type CheckinConfig struct {
	Timezone string           `mapstructure:"timezone"`
	Messages CheckinTemplates `mapstructure:"messages"`
}

type CheckinTemplates struct {
	Morning   string `mapstructure:"morning"`
	Afternoon string `mapstructure:"afternoon"`
	Evening   string `mapstructure:"evening"`
	Night     string `mapstructure:"night"`
}

type RateLimitConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Rate     string `mapstructure:"rate"`
	RedisURL string `mapstructure:"redis_url"`
}

const (
	DefaultSystemPrompt = "You are CalmNest, a calm, warm, and supportive mental wellbeing assistant. " +
		"You listen without judgment. You do NOT give medical advice or diagnoses. " +
		"Keep responses gentle, empathetic, and concise."
	DefaultFallbackReply = "I'm here with you 🌿\nLet's take a breath together."
)

// legacyEnv maps config keys to the environment names used by earlier
// deployments of the bot.
var legacyEnv = map[string]string{
	"chatbot.token": "TELEGRAM_BOT_TOKEN",
	"llm.api_key":   "GROQ_API_KEY",
	"database.path": "CALMNEST_DB_PATH",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, legacy := range legacyEnv {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Chatbot.Token) == "" {
		errs = append(errs, errors.New("chatbot.token is required (TELEGRAM_BOT_TOKEN)"))
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, errors.New("llm.api_key is required (GROQ_API_KEY)"))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Enabled {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit.Rate); err != nil {
			errs = append(errs, fmt.Errorf("ratelimit.rate %q: %w", c.RateLimit.Rate, err))
		}
	}
	if _, err := c.Checkin.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Conversation.HistoryWindow < 0 {
		errs = append(errs, errors.New("conversation.history_window must not be negative"))
	}

	return errors.Join(errs...)
}

func (d DatabaseConfig) Validate() error {
	switch d.Driver {
	case "postgres":
		return nil
	case "sqlite":
		if strings.TrimSpace(d.Path) == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("database.driver %q is not supported (postgres, sqlite)", d.Driver)
	}
}

// Location resolves the check-in timezone. "Local" or empty means the server zone.
func (c CheckinConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("checkin.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("logging.level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.path", "calmnest.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "calmnest")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)

	v.SetDefault("chatbot.token", "")
	v.SetDefault("chatbot.webhook_path", "/webhook")
	v.SetDefault("chatbot.webhook_url", "")
	v.SetDefault("chatbot.secret_token", "")
	v.SetDefault("chatbot.timeout", 30)

	v.SetDefault("llm.api_endpoint", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 30)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.6)
	v.SetDefault("llm.system_prompt", DefaultSystemPrompt)

	v.SetDefault("conversation.history_window", 0)
	v.SetDefault("conversation.fallback_reply", DefaultFallbackReply)

	v.SetDefault("events.shutdown_timeout", 30)

	v.SetDefault("scheduler.poll_interval", 1800) // 30 minutes
	v.SetDefault("scheduler.worker_count", 2)
	v.SetDefault("scheduler.shutdown_timeout", 30)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.run_on_start", false)

	v.SetDefault("checkin.timezone", "Local")
	v.SetDefault("checkin.messages.morning", "Good morning 🌅 How are you feeling today?")
	v.SetDefault("checkin.messages.afternoon", "Hey there 🌤️ Just checking in — how's your afternoon going?")
	v.SetDefault("checkin.messages.evening", "Good evening 🌆 How was your day? I'm here if you want to talk.")
	v.SetDefault("checkin.messages.night", "Hey 🌙 Winding down? Remember, it's okay to rest. I'm here if you need me.")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rate", "120-M")
	v.SetDefault("ratelimit.redis_url", "")
}

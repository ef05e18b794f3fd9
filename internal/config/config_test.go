package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray config.yaml is read.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { _ = os.Chdir(originalWd) })
	return tempDir
}

func validConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: "sqlite", Path: "calmnest.db"},
		Chatbot:   ChatbotConfig{Token: "token"},
		LLM:       LLMConfig{APIKey: "key"},
		Checkin:   CheckinConfig{Timezone: "Local"},
		RateLimit: RateLimitConfig{Enabled: true, Rate: "120-M"},
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_DatabaseDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "calmnest.db", cfg.Database.Path)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "calmnest", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoad_LLMDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.APIEndpoint)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.6, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, DefaultSystemPrompt, cfg.LLM.SystemPrompt)
}

func TestLoad_ConversationAndCheckinDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Conversation.HistoryWindow)
	assert.Equal(t, DefaultFallbackReply, cfg.Conversation.FallbackReply)

	assert.Equal(t, 1800, cfg.Scheduler.PollInterval)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.False(t, cfg.Scheduler.RunOnStart)

	assert.Equal(t, "Good morning 🌅 How are you feeling today?", cfg.Checkin.Messages.Morning)
	assert.NotEmpty(t, cfg.Checkin.Messages.Afternoon)
	assert.NotEmpty(t, cfg.Checkin.Messages.Evening)
	assert.NotEmpty(t, cfg.Checkin.Messages.Night)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "120-M", cfg.RateLimit.Rate)
}

func TestLoad_ConfigFile(t *testing.T) {
	tempDir := chdirTemp(t)

	configContent := `
server:
  port: 9999
  environment: "test"

database:
  driver: "sqlite"
  path: "/tmp/calmnest-test.db"

chatbot:
  token: "test-token"
  webhook_path: "/hook"
  secret_token: "s3cret"

llm:
  api_key: "test-key"
  model: "test-model"
  timeout: 5

conversation:
  history_window: 6

checkin:
  timezone: "Europe/London"
  messages:
    morning: "Rise and shine"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/calmnest-test.db", cfg.Database.Path)
	assert.Equal(t, "test-token", cfg.Chatbot.Token)
	assert.Equal(t, "/hook", cfg.Chatbot.WebhookPath)
	assert.Equal(t, "s3cret", cfg.Chatbot.SecretToken)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.LLM.Timeout)
	assert.Equal(t, 6, cfg.Conversation.HistoryWindow)
	assert.Equal(t, "Rise and shine", cfg.Checkin.Messages.Morning)
	// unset keys keep their defaults
	assert.Equal(t, "Good evening 🌆 How was your day? I'm here if you want to talk.", cfg.Checkin.Messages.Evening)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SCHEDULER_POLL_INTERVAL", "60")
	t.Setenv("CONVERSATION_HISTORY_WINDOW", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Scheduler.PollInterval)
	assert.Equal(t, 10, cfg.Conversation.HistoryWindow)
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "legacy-token")
	t.Setenv("GROQ_API_KEY", "legacy-key")
	t.Setenv("CALMNEST_DB_PATH", "/data/calmnest.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-token", cfg.Chatbot.Token)
	assert.Equal(t, "legacy-key", cfg.LLM.APIKey)
	assert.Equal(t, "/data/calmnest.db", cfg.Database.Path)
}

func TestLoad_CanonicalEnvironmentNameWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CHATBOT_TOKEN", "new-token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "legacy-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "new-token", cfg.Chatbot.Token)
}

func TestLoad_MalformedYAML(t *testing.T) {
	tempDir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte("server:\n  port: [unclosed"), 0o644))

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Chatbot.Token = "" },
			wantErr: "chatbot.token",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.LLM.APIKey = " " },
			wantErr: "llm.api_key",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "database.driver",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "bad rate",
			mutate:  func(c *Config) { c.RateLimit.Rate = "lots" },
			wantErr: "ratelimit.rate",
		},
		{
			name: "bad rate ignored when disabled",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = false
				c.RateLimit.Rate = "lots"
			},
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Checkin.Timezone = "Mars/Olympus" },
			wantErr: "checkin.timezone",
		},
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.Conversation.HistoryWindow = -1 },
			wantErr: "history_window",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckinConfig_Location(t *testing.T) {
	loc, err := CheckinConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = CheckinConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

package commands

import (
	"fmt"
	"strconv"

	"calmnest-api/internal/chatbot"
	"calmnest-api/internal/config"
	"calmnest-api/internal/conversation"
	"calmnest-api/internal/database"
	"calmnest-api/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	botAPIEndpoint string
}

// NewRootCmd builds the calmnestctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "calmnestctl",
		Short:         "Operator tool for the CalmNest bot",
		Long:          "CLI tool for running migrations, check-ins, and inspecting users of the CalmNest bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.botAPIEndpoint, "bot-api-endpoint", tgbotapi.APIEndpoint,
		"Telegram Bot API endpoint format (token and method placeholders)")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newDispatchCmd(opts))
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newCheckinCmd())
	rootCmd.AddCommand(newWebhookCmd(opts))

	return rootCmd
}

// environment is what most subcommands need: config, a logger and a
// migrated database.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Logging.Level).Desugar(), nil
}

func openEnvironment() (*environment, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := conversation.RunMigrations(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &environment{cfg: cfg, logger: log, db: db}, nil
}

func (e *environment) Close() {
	_ = database.Close(e.db)
	_ = e.logger.Sync()
}

func newTelegramProvider(cfg *config.Config, log *zap.Logger, opts *globalOptions) (chatbot.TelegramProvider, error) {
	return chatbot.NewTelegramProviderWithEndpoint(cfg.Chatbot, opts.botAPIEndpoint, log)
}

func parseUserID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}

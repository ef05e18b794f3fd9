package chatbot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CheckinDirectory is the part of the user directory commands touch.
type CheckinDirectory interface {
	Register(ctx context.Context, userID, address int64) error
	SetCheckinEnabled(ctx context.Context, userID int64, enabled bool) error
	GetCheckinEnabled(ctx context.Context, userID int64) (bool, error)
}

// CommandProcessor handles bot command processing
type CommandProcessor struct {
	directory CheckinDirectory
	logger    *zap.Logger
}

// NewCommandProcessor creates a new CommandProcessor instance
func NewCommandProcessor(directory CheckinDirectory, logger *zap.Logger) *CommandProcessor {
	return &CommandProcessor{
		directory: directory,
		logger:    logger,
	}
}

// Process registers the sender and returns the reply text for command.
// Unknown commands get the help text.
func (cp *CommandProcessor) Process(ctx context.Context, userID, chatID int64, command Command, args []string) (string, error) {
	logger := cp.logger.With(
		zap.Int64("user_id", userID),
		zap.String("command", string(command)))

	if err := cp.directory.Register(ctx, userID, chatID); err != nil {
		return "", fmt.Errorf("register user: %w", err)
	}

	switch command {
	case CommandStart:
		logger.Info("User started the bot")
		return greetingText, nil
	case CommandCheckin:
		return cp.processCheckin(ctx, logger, userID, args)
	case CommandHelp:
		return helpText, nil
	default:
		logger.Debug("Unknown command, replying with help")
		return helpText, nil
	}
}

func (cp *CommandProcessor) processCheckin(ctx context.Context, logger *zap.Logger, userID int64, args []string) (string, error) {
	var arg string
	if len(args) > 0 {
		arg = strings.ToLower(args[0])
	}

	switch arg {
	case "on", "off":
		enable := arg == "on"
		if err := cp.directory.SetCheckinEnabled(ctx, userID, enable); err != nil {
			return "", fmt.Errorf("set checkin enabled: %w", err)
		}
		logger.Info("Check-in preference changed", zap.Bool("enabled", enable))
		if enable {
			return checkinEnabledText, nil
		}
		return checkinDisabledText, nil
	default:
		enabled, err := cp.directory.GetCheckinEnabled(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("get checkin enabled: %w", err)
		}
		status := "disabled ❌"
		if enabled {
			status = "enabled ✅"
		}
		return fmt.Sprintf(checkinStatusFormat, status), nil
	}
}

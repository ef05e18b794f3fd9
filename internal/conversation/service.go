package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"calmnest-api/internal/common"
	"calmnest-api/internal/config"

	"go.uber.org/zap"
)

// ErrEmptyReply is returned when the completion succeeds with no text.
var ErrEmptyReply = errors.New("completion returned an empty reply")

// Registrar is the part of the user directory the message path needs.
type Registrar interface {
	Register(ctx context.Context, userID, address int64) error
}

// Completer produces an assistant reply for an ordered conversation context.
type Completer interface {
	Complete(ctx context.Context, history []common.Turn) (string, error)
}

type ServiceConfig struct {
	CompletionTimeout time.Duration
	FallbackReply     string
}

// Reply is the outcome of one message turn. Text is never empty: when
// Fallback is set it holds the static fallback and Err says what failed.
type Reply struct {
	Text     string
	Fallback bool
	Err      error
}

type Service struct {
	directory Registrar
	store     Store
	assembler *Assembler
	completer Completer
	config    ServiceConfig
	logger    *zap.Logger
}

func NewService(directory Registrar, store Store, assembler *Assembler, completer Completer, cfg ServiceConfig, logger *zap.Logger) *Service {
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.FallbackReply) == "" {
		cfg.FallbackReply = config.DefaultFallbackReply
	}

	return &Service{
		directory: directory,
		store:     store,
		assembler: assembler,
		completer: completer,
		config:    cfg,
		logger:    logger,
	}
}

// Respond runs one inbound message through registration, history, completion
// and storage. The assistant turn is only stored when the completion succeeds.
func (s *Service) Respond(ctx context.Context, userID, address int64, text string) Reply {
	logger := s.logger.With(zap.Int64("user_id", userID))

	if err := s.directory.Register(ctx, userID, address); err != nil {
		return s.fallback(logger, "register", err)
	}

	if err := s.store.Append(ctx, userID, common.RoleUser, text); err != nil {
		return s.fallback(logger, "append_user", err)
	}

	history, err := s.assembler.BuildContext(ctx, userID)
	if err != nil {
		return s.fallback(logger, "build_context", err)
	}

	completionCtx, cancel := context.WithTimeout(ctx, s.config.CompletionTimeout)
	defer cancel()

	start := time.Now()
	reply, err := s.completer.Complete(completionCtx, history)
	if err != nil {
		return s.fallback(logger, "complete", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return s.fallback(logger, "complete", ErrEmptyReply)
	}

	if err := s.store.Append(ctx, userID, common.RoleAssistant, reply); err != nil {
		return s.fallback(logger, "append_assistant", err)
	}

	logger.Info("Reply generated",
		zap.Int("context_turns", len(history)),
		zap.Duration("completion_time", time.Since(start)))

	return Reply{Text: reply}
}

func (s *Service) fallback(logger *zap.Logger, step string, err error) Reply {
	if common.IsStoreError(err) {
		logger.Error("Store failure in message path",
			zap.String("step", step),
			zap.Bool("store_unavailable", common.IsStoreUnavailable(err)),
			zap.Error(err))
	} else {
		logger.Warn("Message path failed, sending fallback reply",
			zap.String("step", step),
			zap.Error(err))
	}

	return Reply{Text: s.config.FallbackReply, Fallback: true, Err: err}
}

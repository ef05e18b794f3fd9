package conversation

import (
	"context"
	"errors"

	"calmnest-api/internal/common"
	"calmnest-api/internal/user"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore implements the Store interface using GORM
type gormStore struct {
	db     *gorm.DB
	clock  common.Clock
	logger *zap.Logger
}

// NewGormStore creates a new GORM-based conversation store
func NewGormStore(db *gorm.DB, clock common.Clock, logger *zap.Logger) Store {
	return &gormStore{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

// Append locks the owning user row for the length of the transaction so that
// appends for one user commit in call order. Timestamps never run backwards
// within a user's log even if the wall clock does.
func (s *gormStore) Append(ctx context.Context, userID int64, role common.Role, content string) error {
	if !role.IsStored() {
		return common.ValidationError{Field: "role", Message: "must be user or assistant"}
	}

	s.logger.Debug("Appending message",
		zap.Int64("user_id", userID),
		zap.String("role", role.String()),
		zap.Int("length", len(content)))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner user.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("user_id").
			Where("user_id = ?", userID).
			Take(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.UserNotFound(userID)
		}
		if err != nil {
			return err
		}

		var last Message
		err = tx.Select("created_at").
			Where("user_id = ?", userID).
			Order("created_at DESC").Order("id DESC").
			Limit(1).
			Find(&last).Error
		if err != nil {
			return err
		}

		createdAt := s.clock.Now().UTC()
		if createdAt.Before(last.CreatedAt) {
			createdAt = last.CreatedAt
		}

		return tx.Create(&Message{
			UserID:    userID,
			Role:      role,
			Content:   content,
			CreatedAt: createdAt,
		}).Error
	})

	return common.WrapStoreError(err, "append message")
}

func (s *gormStore) History(ctx context.Context, userID int64) ([]common.Turn, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Select("role", "content").
		Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, common.WrapStoreError(err, "read history")
	}

	turns := make([]common.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, m.Turn())
	}

	return turns, nil
}

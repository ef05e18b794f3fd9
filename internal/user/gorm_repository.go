package user

import (
	"context"
	"errors"

	"calmnest-api/internal/common"
	"calmnest-api/internal/slot"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormDirectory implements the Directory interface using GORM
type gormDirectory struct {
	db     *gorm.DB
	clock  common.Clock
	logger *zap.Logger
}

// NewGormDirectory creates a new GORM-based user directory
func NewGormDirectory(db *gorm.DB, clock common.Clock, logger *zap.Logger) Directory {
	return &gormDirectory{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

func (r *gormDirectory) Register(ctx context.Context, userID, address int64) error {
	r.logger.Debug("Registering user", zap.Int64("user_id", userID), zap.Int64("chat_id", address))

	now := r.clock.Now().UTC()
	u := User{
		UserID:         userID,
		ChatID:         address,
		CheckinEnabled: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chat_id", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		return common.WrapStoreError(err, "register user")
	}

	return nil
}

func (r *gormDirectory) SetCheckinEnabled(ctx context.Context, userID int64, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"checkin_enabled": enabled,
			"updated_at":      r.clock.Now().UTC(),
		})
	if result.Error != nil {
		return common.WrapStoreError(result.Error, "set checkin enabled")
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("Check-in toggle ignored for unknown user", zap.Int64("user_id", userID))
		return nil
	}

	r.logger.Info("Check-in preference updated",
		zap.Int64("user_id", userID),
		zap.Bool("enabled", enabled))
	return nil
}

func (r *gormDirectory) GetCheckinEnabled(ctx context.Context, userID int64) (bool, error) {
	var u User
	err := r.db.WithContext(ctx).Select("checkin_enabled").Where("user_id = ?", userID).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, common.WrapStoreError(err, "get checkin enabled")
	}

	return u.CheckinEnabled, nil
}

func (r *gormDirectory) ListCheckinSubscribers(ctx context.Context) ([]Subscriber, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Select("user_id", "chat_id", "last_checkin_slot").
		Where("checkin_enabled = ?", true).
		Order("user_id").
		Find(&users).Error
	if err != nil {
		return nil, common.WrapStoreError(err, "list checkin subscribers")
	}

	subscribers := make([]Subscriber, 0, len(users))
	for _, u := range users {
		subscribers = append(subscribers, Subscriber{
			UserID:   u.UserID,
			Address:  u.ChatID,
			LastSlot: u.LastCheckinSlot,
		})
	}

	r.logger.Debug("Listed check-in subscribers", zap.Int("count", len(subscribers)))
	return subscribers, nil
}

func (r *gormDirectory) RecordCheckinSlot(ctx context.Context, userID int64, s slot.Slot) error {
	if !s.Valid() {
		return common.ValidationError{Field: "slot", Message: "must be morning, afternoon, evening or night"}
	}

	err := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_checkin_slot": string(s),
			"updated_at":        r.clock.Now().UTC(),
		}).Error
	if err != nil {
		return common.WrapStoreError(err, "record checkin slot")
	}

	return nil
}

func (r *gormDirectory) Get(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.UserNotFound(userID)
		}
		return nil, common.WrapStoreError(err, "get user")
	}

	return &u, nil
}

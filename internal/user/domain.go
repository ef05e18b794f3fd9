package user

import (
	"time"

	"calmnest-api/internal/slot"
)

// User is a known chat participant. UserID is assigned by Telegram; ChatID is
// where check-ins are delivered and may change between registrations.
type User struct {
	UserID          int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	ChatID          int64     `gorm:"not null" json:"chat_id"`
	CheckinEnabled  bool      `gorm:"not null;default:true" json:"checkin_enabled"`
	LastCheckinSlot slot.Slot `gorm:"type:varchar(16);not null;default:''" json:"last_checkin_slot"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// Subscriber is an opted-in user as seen by the check-in dispatcher.
type Subscriber struct {
	UserID   int64
	Address  int64
	LastSlot slot.Slot
}

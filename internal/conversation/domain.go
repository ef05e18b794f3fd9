package conversation

import (
	"time"

	"calmnest-api/internal/common"
)

// Message is one stored turn of a user's conversation. Messages are never
// edited or deleted once appended.
type Message struct {
	ID        uint        `gorm:"primaryKey;index:idx_messages_user_created,priority:3" json:"id"`
	UserID    int64       `gorm:"not null;index:idx_messages_user_created,priority:1" json:"user_id"`
	Role      common.Role `gorm:"type:varchar(16);not null" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time   `gorm:"not null;index:idx_messages_user_created,priority:2" json:"created_at"`
}

// TableName returns the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

func (m Message) Turn() common.Turn {
	return common.Turn{Role: m.Role, Content: m.Content}
}

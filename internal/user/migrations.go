package user

import (
	"fmt"

	"gorm.io/gorm"
)

// RunMigrations creates the users table and its indexes if they are absent.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate users table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_checkin_enabled ON users(checkin_enabled)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create user index: %w", err)
		}
	}

	return nil
}

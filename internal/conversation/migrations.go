package conversation

import (
	"fmt"

	"calmnest-api/internal/user"

	"gorm.io/gorm"
)

// RunMigrations creates the users and messages tables if they are absent.
func RunMigrations(db *gorm.DB) error {
	if err := user.RunMigrations(db); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Message{}); err != nil {
		return fmt.Errorf("failed to auto-migrate messages table: %w", err)
	}

	return nil
}

// ValidateMigrations checks that both tables exist.
func ValidateMigrations(db *gorm.DB) error {
	for _, model := range []interface{}{&user.User{}, &Message{}} {
		if !db.Migrator().HasTable(model) {
			return fmt.Errorf("table for %T is missing", model)
		}
	}
	if !db.Migrator().HasIndex(&Message{}, "idx_messages_user_created") {
		return fmt.Errorf("index idx_messages_user_created is missing")
	}
	return nil
}

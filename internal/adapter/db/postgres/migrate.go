package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the service tables. Safe to run on every
// startup; GORM only applies missing columns and indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&AgentSchema{},
		&RatingSchema{},
		&AccountSchema{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/TeacherEvan/Evan-sClassTracker-2.0/internal/models"
)

// Connect opens the durable record store with the configured driver.
func Connect(driver, dsn string) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql":
		return ConnectPostgres(dsn)
	case "sqlite":
		return ConnectSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates the tables of every record collection.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Student{},
		&models.Enrollment{},
		&models.Message{},
		&models.Credit{},
		&models.UserLog{},
		&models.Event{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

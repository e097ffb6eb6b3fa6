package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrewpaige1/flashcards-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and migrates every model.
func Connect(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.URL))
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign keys for every pooled connection, not just the
// first one.
func sqliteDSN(url string) string {
	if strings.Contains(url, "_foreign_keys=") || strings.Contains(url, "_fk=") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&_foreign_keys=on"
	}
	return url + "?_foreign_keys=on"
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FlashcardSet{},
		&models.Flashcard{},
		&models.ReviewCard{},
		&models.Upload{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	return nil
}

// SQLDriverName is the database/sql driver name behind a gorm dialect, as
// sqlx needs it for bind variables.
func SQLDriverName(driver string) string {
	if driver == "postgres" {
		return "pgx"
	}
	return "sqlite3"
}

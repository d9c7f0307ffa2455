package database

import (
	"fmt"

	"ministry-site/config"
	"ministry-site/internal/domain/content"
	"ministry-site/internal/domain/media"
	"ministry-site/internal/domain/users"
	"ministry-site/internal/domain/worship"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to Postgres without touching the global handle.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}
	level := gormlogger.Warn
	if config.LOG_LEVEL == "debug" {
		level = gormlogger.Info
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
}

// InitDB opens the configured database and installs it as DB. Migrations
// are run separately (see AutoMigrate).
func InitDB() error {
	db, err := Open(config.DB_URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	DB = db
	zap.L().Info("database connected")
	return nil
}

// Models lists every table the application owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		// accounts
		&users.User{},

		// media
		&media.Asset{},

		// site content
		&content.Page{},
		&content.Section{},
		&content.Block{},

		// worship team
		&worship.Event{},
		&worship.ScheduleMember{},
		&worship.Notification{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

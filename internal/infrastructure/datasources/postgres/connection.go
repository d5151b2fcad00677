package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"soulbound.backend/internal/config"
	"soulbound.backend/internal/infrastructure/models"
)

var (
	openGorm = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt:    false,
			TranslateError: true,
		})
	}
	dbPing = func(db *sql.DB) error { return db.Ping() }
)

// NewConnection opens the GORM handle and verifies the server is reachable.
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := openGorm(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := dbPing(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables and unique indexes the ledger relies on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Wallet{},
		&models.RedemptionCode{},
		&models.Redemption{},
		&models.IssuedCredential{},
		&models.Quest{},
		&models.QuestCompletion{},
	)
}

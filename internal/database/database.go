package database

import (
	"context"
	"fmt"
	"strings"

	"granito/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB     *gorm.DB
	Driver string
}

// New opens the mirror store. A sqlite:// URL selects SQLite (development and
// tests); anything else is handed to the Postgres driver.
func New(databaseURL string, verbose bool) (*Database, error) {
	var db *gorm.DB
	var err error

	logMode := logger.Warn
	if verbose {
		logMode = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	}

	driver := "postgres"
	if strings.HasPrefix(databaseURL, "sqlite://") {
		driver = "sqlite"
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
	} else {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// A single connection keeps SQLite writers from tripping over each
		// other's locks.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Database{DB: db, Driver: driver}, nil
}

// Ping checks that the store answers.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

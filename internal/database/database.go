package database

import (
	"fmt"
	"time"
	
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxIdleConns and maxOpenConns bound the pool backing concurrent runs
// submitted through the HTTP API; maxConnLifetime recycles connections on a
// long-lived process instead of holding them open indefinitely.
const (
	maxIdleConns    = 10
	maxOpenConns    = 100
	maxConnLifetime = time.Hour
)

// DB holds the connection to the run/slot/optimizer-log store.
type DB struct {
	*gorm.DB
}

// NewDatabase opens (creating if absent) the SQLite file at dbPath and
// migrates it to the current run schema.
func NewDatabase(dbPath string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(maxConnLifetime)

	if err := db.AutoMigrate(
		&Run{},
		&SlotRecord{},
		&OptimizerLogEntry{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
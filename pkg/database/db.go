package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`

	// Revoked keys keep their row
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIUsage represents the api_usage table, one row per key and day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalShifts  int    `gorm:"default:0" json:"total_shifts"`
	TotalPersons int    `gorm:"default:0" json:"total_persons"`
}

// Coordinator is an account allowed into the admin routes
type Coordinator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Open connects to Postgres when databaseURL is set, SQLite at dataPath otherwise,
// and migrates the schema
func Open(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	quiet := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if databaseURL != "" {
		quiet.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), quiet)
	} else {
		if dataPath == "" {
			dataPath = "duty_roster.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), quiet)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &Coordinator{}, &ScheduleRun{}, &ShiftRecord{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

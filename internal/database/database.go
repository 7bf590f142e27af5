package database

import (
	"fmt"
	"os"
	"time"

	pkgLogger "github.com/jrmendez/caja-api/pkg/logger"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // Improve performance
		PrepareStmt:            true, // Cache prepared statements
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate runs schema migrations for all models and enforces the
// one-active-loan-per-customer rule with a partial unique index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Market{},
		&models.Customer{},
		&models.Loan{},
		&models.Collection{},
		&models.CollectionDetail{},
		&models.Expense{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// AutoMigrate cannot express a partial index. Without it, two concurrent
	// loan creations for the same customer could both pass the
	// application-level check.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_one_active_per_customer ON loans (customer_id) WHERE status = 1",
	).Error; err != nil {
		return fmt.Errorf("failed to create active loan index: %w", err)
	}

	return nil
}

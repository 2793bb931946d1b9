package database

import (
	"fmt"
	"log"
	"time"

	"tenant-service/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DBConfig holds the database configuration
type DBConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// Initialize initializes the database connection with the provided configuration
func Initialize(config DBConfig) error {
	var err error

	// Set default log level if not specified
	logLevel := config.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	// Connect with PreferSimpleProtocol to prevent "prepared statement
	// already exists" errors
	pgConfig := postgres.Config{
		DSN:                  config.DSN,
		PreferSimpleProtocol: true,
	}

	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Surfaces unique violations as gorm.ErrDuplicatedKey so the
		// directory can report slug/domain conflicts.
		TranslateError: true,
	})

	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		return err
	}

	// Configure connection pool
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("Failed to get database connection: %v", err)
		return err
	}

	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}

	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}

	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Only shared-schema tables are migrated here. Tenant-scoped tables are
	// created per schema during provisioning.
	err = DB.AutoMigrate(&model.Tenant{}, &model.User{})
	if err != nil {
		log.Printf("Failed to migrate shared tables: %v", err)
		return err
	}

	fmt.Println("Database connected and shared tables migrated")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

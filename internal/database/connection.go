// internal/database/connection.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/models"
)

func Initialize(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqliteDialector(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	if cfg.Driver == "sqlite" {
		// single writer
		sqlDB.SetMaxOpenConns(1)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithField("driver", cfg.Driver).Info("Database connection established successfully")
	return db, nil
}

// OpenSQLite opens a SQLite database through the pure-Go modernc driver.
// Used by the sqlite driver option and by tests with "file:<name>?mode=memory&cache=shared".
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqliteDialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func sqliteDialector(dsn string) gorm.Dialector {
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	} else {
		log.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.BookImage{},
		&models.Petition{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db, log)

	log.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB, log logrus.FieldLogger) {
	indexes := []string{
		// Book indexes
		"CREATE INDEX IF NOT EXISTS idx_books_visible ON books(activated, available)",
		"CREATE INDEX IF NOT EXISTS idx_books_created_at ON books(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_books_price ON books(price)",

		// Image indexes
		"CREATE INDEX IF NOT EXISTS idx_book_images_book_created ON book_images(book_id, created_at)",

		// Petition indexes
		"CREATE INDEX IF NOT EXISTS idx_petitions_isbn ON petitions(isbn)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			log.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

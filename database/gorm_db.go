package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/luismavs/exposurestats/models"
)

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	// write-ahead logging for better concurrency between the stats reads
	// and the sync writes
	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		log.Printf("warning: failed to set WAL mode: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("GORM Database initialized successfully at", dataSourceName)
	return db, nil
}

// AutoMigrateModels creates or updates the analytical store schema. Order
// matters on a fresh database: keyword types before keywords, images before
// the tagging link tables.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.KeywordType{},
		&models.ImageData{},
		&models.Keyword{},
		&models.ManualTaggedImage{},
		&models.AITaggedImage{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	log.Println("GORM AutoMigrate completed successfully.")
	return nil
}

// DropModels removes every store table, reverse of creation order to keep
// foreign keys satisfied.
func DropModels(db *gorm.DB) error {
	err := db.Migrator().DropTable(
		&models.AITaggedImage{},
		&models.ManualTaggedImage{},
		&models.Keyword{},
		&models.ImageData{},
		&models.KeywordType{},
	)
	if err != nil {
		return fmt.Errorf("failed to drop store tables: %w", err)
	}
	log.Println("store tables dropped")
	return nil
}

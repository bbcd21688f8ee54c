package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                      dsn,
			DefaultStringSize:        256,
			DisableDatetimePrecision: true,
			DontSupportRenameIndex:   true,
			DontSupportRenameColumn:  true,
		}), &gorm.Config{})
		if err == nil {
			if migrateErr := DB.AutoMigrate(
				&models.Quotation{},
				&models.Setting{},
				&models.QuoteCounter{},
			); migrateErr != nil {
				log.Fatalf("database migration failed: %v", migrateErr)
			}

			if loadErr := models.LoadSettings(DB); loadErr != nil {
				log.Printf("Warning: could not load settings: %v", loadErr)
			}
			return
		}

		log.Printf("Could not connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(retryDelay)
	}

	log.Fatalf("Could not connect to database after %d attempts: %v", maxRetries, err)
}

// GetDB returns the shared gorm handle, or nil when the database was never set up.
func GetDB() *gorm.DB {
	return DB
}

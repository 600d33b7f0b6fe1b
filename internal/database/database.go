package database

import (
	"fmt"
	"log"

	"github.com/coaching-center/backend/internal/config"
	"github.com/coaching-center/backend/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Env == "development" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	log.Printf("Attempting database connection with DSN: %s", maskPassword(cfg.Database.DSN))

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func maskPassword(dsn string) string {
	// Simple password masking for logging
	if len(dsn) > 20 {
		return dsn[:20] + "...***..."
	}
	return "***"
}

func Migrate(db *gorm.DB) error {
	log.Println("Running migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Batch{},
		&models.Enrollment{},
		&models.Attendance{},
		&models.AcademicPeriod{},
		&models.ComponentExam{},
		&models.ComponentScore{},
		&models.BonusCredit{},
		&models.RankingEntry{},
		&models.SmsLog{},
		&models.AuditLog{},
		&models.RefreshToken{},
	)
	if err != nil {
		return err
	}

	// Add performance indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_enrollments_batch ON enrollments(batch_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_attendance_batch_date ON attendances(batch_id, date)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_component_scores_period ON component_scores(period_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ranking_entries_period ON ranking_entries(period_id)")

	return nil
}

package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Maintenance sweep: removes rows whose parent period no longer exists
// and refresh tokens past expiry. Safe to run on a live database.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dsn := os.Getenv("DATABASE_URL")
	driver := os.Getenv("DB_DRIVER")
	if dsn == "" {
		host := os.Getenv("DB_HOST")
		port := os.Getenv("DB_PORT")
		user := os.Getenv("DB_USER")
		password := os.Getenv("DB_PASSWORD")
		dbname := os.Getenv("DB_NAME")
		if driver == "mysql" {
			dsn = user + ":" + password + "@tcp(" + host + ":" + port + ")/" + dbname + "?charset=utf8mb4&parseTime=True&loc=Local"
		} else {
			dsn = "host=" + host + " port=" + port + " user=" + user + " password=" + password + " dbname=" + dbname + " sslmode=disable"
		}
	}

	var dialector gorm.Dialector
	if driver == "mysql" {
		dialector = mysql.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sweeps := []struct {
		name string
		sql  string
	}{
		{"orphaned ranking entries",
			"DELETE FROM ranking_entries WHERE period_id NOT IN (SELECT id FROM academic_periods)"},
		{"orphaned component scores",
			"DELETE FROM component_scores WHERE period_id NOT IN (SELECT id FROM academic_periods)"},
		{"orphaned sms logs",
			"DELETE FROM sms_logs WHERE period_id IS NOT NULL AND period_id NOT IN (SELECT id FROM academic_periods)"},
		{"expired refresh tokens",
			"DELETE FROM refresh_tokens WHERE revoked = true OR expires_at < CURRENT_TIMESTAMP"},
	}

	for _, sweep := range sweeps {
		result := db.Exec(sweep.sql)
		if result.Error != nil {
			log.Printf("Error removing %s: %v", sweep.name, result.Error)
			continue
		}
		log.Printf("Removed %d %s", result.RowsAffected, sweep.name)
	}

	log.Println("Database cleanup completed")
}

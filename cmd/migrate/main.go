package main

import (
	"log"
	"os"

	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	// 3. AutoMigrate All Models
	tables := model.All()
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(tables))
	if err := db.AutoMigrate(tables...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Constraints AutoMigrate cannot express
	log.Println("Step 3: Creating partial unique indexes...")
	constraintSQL := []string{
		// At most one active subscription per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_user_subscriptions_one_active ON user_subscriptions (user_id) WHERE status = 'active';`,
		// At most one default model.
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_ai_models_one_default ON ai_models (is_default) WHERE is_default;`,
	}
	for _, sql := range constraintSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to apply constraint: %v", err)
		}
	}

	log.Println("Migration completed successfully.")
}

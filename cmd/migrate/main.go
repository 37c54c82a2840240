package main

import (
	"log"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/model"
	"ai-recipe-be/pkg/database"
)

// Models returns every table the API owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.PasswordResetToken{},
		&model.UserProvider{},
		&model.EmailVerificationToken{},
		&model.PaymentTransaction{},
		&model.Recipe{},
		&model.CartItem{},
	}
}

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogQueries)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(Models()...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: constraints AutoMigrate cannot express
	log.Println("Step 3: Creating partial indexes and checks...")
	postMigrationSQL := []string{
		// At most one pending checkout per user. Backs up the per-user lock
		// when two instances race.
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_transactions_user_pending
		 ON payment_transactions (user_id) WHERE status = 'pending';`,

		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_lower
		 ON users (lower(email)) WHERE deleted_at IS NULL;`,

		`DO $$ BEGIN
		   ALTER TABLE users ADD CONSTRAINT chk_users_subscription_status
		   CHECK (subscription_status IN ('trial', 'active', 'cancelled', 'expired'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`DO $$ BEGIN
		   ALTER TABLE payment_transactions ADD CONSTRAINT chk_payment_transactions_status
		   CHECK (status IN ('pending', 'paid', 'failed', 'expired'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,

		`CREATE OR REPLACE VIEW user_payment_history AS
		 SELECT pt.user_id, u.email, u.full_name, pt.provider, pt.session_id, pt.status,
		        pt.amount, pt.currency, pt.created_at, pt.completed_at
		 FROM payment_transactions pt
		 JOIN users u ON pt.user_id = u.id
		 ORDER BY pt.created_at DESC;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}

package main

import (
	"log"

	"booking-settlement-be/internal/config"
	"booking-settlement-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	log.Printf("Step 2: Running AutoMigrate for %d tables...", len(database.Models()))
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating constraints and views...")
	postMigrationSQL := []string{
		// At most one open review per booking.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_refund_requests_pending_booking
		 ON refund_requests (booking_id) WHERE status IN ('pending', 'approved');`,

		`CREATE OR REPLACE VIEW booking_refund_history AS
		 SELECT b.id AS booking_id, b.confirmation_number, b.status AS booking_status,
		        r.id AS refund_id, r.amount, r.currency, r.status AS refund_status, r.processed_at
		 FROM bookings b JOIN refunds r ON r.booking_id = b.id
		 ORDER BY r.processed_at DESC;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}

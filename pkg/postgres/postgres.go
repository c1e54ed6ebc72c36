package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// Migrations are applied in order and are safe to rerun.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS interviewers (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		max_weekly_interviews INTEGER NOT NULL DEFAULT 10,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS candidates (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS time_slots (
		id BIGSERIAL PRIMARY KEY,
		interviewer_id BIGINT NOT NULL REFERENCES interviewers(id),
		slot_date_time TIMESTAMPTZ NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 60,
		status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGSERIAL PRIMARY KEY,
		candidate_id BIGINT NOT NULL REFERENCES candidates(id),
		time_slot_id BIGINT NOT NULL REFERENCES time_slots(id),
		interviewer_id BIGINT NOT NULL REFERENCES interviewers(id),
		status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
		notes TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 0,
		booked_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`ALTER TABLE bookings ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 0`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		interviewer_id BIGINT NOT NULL REFERENCES interviewers(id),
		booking_id BIGINT REFERENCES bookings(id) ON DELETE SET NULL,
		type VARCHAR(40) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		candidate_name VARCHAR(255) NOT NULL DEFAULT '',
		candidate_email VARCHAR(255) NOT NULL DEFAULT '',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		read_at TIMESTAMPTZ
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_time_slots_status_start ON time_slots(status, slot_date_time)`,
	`CREATE INDEX IF NOT EXISTS idx_time_slots_interviewer_start ON time_slots(interviewer_id, slot_date_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_candidate_status ON bookings(candidate_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_interviewer_status ON bookings(interviewer_id, status, booked_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_confirmed_slot ON bookings(time_slot_id) WHERE status = 'CONFIRMED'`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_interviewer_read ON notifications(interviewer_id, is_read, created_at DESC)`,
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, migration := range Migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

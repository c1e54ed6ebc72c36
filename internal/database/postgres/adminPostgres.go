package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const statsQuery = `
	SELECT
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM time_slots),
		(SELECT COUNT(*) FROM candidates),
		(SELECT COUNT(*) FROM interviewers)
`

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) database.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Stats(ctx context.Context) (*entity.DatabaseStats, error) {
	return readStats(ctx, r.db)
}

// Reset truncates every table and restarts the id sequences.
func (r *adminRepository) Reset(ctx context.Context) (*entity.DatabaseStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleted, err := readStats(ctx, tx)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`TRUNCATE TABLE notifications, bookings, time_slots, candidates, interviewers RESTART IDENTITY CASCADE`)
	if err != nil {
		return nil, fmt.Errorf("failed to truncate tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deleted, nil
}

func readStats(ctx context.Context, q querier) (*entity.DatabaseStats, error) {
	var s entity.DatabaseStats
	err := q.QueryRowContext(ctx, statsQuery).Scan(&s.TotalBookings, &s.TotalTimeSlots, &s.TotalCandidates, &s.TotalInterviewers)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats: %w", err)
	}
	return &s, nil
}

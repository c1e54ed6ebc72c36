package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const slotColumns = `id, interviewer_id, slot_date_time, duration_minutes, status, version, created_at`

type slotRepository struct {
	q  querier
	db *sql.DB // nil inside a unit of work
}

func NewSlotRepository(db *sql.DB) database.SlotRepository {
	return &slotRepository{q: db, db: db}
}

func scanSlot(row scanner) (*entity.TimeSlot, error) {
	var s entity.TimeSlot
	err := row.Scan(&s.ID, &s.InterviewerID, &s.StartAt, &s.DurationMinutes, &s.Status, &s.Version, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *slotRepository) GetWithVersion(ctx context.Context, id int64) (*entity.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := scanSlot(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("slot")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}

func (r *slotRepository) ConditionalUpdate(ctx context.Context, id, expectedVersion int64, upd entity.SlotUpdate) (*entity.TimeSlot, error) {
	query := `
		UPDATE time_slots
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING ` + slotColumns

	slot, err := scanSlot(r.q.QueryRowContext(ctx, query, upd.Status, id, expectedVersion))
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}

	var exists bool
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM time_slots WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if !exists {
		return nil, entity.NewNotFound("slot")
	}
	return nil, entity.ErrVersionMismatch
}

// CreateBatch inserts all slots or none of them.
func (r *slotRepository) CreateBatch(ctx context.Context, slots []*entity.TimeSlot) error {
	if r.db == nil {
		return insertSlots(ctx, r.q, slots)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertSlots(ctx, tx, slots); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSlots(ctx context.Context, q querier, slots []*entity.TimeSlot) error {
	query := `
		INSERT INTO time_slots (interviewer_id, slot_date_time, duration_minutes, status, version)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING id, version, created_at
	`
	for _, s := range slots {
		if s.Status == "" {
			s.Status = entity.SlotStatusAvailable
		}
		err := q.QueryRowContext(ctx, query, s.InterviewerID, s.StartAt, s.DurationMinutes, s.Status).
			Scan(&s.ID, &s.Version, &s.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create slot: %w", err)
		}
	}
	return nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, after time.Time) ([]*entity.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE status = $1 AND slot_date_time > $2
		ORDER BY slot_date_time ASC, id ASC
	`
	return r.list(ctx, query, entity.SlotStatusAvailable, after)
}

func (r *slotRepository) ListByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]*entity.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE interviewer_id = $1 AND slot_date_time BETWEEN $2 AND $3
		ORDER BY slot_date_time ASC, id ASC
	`
	return r.list(ctx, query, interviewerID, from, to)
}

func (r *slotRepository) ListPastAvailable(ctx context.Context, before time.Time, limit int) ([]*entity.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE status = $1 AND slot_date_time <= $2
		ORDER BY slot_date_time ASC, id ASC
	`
	args := []interface{}{entity.SlotStatusAvailable, before}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

func (r *slotRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.TimeSlot, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var slots []*entity.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	return slots, nil
}

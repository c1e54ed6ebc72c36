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

const bookingColumns = `b.id, b.candidate_id, b.time_slot_id, b.interviewer_id, b.status, b.notes, b.version, b.booked_at, b.updated_at`

type bookingRepository struct {
	q querier
}

func NewBookingRepository(db *sql.DB) database.BookingRepository {
	return &bookingRepository{q: db}
}

func scanBooking(row scanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(&b.ID, &b.CandidateID, &b.SlotID, &b.InterviewerID, &b.Status, &b.Notes, &b.Version, &b.BookedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (candidate_id, time_slot_id, interviewer_id, status, notes, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now()
	}
	booking.UpdatedAt = booking.BookedAt
	booking.Version = 0

	err := r.q.QueryRowContext(ctx, query,
		booking.CandidateID,
		booking.SlotID,
		booking.InterviewerID,
		booking.Status,
		booking.Notes,
		booking.BookedAt,
	).Scan(&booking.ID)
	if isUniqueViolation(err) {
		return entity.NewConflict("slot already has a confirmed booking")
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (r *bookingRepository) GetByCandidate(ctx context.Context, candidateID int64) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.candidate_id = $1
		ORDER BY b.booked_at DESC, b.id DESC
	`
	return r.list(ctx, query, candidateID)
}

// Update writes the booking only if its stored version still equals
// booking.Version, and bumps the version on success.
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET time_slot_id = $1, interviewer_id = $2, status = $3, notes = $4,
		    updated_at = $5, version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	now := time.Now()
	var version int64
	err := r.q.QueryRowContext(ctx, query,
		booking.SlotID,
		booking.InterviewerID,
		booking.Status,
		booking.Notes,
		now,
		booking.ID,
		booking.Version,
	).Scan(&version)
	if isUniqueViolation(err) {
		return entity.NewConflict("slot already has a confirmed booking")
	}
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, booking.ID); getErr != nil {
			return getErr
		}
		return entity.ErrVersionMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	booking.Version = version
	booking.UpdatedAt = now
	return nil
}

func (r *bookingRepository) ListActiveForCandidate(ctx context.Context, candidateID int64, asOf time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		JOIN time_slots s ON s.id = b.time_slot_id
		WHERE b.candidate_id = $1 AND b.status = $2 AND s.slot_date_time > $3
		ORDER BY b.booked_at DESC, b.id DESC
	`
	return r.list(ctx, query, candidateID, entity.BookingStatusConfirmed, asOf)
}

func (r *bookingRepository) ListByInterviewer(ctx context.Context, interviewerID int64, status entity.BookingStatus) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.interviewer_id = $1 AND b.status = $2
		ORDER BY b.booked_at DESC, b.id DESC
	`
	return r.list(ctx, query, interviewerID, status)
}

func (r *bookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

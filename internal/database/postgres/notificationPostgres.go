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

const notificationColumns = `id, interviewer_id, booking_id, type, title, message,
	candidate_name, candidate_email, is_read, created_at, read_at`

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) database.NotificationRepository {
	return &notificationRepository{db: db}
}

func scanNotification(row scanner) (*entity.Notification, error) {
	var (
		n         entity.Notification
		bookingID sql.NullInt64
		readAt    sql.NullTime
	)
	err := row.Scan(&n.ID, &n.InterviewerID, &bookingID, &n.Type, &n.Title, &n.Message,
		&n.CandidateName, &n.CandidateEmail, &n.Read, &n.CreatedAt, &readAt)
	if err != nil {
		return nil, err
	}
	if bookingID.Valid {
		n.BookingID = &bookingID.Int64
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			interviewer_id, booking_id, type, title, message,
			candidate_name, candidate_email, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		RETURNING id
	`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	var bookingID sql.NullInt64
	if n.BookingID != nil {
		bookingID = sql.NullInt64{Int64: *n.BookingID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		n.InterviewerID,
		bookingID,
		n.Type,
		n.Title,
		n.Message,
		n.CandidateName,
		n.CandidateEmail,
		n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("notification")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) ListByInterviewer(ctx context.Context, interviewerID int64, read bool, page, size int) ([]*entity.Notification, int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE interviewer_id = $1 AND is_read = $2`,
		interviewerID, read,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE interviewer_id = $1 AND is_read = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, interviewerID, read, size, page*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var items []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}
	return items, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, interviewerID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE interviewer_id = $1 AND NOT is_read`,
		interviewerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead keeps the first read_at when called again.
func (r *notificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) (*entity.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NewNotFound("notification")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return n, nil
}

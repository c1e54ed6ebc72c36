package entity

import "time"

type NotificationType string

const (
	NotificationNewBooking       NotificationType = "NEW_BOOKING"
	NotificationBookingUpdated   NotificationType = "UPDATED_BOOKING"
	NotificationRescheduledAway  NotificationType = "RESCHEDULED_AWAY"
	NotificationRescheduledToYou NotificationType = "RESCHEDULED_TO_YOU"
)

// Notification is addressed to an interviewer. CandidateName and
// CandidateEmail are a snapshot taken when the notification was created.
type Notification struct {
	ID             int64            `json:"id" db:"id"`
	InterviewerID  int64            `json:"interviewer_id" db:"interviewer_id"`
	BookingID      *int64           `json:"booking_id,omitempty" db:"booking_id"`
	Type           NotificationType `json:"type" db:"type"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	CandidateName  string           `json:"candidate_name,omitempty" db:"candidate_name"`
	CandidateEmail string           `json:"candidate_email,omitempty" db:"candidate_email"`
	Read           bool             `json:"read" db:"is_read"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	ReadAt         *time.Time       `json:"read_at,omitempty" db:"read_at"`
}

type NotificationPage struct {
	Content       []*Notification `json:"content"`
	Page          int             `json:"number"`
	PageSize      int             `json:"size"`
	TotalElements int64           `json:"total_elements"`
	TotalPages    int             `json:"total_pages"`
}

func NewNotificationPage(items []*Notification, page, size int, total int64) *NotificationPage {
	if items == nil {
		items = []*Notification{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &NotificationPage{
		Content:       items,
		Page:          page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

func (p *NotificationPage) First() bool { return p.Page == 0 }

func (p *NotificationPage) Last() bool { return p.Page >= p.TotalPages-1 }

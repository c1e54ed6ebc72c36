package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
	"github.com/ds124wfegd/WB_L3/interview/pkg/queue"
)

// BookingService is the booking concurrency engine.
type BookingService interface {
	Book(ctx context.Context, req *BookRequest) (*entity.Booking, error)
	Reschedule(ctx context.Context, bookingID, newSlotID int64) (*entity.Booking, error)
	Cancel(ctx context.Context, bookingID int64) error

	GetBooking(ctx context.Context, id int64) (*entity.Booking, error)
	ListActiveBookingsForCandidate(ctx context.Context, candidateID int64, asOf time.Time) ([]*entity.Booking, error)
	// ListBookingsForInterviewer returns CONFIRMED bookings, most recently booked first.
	ListBookingsForInterviewer(ctx context.Context, interviewerID int64) ([]*entity.Booking, error)
}

type NotificationService interface {
	ListUnread(ctx context.Context, interviewerID int64, page int) (*entity.NotificationPage, error)
	ListRead(ctx context.Context, interviewerID int64, page int) (*entity.NotificationPage, error)
	CountUnread(ctx context.Context, interviewerID int64) (int64, error)
	MarkRead(ctx context.Context, notificationID int64) (*entity.Notification, error)
}

// NotificationSink accepts notifications produced by the engine after commit.
type NotificationSink interface {
	Enqueue(ctx context.Context, n *entity.Notification) error
}

type SlotService interface {
	GenerateSlots(ctx context.Context, req *GenerateSlotsRequest) ([]*entity.TimeSlot, error)
	ListAvailable(ctx context.Context) ([]*entity.TimeSlot, error)
	ListForInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]*entity.TimeSlot, error)
	// RetirePastSlots cancels AVAILABLE slots that already started and
	// returns how many were retired.
	RetirePastSlots(ctx context.Context, limit int) (int, error)
}

type CandidateService interface {
	Register(ctx context.Context, req *RegisterCandidateRequest) (*Registration, error)
	GetCandidate(ctx context.Context, id int64) (*entity.Candidate, error)
	UpdateContact(ctx context.Context, id int64, req *UpdateContactRequest) (*entity.Candidate, error)
}

type InterviewerService interface {
	CreateInterviewer(ctx context.Context, req *CreateInterviewerRequest) (*entity.Interviewer, error)
	GetInterviewer(ctx context.Context, id int64) (*entity.Interviewer, error)
	ListInterviewers(ctx context.Context) ([]*entity.Interviewer, error)
}

// DeliveryService lets operators inspect the notification delivery broker.
type DeliveryService interface {
	Broker() string
	Health(ctx context.Context) error
	QueueStats(ctx context.Context) (*queue.QueueStats, error)
	FailedTasks(ctx context.Context, limit int) ([]*queue.FailedTask, error)
	Requeue(ctx context.Context, taskID string) error
}

type AdminService interface {
	Stats(ctx context.Context) (*entity.DatabaseStats, error)
	Reset(ctx context.Context) (*entity.DatabaseStats, error)
}

type BookRequest struct {
	CandidateID int64  `json:"candidate_id" binding:"required"`
	SlotID      int64  `json:"slot_id" binding:"required"`
	Notes       string `json:"notes"`
}

type RescheduleRequest struct {
	NewSlotID int64 `json:"new_slot_id" binding:"required"`
}

// GenerateSlotsRequest describes one weekly window. DayOfWeek is an English
// day name, StartTime and EndTime are HH:MM.
type GenerateSlotsRequest struct {
	InterviewerID   int64  `json:"interviewer_id"`
	DayOfWeek       string `json:"day_of_week" binding:"required"`
	StartTime       string `json:"start_time" binding:"required"`
	EndTime         string `json:"end_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes"`
}

type RegisterCandidateRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Phone string `json:"phone"`
}

type UpdateContactRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreateInterviewerRequest struct {
	Name                string `json:"name" binding:"required"`
	Email               string `json:"email" binding:"required"`
	MaxWeeklyInterviews int    `json:"max_weekly_interviews"`
}

// Registration is the outcome of a registration. Existing is set when the
// email was already registered, Booking is that candidate's latest booking.
type Registration struct {
	Candidate *entity.Candidate `json:"candidate"`
	Booking   *entity.Booking   `json:"booking"`
	Existing  bool              `json:"existing"`
}

// TaskPublisher hands delivery tasks to a broker.
type TaskPublisher interface {
	Publish(ctx context.Context, task *Task) error
}

type Task struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	ExecuteAt  time.Time              `json:"execute_at"`
	MaxRetries int                    `json:"max_retries"`
	Attempts   int                    `json:"attempts"`
}

const (
	TaskTypeDeliverNotification = "deliver_notification"
)

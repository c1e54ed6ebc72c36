package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

// SlotRepository is the slot store. ConditionalUpdate applies only when the
// stored version equals expectedVersion and returns entity.ErrVersionMismatch
// otherwise; on success the stored version is incremented by one.
type SlotRepository interface {
	GetWithVersion(ctx context.Context, id int64) (*entity.TimeSlot, error)
	ConditionalUpdate(ctx context.Context, id, expectedVersion int64, upd entity.SlotUpdate) (*entity.TimeSlot, error)

	CreateBatch(ctx context.Context, slots []*entity.TimeSlot) error
	ListAvailable(ctx context.Context, after time.Time) ([]*entity.TimeSlot, error)
	ListByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]*entity.TimeSlot, error)
	ListPastAvailable(ctx context.Context, before time.Time, limit int) ([]*entity.TimeSlot, error)
}

// BookingRepository is the booking ledger.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id int64) (*entity.Booking, error)
	GetByCandidate(ctx context.Context, candidateID int64) ([]*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error

	// ListActiveForCandidate returns CONFIRMED bookings whose slot starts strictly after asOf.
	ListActiveForCandidate(ctx context.Context, candidateID int64, asOf time.Time) ([]*entity.Booking, error)
	// ListByInterviewer returns bookings with the given status, most recently booked first.
	ListByInterviewer(ctx context.Context, interviewerID int64, status entity.BookingStatus) ([]*entity.Booking, error)
}

type CandidateRepository interface {
	Create(ctx context.Context, candidate *entity.Candidate) error
	GetByID(ctx context.Context, id int64) (*entity.Candidate, error)
	GetByEmail(ctx context.Context, email string) (*entity.Candidate, error)
	UpdateContact(ctx context.Context, id int64, email, phone string) (*entity.Candidate, error)

	// ClaimBookingVersion bumps the candidate version iff it still equals expected.
	ClaimBookingVersion(ctx context.Context, id, expected int64) error
}

type InterviewerRepository interface {
	Create(ctx context.Context, interviewer *entity.Interviewer) error
	GetByID(ctx context.Context, id int64) (*entity.Interviewer, error)
	GetAll(ctx context.Context) ([]*entity.Interviewer, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id int64) (*entity.Notification, error)
	ListByInterviewer(ctx context.Context, interviewerID int64, read bool, page, size int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, interviewerID int64) (int64, error)
	// MarkRead flips the flag and sets read_at only on the first transition.
	MarkRead(ctx context.Context, id int64, at time.Time) (*entity.Notification, error)
}

type AdminRepository interface {
	Stats(ctx context.Context) (*entity.DatabaseStats, error)
	Reset(ctx context.Context) (*entity.DatabaseStats, error)
}

// Tx is the view of the stores inside one unit of work.
type Tx interface {
	Slots() SlotRepository
	Bookings() BookingRepository
	Candidates() CandidateRepository
}

// UnitOfWork runs fn atomically: every write made through tx commits
// together when fn returns nil, and none of them is visible otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// Storage bundles everything the application needs from a backend.
type Storage struct {
	UnitOfWork    UnitOfWork
	Slots         SlotRepository
	Bookings      BookingRepository
	Candidates    CandidateRepository
	Interviewers  InterviewerRepository
	Notifications NotificationRepository
	Admin         AdminRepository
	Close         func() error
}

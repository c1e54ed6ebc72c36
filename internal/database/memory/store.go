// Package memory is a map-backed storage backend. Units of work stage their
// writes and validate the versions they were based on at commit, so two
// transactions that read the same slot version cannot both commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type Store struct {
	mu sync.RWMutex

	slots         map[int64]entity.TimeSlot
	bookings      map[int64]entity.Booking
	candidates    map[int64]entity.Candidate
	interviewers  map[int64]entity.Interviewer
	notifications map[int64]entity.Notification

	slotSeq         int64
	bookingSeq      int64
	candidateSeq    int64
	interviewerSeq  int64
	notificationSeq int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		slots:         make(map[int64]entity.TimeSlot),
		bookings:      make(map[int64]entity.Booking),
		candidates:    make(map[int64]entity.Candidate),
		interviewers:  make(map[int64]entity.Interviewer),
		notifications: make(map[int64]entity.Notification),
		now:           time.Now,
	}
}

// NewStorage wires a fresh store into the application storage bundle.
func NewStorage() (*database.Storage, *Store) {
	s := NewStore()
	return &database.Storage{
		UnitOfWork:    s,
		Slots:         s.Slots(),
		Bookings:      s.Bookings(),
		Candidates:    s.Candidates(),
		Interviewers:  s.Interviewers(),
		Notifications: s.Notifications(),
		Admin:         s,
		Close:         func() error { return nil },
	}, s
}

func (s *Store) Slots() database.SlotRepository { return &slotRepo{store: s} }

func (s *Store) Bookings() database.BookingRepository { return &bookingRepo{store: s} }

func (s *Store) Candidates() database.CandidateRepository { return &candidateRepo{store: s} }

func (s *Store) Interviewers() database.InterviewerRepository { return &interviewerRepo{store: s} }

func (s *Store) Notifications() database.NotificationRepository { return &notificationRepo{store: s} }

func (s *Store) nextID(seq *int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	*seq++
	return *seq
}

// Do runs fn against a staged transaction and commits it when fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(tx database.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) Stats(ctx context.Context) (*entity.DatabaseStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &entity.DatabaseStats{
		TotalBookings:     int64(len(s.bookings)),
		TotalTimeSlots:    int64(len(s.slots)),
		TotalCandidates:   int64(len(s.candidates)),
		TotalInterviewers: int64(len(s.interviewers)),
	}, nil
}

func (s *Store) Reset(ctx context.Context) (*entity.DatabaseStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := &entity.DatabaseStats{
		TotalBookings:     int64(len(s.bookings)),
		TotalTimeSlots:    int64(len(s.slots)),
		TotalCandidates:   int64(len(s.candidates)),
		TotalInterviewers: int64(len(s.interviewers)),
	}

	s.slots = make(map[int64]entity.TimeSlot)
	s.bookings = make(map[int64]entity.Booking)
	s.candidates = make(map[int64]entity.Candidate)
	s.interviewers = make(map[int64]entity.Interviewer)
	s.notifications = make(map[int64]entity.Notification)
	s.slotSeq, s.bookingSeq, s.candidateSeq, s.interviewerSeq, s.notificationSeq = 0, 0, 0, 0, 0

	return deleted, nil
}

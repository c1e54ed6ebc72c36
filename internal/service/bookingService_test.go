package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/database/memory"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type recordingSink struct {
	mu    sync.Mutex
	items []*entity.Notification
	err   error
}

func (r *recordingSink) Enqueue(ctx context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return r.err
}

func (r *recordingSink) sent() []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Notification(nil), r.items...)
}

// faultyUoW fails every conditional write to failSlot with err.
type faultyUoW struct {
	inner    database.UnitOfWork
	failSlot int64
	err      error
}

func (u *faultyUoW) Do(ctx context.Context, fn func(tx database.Tx) error) error {
	return u.inner.Do(ctx, func(tx database.Tx) error {
		return fn(&faultyTx{Tx: tx, failSlot: u.failSlot, err: u.err})
	})
}

type faultyTx struct {
	database.Tx
	failSlot int64
	err      error
}

func (t *faultyTx) Slots() database.SlotRepository {
	return &faultySlots{SlotRepository: t.Tx.Slots(), failSlot: t.failSlot, err: t.err}
}

type faultySlots struct {
	database.SlotRepository
	failSlot int64
	err      error
}

func (s *faultySlots) ConditionalUpdate(ctx context.Context, id, expected int64, upd entity.SlotUpdate) (*entity.TimeSlot, error) {
	if id == s.failSlot {
		return nil, s.err
	}
	return s.SlotRepository.ConditionalUpdate(ctx, id, expected, upd)
}

// interleavingUoW runs between once, right after the wrapped unit of work
// has read slot watchSlot, to let another workflow commit in that window.
type interleavingUoW struct {
	inner     database.UnitOfWork
	watchSlot int64
	between   func()
	once      sync.Once
}

func (u *interleavingUoW) Do(ctx context.Context, fn func(tx database.Tx) error) error {
	return u.inner.Do(ctx, func(tx database.Tx) error {
		return fn(&interleavingTx{Tx: tx, uow: u})
	})
}

type interleavingTx struct {
	database.Tx
	uow *interleavingUoW
}

func (t *interleavingTx) Slots() database.SlotRepository {
	return &interleavingSlots{SlotRepository: t.Tx.Slots(), uow: t.uow}
}

type interleavingSlots struct {
	database.SlotRepository
	uow *interleavingUoW
}

func (s *interleavingSlots) GetWithVersion(ctx context.Context, id int64) (*entity.TimeSlot, error) {
	slot, err := s.SlotRepository.GetWithVersion(ctx, id)
	if id == s.uow.watchSlot {
		s.uow.once.Do(s.uow.between)
	}
	return slot, err
}

type stalledUoW struct{}

func (stalledUoW) Do(ctx context.Context, fn func(tx database.Tx) error) error {
	<-ctx.Done()
	return ctx.Err()
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	storage *database.Storage
	sink    *recordingSink
	svc     BookingService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	storage, _ := memory.NewStorage()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		storage: storage,
		sink:    &recordingSink{},
		now:     time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewBookingService(storage, f.sink, BookingOptions{Now: func() time.Time { return f.now }})
	return f
}

func (f *fixture) withUoW(uow database.UnitOfWork) BookingService {
	storage := *f.storage
	storage.UnitOfWork = uow
	return NewBookingService(&storage, f.sink, BookingOptions{
		TxTimeout: 20 * time.Millisecond,
		Now:       func() time.Time { return f.now },
	})
}

func (f *fixture) interleaved(watchSlot int64, between func()) BookingService {
	storage := *f.storage
	storage.UnitOfWork = &interleavingUoW{inner: f.storage.UnitOfWork, watchSlot: watchSlot, between: between}
	return NewBookingService(&storage, f.sink, BookingOptions{Now: func() time.Time { return f.now }})
}

func (f *fixture) candidate(name, email string) *entity.Candidate {
	c := &entity.Candidate{Name: name, Email: email}
	require.NoError(f.t, f.storage.Candidates.Create(f.ctx, c))
	return c
}

func (f *fixture) interviewer(name, email string) *entity.Interviewer {
	i := &entity.Interviewer{Name: name, Email: email, MaxWeeklyInterviews: entity.DefaultMaxWeeklyInterviews}
	require.NoError(f.t, f.storage.Interviewers.Create(f.ctx, i))
	return i
}

func (f *fixture) slot(interviewerID int64, start time.Time, status entity.SlotStatus) *entity.TimeSlot {
	s := &entity.TimeSlot{InterviewerID: interviewerID, StartAt: start, DurationMinutes: 60, Status: status}
	require.NoError(f.t, f.storage.Slots.CreateBatch(f.ctx, []*entity.TimeSlot{s}))
	return s
}

func (f *fixture) reload(id int64) *entity.TimeSlot {
	s, err := f.storage.Slots.GetWithVersion(f.ctx, id)
	require.NoError(f.t, err)
	return s
}

func TestBook_ConfirmsAndNotifies(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)

	booking, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID, Notes: "backend"})
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, c1.ID, booking.CandidateID)
	assert.Equal(t, s1.ID, booking.SlotID)
	assert.Equal(t, i1.ID, booking.InterviewerID)
	assert.Equal(t, "backend", booking.Notes)

	slot := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusBooked, slot.Status)
	assert.EqualValues(t, 1, slot.Version)

	sent := f.sink.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, entity.NotificationNewBooking, sent[0].Type)
	assert.Equal(t, i1.ID, sent[0].InterviewerID)
	assert.Equal(t, booking.ID, *sent[0].BookingID)
	assert.Equal(t, "Alice", sent[0].CandidateName)
	assert.Equal(t, "alice@example.com", sent[0].CandidateEmail)
	assert.Contains(t, sent[0].Message, "Alice")
	assert.Contains(t, sent[0].Message, "2030-01-08 09:00")
}

func TestBook_ConcurrentRequestsForOneSlot(t *testing.T) {
	f := newFixture(t)
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)

	const racers = 16
	candidates := make([]*entity.Candidate, racers)
	for i := range candidates {
		candidates[i] = f.candidate("C", string(rune('a'+i))+"@example.com")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	start := make(chan struct{})
	for _, c := range candidates {
		wg.Add(1)
		go func(c *entity.Candidate) {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c.ID, SlotID: s1.ID})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case entity.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(c)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	slot := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusBooked, slot.Status)
	assert.EqualValues(t, 1, slot.Version)

	bookings, err := f.svc.ListBookingsForInterviewer(f.ctx, i1.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Len(t, f.sink.sent(), 1)
}

func TestBook_SameCandidateRacingForTwoSlots(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")

	const slots = 8
	ids := make([]int64, slots)
	for i := range ids {
		ids[i] = f.slot(i1.ID, f.now.Add(time.Duration(i+1)*time.Hour), entity.SlotStatusAvailable).ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(slotID int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: slotID})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, entity.IsConflict(err), "unexpected error: %v", err)
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	active, err := f.svc.ListActiveBookingsForCandidate(f.ctx, c1.ID, f.now)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	booked := 0
	for _, id := range ids {
		if f.reload(id).Status == entity.SlotStatusBooked {
			booked++
		}
	}
	assert.Equal(t, 1, booked)
}

func TestBook_PastSlotIsRejectedWhateverItsStatus(t *testing.T) {
	for _, status := range []entity.SlotStatus{entity.SlotStatusAvailable, entity.SlotStatusBooked, entity.SlotStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			c1 := f.candidate("Alice", "alice@example.com")
			i1 := f.interviewer("Ivan", "ivan@example.com")
			past := f.slot(i1.ID, f.now.Add(-time.Hour), status)

			_, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: past.ID})
			require.Error(t, err)
			assert.True(t, entity.IsValidation(err))
			assert.Equal(t, "cannot book past slot", err.Error())
			assert.EqualValues(t, 0, f.reload(past.ID).Version)
		})
	}
}

func TestBook_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture) *BookRequest
		check   func(error) bool
		message string
	}{
		{
			name: "unknown candidate",
			setup: func(f *fixture) *BookRequest {
				i := f.interviewer("Ivan", "ivan@example.com")
				s := f.slot(i.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)
				return &BookRequest{CandidateID: 404, SlotID: s.ID}
			},
			check:   entity.IsNotFound,
			message: "candidate not found",
		},
		{
			name: "unknown slot",
			setup: func(f *fixture) *BookRequest {
				c := f.candidate("Alice", "alice@example.com")
				return &BookRequest{CandidateID: c.ID, SlotID: 404}
			},
			check:   entity.IsNotFound,
			message: "slot not found",
		},
		{
			name: "slot already booked",
			setup: func(f *fixture) *BookRequest {
				c := f.candidate("Alice", "alice@example.com")
				i := f.interviewer("Ivan", "ivan@example.com")
				s := f.slot(i.ID, f.now.Add(time.Hour), entity.SlotStatusBooked)
				return &BookRequest{CandidateID: c.ID, SlotID: s.ID}
			},
			check:   entity.IsConflict,
			message: "slot no longer available",
		},
		{
			name: "candidate has an active booking",
			setup: func(f *fixture) *BookRequest {
				c := f.candidate("Alice", "alice@example.com")
				i := f.interviewer("Ivan", "ivan@example.com")
				first := f.slot(i.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)
				second := f.slot(i.ID, f.now.Add(2*time.Hour), entity.SlotStatusAvailable)
				_, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c.ID, SlotID: first.ID})
				require.NoError(f.t, err)
				return &BookRequest{CandidateID: c.ID, SlotID: second.ID}
			},
			check:   entity.IsConflict,
			message: "candidate already has an active booking",
		},
		{
			name: "lost the slot race",
			setup: func(f *fixture) *BookRequest {
				c := f.candidate("Alice", "alice@example.com")
				i := f.interviewer("Ivan", "ivan@example.com")
				s := f.slot(i.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)
				f.svc = f.withUoW(&faultyUoW{inner: f.storage.UnitOfWork, failSlot: s.ID, err: entity.ErrVersionMismatch})
				return &BookRequest{CandidateID: c.ID, SlotID: s.ID}
			},
			check:   entity.IsConflict,
			message: "slot was just booked by another candidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := tt.setup(f)
			sentBefore := len(f.sink.sent())

			_, err := f.svc.Book(f.ctx, req)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			assert.Equal(t, tt.message, err.Error())
			assert.Len(t, f.sink.sent(), sentBefore)
		})
	}
}

func TestBook_PastBookingDoesNotBlockNewOne(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	old := f.slot(i1.ID, f.now.Add(-48*time.Hour), entity.SlotStatusBooked)
	require.NoError(t, f.storage.Bookings.Create(f.ctx, &entity.Booking{
		CandidateID: c1.ID, SlotID: old.ID, InterviewerID: i1.ID, Status: entity.BookingStatusConfirmed,
	}))
	next := f.slot(i1.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)

	_, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: next.ID})
	assert.NoError(t, err)
}

func TestBook_NotificationFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("broker down")
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)

	booking, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	stored, err := f.svc.GetBooking(f.ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, entity.SlotStatusBooked, f.reload(s1.ID).Status)
}

func TestBook_TimeoutIsRetryable(t *testing.T) {
	f := newFixture(t)
	svc := f.withUoW(stalledUoW{})

	_, err := svc.Book(f.ctx, &BookRequest{CandidateID: 1, SlotID: 1})
	require.Error(t, err)
	assert.True(t, entity.IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReschedule_ToAnotherInterviewer(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	i2 := f.interviewer("Olga", "olga@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
	s2 := f.slot(i2.ID, f.now.Add(48*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(f.ctx, b1.ID, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, moved.SlotID)
	assert.Equal(t, i2.ID, moved.InterviewerID)

	stored, err := f.svc.GetBooking(f.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, i2.ID, stored.InterviewerID)
	assert.Equal(t, s2.ID, stored.SlotID)

	old := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusAvailable, old.Status)
	assert.EqualValues(t, 2, old.Version)
	assert.Equal(t, entity.SlotStatusBooked, f.reload(s2.ID).Status)

	sent := f.sink.sent()
	require.Len(t, sent, 3)
	away, toYou := sent[1], sent[2]
	assert.Equal(t, entity.NotificationRescheduledAway, away.Type)
	assert.Equal(t, i1.ID, away.InterviewerID)
	assert.Equal(t, entity.NotificationRescheduledToYou, toYou.Type)
	assert.Equal(t, i2.ID, toYou.InterviewerID)
	for _, n := range []*entity.Notification{away, toYou} {
		assert.Contains(t, n.Message, "Alice")
		assert.Contains(t, n.Message, "2030-01-08 09:00")
		assert.Contains(t, n.Message, "2030-01-09 09:00")
		assert.Equal(t, b1.ID, *n.BookingID)
	}
}

func TestReschedule_SameInterviewer(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
	s2 := f.slot(i1.ID, f.now.Add(26*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)
	_, err = f.svc.Reschedule(f.ctx, b1.ID, s2.ID)
	require.NoError(t, err)

	sent := f.sink.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, entity.NotificationBookingUpdated, sent[1].Type)
	assert.Equal(t, i1.ID, sent[1].InterviewerID)
	assert.Contains(t, sent[1].Message, "2030-01-08 09:00")
	assert.Contains(t, sent[1].Message, "2030-01-08 11:00")
}

func TestReschedule_IsAllOrNothing(t *testing.T) {
	for _, injected := range []error{entity.ErrVersionMismatch, errors.New("disk full")} {
		t.Run(injected.Error(), func(t *testing.T) {
			f := newFixture(t)
			c1 := f.candidate("Alice", "alice@example.com")
			i1 := f.interviewer("Ivan", "ivan@example.com")
			s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
			s2 := f.slot(i1.ID, f.now.Add(26*time.Hour), entity.SlotStatusAvailable)

			b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
			require.NoError(t, err)

			svc := f.withUoW(&faultyUoW{inner: f.storage.UnitOfWork, failSlot: s2.ID, err: injected})
			_, err = svc.Reschedule(f.ctx, b1.ID, s2.ID)
			require.Error(t, err)
			if errors.Is(injected, entity.ErrVersionMismatch) {
				assert.True(t, entity.IsConflict(err))
				assert.Equal(t, "reschedule failed, please retry", err.Error())
			} else {
				assert.ErrorIs(t, err, injected)
			}

			old := f.reload(s1.ID)
			assert.Equal(t, entity.SlotStatusBooked, old.Status)
			assert.EqualValues(t, 1, old.Version)

			target := f.reload(s2.ID)
			assert.Equal(t, entity.SlotStatusAvailable, target.Status)
			assert.EqualValues(t, 0, target.Version)

			stored, err := f.svc.GetBooking(f.ctx, b1.ID)
			require.NoError(t, err)
			assert.Equal(t, s1.ID, stored.SlotID)
			assert.Len(t, f.sink.sent(), 1)
		})
	}
}

func TestReschedule_Failures(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
	taken := f.slot(i1.ID, f.now.Add(30*time.Hour), entity.SlotStatusBooked)
	free := f.slot(i1.ID, f.now.Add(32*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	t.Run("unknown booking", func(t *testing.T) {
		_, err := f.svc.Reschedule(f.ctx, 404, free.ID)
		assert.True(t, entity.IsNotFound(err))
		assert.Equal(t, "booking not found", err.Error())
	})
	t.Run("unknown new slot", func(t *testing.T) {
		_, err := f.svc.Reschedule(f.ctx, b1.ID, 404)
		assert.True(t, entity.IsNotFound(err))
		assert.Equal(t, "new slot not found", err.Error())
	})
	t.Run("new slot taken", func(t *testing.T) {
		_, err := f.svc.Reschedule(f.ctx, b1.ID, taken.ID)
		assert.True(t, entity.IsConflict(err))
		assert.Equal(t, "new slot not available", err.Error())
	})
	t.Run("same slot", func(t *testing.T) {
		_, err := f.svc.Reschedule(f.ctx, b1.ID, s1.ID)
		assert.True(t, entity.IsConflict(err))
	})
	t.Run("cancelled booking", func(t *testing.T) {
		require.NoError(t, f.svc.Cancel(f.ctx, b1.ID))
		_, err := f.svc.Reschedule(f.ctx, b1.ID, free.ID)
		assert.True(t, entity.IsConflict(err))
		assert.Equal(t, "only confirmed bookings can be rescheduled", err.Error())
		assert.Equal(t, entity.SlotStatusAvailable, f.reload(free.ID).Status)
	})
}

func TestReschedule_MissingOldSlotIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	free := f.slot(i1.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)
	orphan := &entity.Booking{CandidateID: c1.ID, SlotID: 999, InterviewerID: i1.ID, Status: entity.BookingStatusConfirmed}
	require.NoError(t, f.storage.Bookings.Create(f.ctx, orphan))

	_, err := f.svc.Reschedule(f.ctx, orphan.ID, free.ID)
	assert.True(t, entity.IsIntegrity(err))
	assert.EqualValues(t, 0, f.reload(free.ID).Version)

	err = f.svc.Cancel(f.ctx, orphan.ID)
	assert.True(t, entity.IsIntegrity(err))
}

func TestCancel_ReleasesSlotOnce(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(f.ctx, b1.ID))
	slot := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusAvailable, slot.Status)
	assert.EqualValues(t, 2, slot.Version)

	stored, err := f.svc.GetBooking(f.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, stored.Status)

	// cancelling again is a no-op and must not release the slot a second time
	require.NoError(t, f.svc.Cancel(f.ctx, b1.ID))
	assert.EqualValues(t, 2, f.reload(s1.ID).Version)

	assert.Len(t, f.sink.sent(), 1)

	// the candidate may book again and the slot is bookable again
	_, err = f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	assert.NoError(t, err)
}

func TestCancel_RacingRescheduleReleasesTheNewSlot(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
	s2 := f.slot(i1.ID, f.now.Add(48*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	svc := f.interleaved(s1.ID, func() {
		_, err := f.svc.Reschedule(f.ctx, b1.ID, s2.ID)
		require.NoError(t, err)
	})
	require.NoError(t, svc.Cancel(f.ctx, b1.ID))

	stored, err := f.svc.GetBooking(f.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, stored.Status)
	assert.Equal(t, s2.ID, stored.SlotID)

	old := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusAvailable, old.Status)
	assert.EqualValues(t, 2, old.Version)

	moved := f.reload(s2.ID)
	assert.Equal(t, entity.SlotStatusAvailable, moved.Status)
	assert.EqualValues(t, 2, moved.Version)
}

func TestReschedule_RacingCancelDoesNotReviveBooking(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)
	s2 := f.slot(i1.ID, f.now.Add(48*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	svc := f.interleaved(s2.ID, func() {
		require.NoError(t, f.svc.Cancel(f.ctx, b1.ID))
	})
	_, err = svc.Reschedule(f.ctx, b1.ID, s2.ID)
	assert.True(t, entity.IsConflict(err))

	stored, err := f.svc.GetBooking(f.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, stored.Status)
	assert.Equal(t, s1.ID, stored.SlotID)

	assert.Equal(t, entity.SlotStatusAvailable, f.reload(s1.ID).Status)
	target := f.reload(s2.ID)
	assert.Equal(t, entity.SlotStatusAvailable, target.Status)
	assert.EqualValues(t, 0, target.Version)
	assert.Len(t, f.sink.sent(), 1)
}

func TestCancel_RacingCancelIsNoop(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	svc := f.interleaved(s1.ID, func() {
		require.NoError(t, f.svc.Cancel(f.ctx, b1.ID))
	})
	require.NoError(t, svc.Cancel(f.ctx, b1.ID))

	slot := f.reload(s1.ID)
	assert.Equal(t, entity.SlotStatusAvailable, slot.Status)
	assert.EqualValues(t, 2, slot.Version)
}

func TestCancel_PersistentConflictGivesUp(t *testing.T) {
	f := newFixture(t)
	c1 := f.candidate("Alice", "alice@example.com")
	i1 := f.interviewer("Ivan", "ivan@example.com")
	s1 := f.slot(i1.ID, f.now.Add(24*time.Hour), entity.SlotStatusAvailable)

	b1, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: c1.ID, SlotID: s1.ID})
	require.NoError(t, err)

	svc := f.withUoW(&faultyUoW{inner: f.storage.UnitOfWork, failSlot: s1.ID, err: entity.ErrVersionMismatch})
	err = svc.Cancel(f.ctx, b1.ID)
	assert.True(t, entity.IsConflict(err))
	assert.Equal(t, "cancel failed, please retry", err.Error())

	stored, err := f.svc.GetBooking(f.ctx, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, entity.SlotStatusBooked, f.reload(s1.ID).Status)
}

func TestCancel_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Cancel(f.ctx, 404)
	assert.True(t, entity.IsNotFound(err))
}

func TestListBookings(t *testing.T) {
	f := newFixture(t)
	i1 := f.interviewer("Ivan", "ivan@example.com")
	alice := f.candidate("Alice", "alice@example.com")
	bob := f.candidate("Bob", "bob@example.com")
	s1 := f.slot(i1.ID, f.now.Add(time.Hour), entity.SlotStatusAvailable)
	s2 := f.slot(i1.ID, f.now.Add(2*time.Hour), entity.SlotStatusAvailable)

	first, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: alice.ID, SlotID: s1.ID})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	second, err := f.svc.Book(f.ctx, &BookRequest{CandidateID: bob.ID, SlotID: s2.ID})
	require.NoError(t, err)

	list, err := f.svc.ListBookingsForInterviewer(f.ctx, i1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	require.NoError(t, f.svc.Cancel(f.ctx, second.ID))
	list, err = f.svc.ListBookingsForInterviewer(f.ctx, i1.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	active, err := f.svc.ListActiveBookingsForCandidate(f.ctx, alice.ID, f.now)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	active, err = f.svc.ListActiveBookingsForCandidate(f.ctx, alice.ID, f.now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.ListActiveBookingsForCandidate(f.ctx, 404, f.now)
	assert.True(t, entity.IsNotFound(err))
}

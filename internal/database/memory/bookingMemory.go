package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type bookingRepo struct {
	store *Store
	tx    *tx
}

func (r *bookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	booking.ID = r.store.nextID(&r.store.bookingSeq)
	now := r.store.now()
	if booking.BookedAt.IsZero() {
		booking.BookedAt = now
	}
	booking.UpdatedAt = now
	booking.Version = 0

	if r.tx != nil {
		r.tx.bookings[booking.ID] = *booking
		return nil
	}

	r.store.mu.Lock()
	r.store.bookings[booking.ID] = *booking
	r.store.mu.Unlock()
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*entity.Booking, error) {
	var (
		b  entity.Booking
		ok bool
	)
	if r.tx != nil {
		b, ok = r.tx.booking(id)
	} else {
		r.store.mu.RLock()
		b, ok = r.store.bookings[id]
		r.store.mu.RUnlock()
	}
	if !ok {
		return nil, entity.NewNotFound("booking")
	}
	return &b, nil
}

func (r *bookingRepo) GetByCandidate(ctx context.Context, candidateID int64) ([]*entity.Booking, error) {
	return r.list(func(b entity.Booking) bool { return b.CandidateID == candidateID }), nil
}

func (r *bookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()

		current, ok := r.store.bookings[booking.ID]
		if !ok {
			return entity.NewNotFound("booking")
		}
		if current.Version != booking.Version {
			return entity.ErrVersionMismatch
		}
		booking.Version++
		booking.UpdatedAt = r.store.now()
		r.store.bookings[booking.ID] = *booking
		return nil
	}

	current, ok := r.tx.booking(booking.ID)
	if !ok {
		return entity.NewNotFound("booking")
	}
	if current.Version != booking.Version {
		return entity.ErrVersionMismatch
	}
	_, created := r.tx.bookings[booking.ID]
	if _, staged := r.tx.bookingBase[booking.ID]; !staged && !created {
		r.tx.bookingBase[booking.ID] = current.Version
	}
	booking.Version++
	booking.UpdatedAt = r.store.now()
	r.tx.bookings[booking.ID] = *booking
	return nil
}

func (r *bookingRepo) ListActiveForCandidate(ctx context.Context, candidateID int64, asOf time.Time) ([]*entity.Booking, error) {
	slotStart := func(id int64) (time.Time, bool) {
		if r.tx != nil {
			s, ok := r.tx.slot(id)
			return s.StartAt, ok
		}
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
		s, ok := r.store.slots[id]
		return s.StartAt, ok
	}

	return r.list(func(b entity.Booking) bool {
		if b.CandidateID != candidateID || b.Status != entity.BookingStatusConfirmed {
			return false
		}
		start, ok := slotStart(b.SlotID)
		return ok && start.After(asOf)
	}), nil
}

func (r *bookingRepo) ListByInterviewer(ctx context.Context, interviewerID int64, status entity.BookingStatus) ([]*entity.Booking, error) {
	return r.list(func(b entity.Booking) bool {
		return b.InterviewerID == interviewerID && b.Status == status
	}), nil
}

// list returns matching bookings, most recently booked first.
func (r *bookingRepo) list(keep func(entity.Booking) bool) []*entity.Booking {
	var all []entity.Booking
	if r.tx != nil {
		all = r.tx.visibleBookings()
	} else {
		r.store.mu.RLock()
		all = make([]entity.Booking, 0, len(r.store.bookings))
		for _, b := range r.store.bookings {
			all = append(all, b)
		}
		r.store.mu.RUnlock()
	}

	var out []*entity.Booking
	for _, b := range all {
		if keep(b) {
			booking := b
			out = append(out, &booking)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookedAt.Equal(out[j].BookedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].BookedAt.After(out[j].BookedAt)
	})
	return out
}

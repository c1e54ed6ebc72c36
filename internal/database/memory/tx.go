package memory

import (
	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type tx struct {
	store *Store

	// committed version each staged slot/booking/candidate was derived from
	slotBase      map[int64]int64
	bookingBase   map[int64]int64
	candidateBase map[int64]int64

	slots      map[int64]entity.TimeSlot
	bookings   map[int64]entity.Booking
	candidates map[int64]entity.Candidate
}

func newTx(s *Store) *tx {
	return &tx{
		store:         s,
		slotBase:      make(map[int64]int64),
		bookingBase:   make(map[int64]int64),
		candidateBase: make(map[int64]int64),
		slots:         make(map[int64]entity.TimeSlot),
		bookings:      make(map[int64]entity.Booking),
		candidates:    make(map[int64]entity.Candidate),
	}
}

func (t *tx) Slots() database.SlotRepository { return &slotRepo{store: t.store, tx: t} }

func (t *tx) Bookings() database.BookingRepository { return &bookingRepo{store: t.store, tx: t} }

func (t *tx) Candidates() database.CandidateRepository { return &candidateRepo{store: t.store, tx: t} }

func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, base := range t.slotBase {
		current, ok := s.slots[id]
		if !ok || current.Version != base {
			return &entity.StaleWriteError{Entity: "slot", ID: id}
		}
	}
	for id, base := range t.bookingBase {
		current, ok := s.bookings[id]
		if !ok || current.Version != base {
			return &entity.StaleWriteError{Entity: "booking", ID: id}
		}
	}
	for id, base := range t.candidateBase {
		current, ok := s.candidates[id]
		if !ok || current.Version != base {
			return &entity.StaleWriteError{Entity: "candidate", ID: id}
		}
	}
	for id, c := range t.candidates {
		if _, claimed := t.candidateBase[id]; claimed {
			continue
		}
		for otherID, other := range s.candidates {
			if otherID != id && other.Email == c.Email {
				return entity.ErrCandidateExists
			}
		}
	}

	for id, slot := range t.slots {
		s.slots[id] = slot
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	for id, c := range t.candidates {
		// A claimed candidate only carries a new version. Contact fields
		// may have changed since the tx read them.
		if stored, ok := s.candidates[id]; ok {
			if _, claimed := t.candidateBase[id]; claimed {
				stored.Version = c.Version
				s.candidates[id] = stored
				continue
			}
		}
		s.candidates[id] = c
	}
	return nil
}

func (t *tx) slot(id int64) (entity.TimeSlot, bool) {
	if slot, ok := t.slots[id]; ok {
		return slot, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	slot, ok := t.store.slots[id]
	return slot, ok
}

func (t *tx) candidate(id int64) (entity.Candidate, bool) {
	if c, ok := t.candidates[id]; ok {
		return c, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	c, ok := t.store.candidates[id]
	return c, ok
}

func (t *tx) booking(id int64) (entity.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	b, ok := t.store.bookings[id]
	return b, ok
}

// visibleBookings merges committed bookings with the ones staged in this tx.
func (t *tx) visibleBookings() []entity.Booking {
	t.store.mu.RLock()
	out := make([]entity.Booking, 0, len(t.store.bookings)+len(t.bookings))
	for id, b := range t.store.bookings {
		if _, staged := t.bookings[id]; staged {
			continue
		}
		out = append(out, b)
	}
	t.store.mu.RUnlock()

	for _, b := range t.bookings {
		out = append(out, b)
	}
	return out
}

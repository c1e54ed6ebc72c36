package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

// slotRepo reads through tx when one is set. Range queries always read
// committed state.
type slotRepo struct {
	store *Store
	tx    *tx
}

func (r *slotRepo) GetWithVersion(ctx context.Context, id int64) (*entity.TimeSlot, error) {
	var (
		slot entity.TimeSlot
		ok   bool
	)
	if r.tx != nil {
		slot, ok = r.tx.slot(id)
	} else {
		r.store.mu.RLock()
		slot, ok = r.store.slots[id]
		r.store.mu.RUnlock()
	}
	if !ok {
		return nil, entity.NewNotFound("slot")
	}
	return &slot, nil
}

func (r *slotRepo) ConditionalUpdate(ctx context.Context, id, expectedVersion int64, upd entity.SlotUpdate) (*entity.TimeSlot, error) {
	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()

		slot, ok := r.store.slots[id]
		if !ok {
			return nil, entity.NewNotFound("slot")
		}
		if slot.Version != expectedVersion {
			return nil, entity.ErrVersionMismatch
		}
		slot.Status = upd.Status
		slot.Version++
		r.store.slots[id] = slot
		return &slot, nil
	}

	slot, ok := r.tx.slot(id)
	if !ok {
		return nil, entity.NewNotFound("slot")
	}
	if slot.Version != expectedVersion {
		return nil, entity.ErrVersionMismatch
	}
	if _, staged := r.tx.slotBase[id]; !staged {
		r.tx.slotBase[id] = slot.Version
	}
	slot.Status = upd.Status
	slot.Version++
	r.tx.slots[id] = slot
	return &slot, nil
}

func (r *slotRepo) CreateBatch(ctx context.Context, slots []*entity.TimeSlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	for _, slot := range slots {
		r.store.slotSeq++
		slot.ID = r.store.slotSeq
		slot.Version = 0
		if slot.Status == "" {
			slot.Status = entity.SlotStatusAvailable
		}
		slot.CreatedAt = now
		r.store.slots[slot.ID] = *slot
	}
	return nil
}

func (r *slotRepo) ListAvailable(ctx context.Context, after time.Time) ([]*entity.TimeSlot, error) {
	return r.filter(func(s entity.TimeSlot) bool {
		return s.Status == entity.SlotStatusAvailable && s.StartAt.After(after)
	}, 0), nil
}

func (r *slotRepo) ListByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]*entity.TimeSlot, error) {
	return r.filter(func(s entity.TimeSlot) bool {
		return s.InterviewerID == interviewerID && !s.StartAt.Before(from) && !s.StartAt.After(to)
	}, 0), nil
}

func (r *slotRepo) ListPastAvailable(ctx context.Context, before time.Time, limit int) ([]*entity.TimeSlot, error) {
	return r.filter(func(s entity.TimeSlot) bool {
		return s.Status == entity.SlotStatusAvailable && !s.StartAt.After(before)
	}, limit), nil
}

func (r *slotRepo) filter(keep func(entity.TimeSlot) bool, limit int) []*entity.TimeSlot {
	r.store.mu.RLock()
	var out []*entity.TimeSlot
	for _, s := range r.store.slots {
		if keep(s) {
			slot := s
			out = append(out, &slot)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartAt.Before(out[j].StartAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

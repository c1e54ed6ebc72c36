package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type notificationRepo struct {
	store *Store
}

func (r *notificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.notificationSeq++
	n.ID = r.store.notificationSeq
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.store.now()
	}
	r.store.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n, ok := r.store.notifications[id]
	if !ok {
		return nil, entity.NewNotFound("notification")
	}
	return &n, nil
}

func (r *notificationRepo) ListByInterviewer(ctx context.Context, interviewerID int64, read bool, page, size int) ([]*entity.Notification, int64, error) {
	r.store.mu.RLock()
	var matched []*entity.Notification
	for _, n := range r.store.notifications {
		if n.InterviewerID == interviewerID && n.Read == read {
			item := n
			matched = append(matched, &item)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start, end := len(matched), len(matched)
	if size > 0 && page >= 0 && page <= len(matched)/size {
		start = min(page*size, len(matched))
		end = min(start+size, len(matched))
	}
	return matched[start:end], total, nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, interviewerID int64) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, n := range r.store.notifications {
		if n.InterviewerID == interviewerID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id int64, at time.Time) (*entity.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n, ok := r.store.notifications[id]
	if !ok {
		return nil, entity.NewNotFound("notification")
	}
	if !n.Read {
		n.Read = true
		readAt := at
		n.ReadAt = &readAt
		r.store.notifications[id] = n
	}
	return &n, nil
}

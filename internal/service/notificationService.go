package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/database"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

const (
	defaultNotificationPageSize = 10
	deliveryMaxRetries          = 3
)

type notificationService struct {
	repo     database.NotificationRepository
	pageSize int
	now      func() time.Time
}

func NewNotificationService(repo database.NotificationRepository, pageSize int) NotificationService {
	if pageSize <= 0 {
		pageSize = defaultNotificationPageSize
	}
	return &notificationService{
		repo:     repo,
		pageSize: pageSize,
		now:      time.Now,
	}
}

func (s *notificationService) ListUnread(ctx context.Context, interviewerID int64, page int) (*entity.NotificationPage, error) {
	return s.list(ctx, interviewerID, false, page)
}

func (s *notificationService) ListRead(ctx context.Context, interviewerID int64, page int) (*entity.NotificationPage, error) {
	return s.list(ctx, interviewerID, true, page)
}

func (s *notificationService) list(ctx context.Context, interviewerID int64, read bool, page int) (*entity.NotificationPage, error) {
	if page < 0 {
		return nil, entity.NewValidation("page must not be negative")
	}
	if page >= math.MaxInt/s.pageSize {
		return nil, entity.NewValidation("page is out of range")
	}

	items, total, err := s.repo.ListByInterviewer(ctx, interviewerID, read, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return entity.NewNotificationPage(items, page, s.pageSize, total), nil
}

func (s *notificationService) CountUnread(ctx context.Context, interviewerID int64) (int64, error) {
	return s.repo.CountUnread(ctx, interviewerID)
}

// MarkRead is idempotent. A second call keeps the first read timestamp.
func (s *notificationService) MarkRead(ctx context.Context, notificationID int64) (*entity.Notification, error) {
	return s.repo.MarkRead(ctx, notificationID, s.now())
}

// notificationSink persists a notification and hands a delivery task to the
// configured broker. Broker failures never fail the enqueue.
type notificationSink struct {
	repo      database.NotificationRepository
	publisher TaskPublisher
}

func NewNotificationSink(repo database.NotificationRepository, publisher TaskPublisher) NotificationSink {
	return &notificationSink{repo: repo, publisher: publisher}
}

func (s *notificationSink) Enqueue(ctx context.Context, n *entity.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	if s.publisher == nil {
		return nil
	}

	task := &Task{
		ID:   uuid.NewString(),
		Type: TaskTypeDeliverNotification,
		Data: map[string]interface{}{
			"notification_id": n.ID,
			"interviewer_id":  n.InterviewerID,
			"type":            string(n.Type),
			"title":           n.Title,
			"message":         n.Message,
		},
		ExecuteAt:  n.CreatedAt,
		MaxRetries: deliveryMaxRetries,
	}
	if err := s.publisher.Publish(ctx, task); err != nil {
		logrus.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"task_id":         task.ID,
		}).WithError(err).Warn("Failed to publish delivery task")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/WB_L3/interview/internal/database/memory"
	"github.com/ds124wfegd/WB_L3/interview/internal/entity"
)

type recordingPublisher struct {
	tasks []*Task
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, task *Task) error {
	p.tasks = append(p.tasks, task)
	return p.err
}

func TestNotificationService_Pages(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sink := NewNotificationSink(store.Notifications(), nil)
	svc := NewNotificationService(store.Notifications(), 0)

	base := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, sink.Enqueue(ctx, &entity.Notification{
			InterviewerID: 1,
			Type:          entity.NotificationNewBooking,
			Title:         "New interview booked",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, sink.Enqueue(ctx, &entity.Notification{InterviewerID: 2, Title: "other"}))

	first, err := svc.ListUnread(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, first.Content, defaultNotificationPageSize)
	assert.EqualValues(t, 12, first.TotalElements)
	assert.Equal(t, 2, first.TotalPages)
	assert.True(t, first.First())
	assert.True(t, first.Content[0].CreatedAt.After(first.Content[1].CreatedAt))

	second, err := svc.ListUnread(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, second.Content, 2)
	assert.True(t, second.Last())

	count, err := svc.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 12, count)

	_, err = svc.ListRead(ctx, 1, -1)
	assert.True(t, entity.IsValidation(err))

	_, err = svc.ListUnread(ctx, 1, 922337203685477581)
	assert.True(t, entity.IsValidation(err))

	beyond, err := svc.ListUnread(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.EqualValues(t, 12, beyond.TotalElements)
}

func TestNotificationService_MarkReadTwice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	n := &entity.Notification{InterviewerID: 1, Title: "t"}
	require.NoError(t, store.Notifications().Create(ctx, n))

	svc := NewNotificationService(store.Notifications(), 10).(*notificationService)
	clock := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	first, err := svc.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, first.Read)
	require.NotNil(t, first.ReadAt)
	assert.Equal(t, clock, *first.ReadAt)

	clock = clock.Add(time.Hour)
	second, err := svc.MarkRead(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, second.Read)
	assert.Equal(t, *first.ReadAt, *second.ReadAt)

	read, err := svc.ListRead(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, read.Content, 1)
	unread, err := svc.ListUnread(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, unread.Content)

	_, err = svc.MarkRead(ctx, 404)
	assert.True(t, entity.IsNotFound(err))
}

func TestNotificationSink_PublishesDeliveryTask(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &recordingPublisher{}
	sink := NewNotificationSink(store.Notifications(), pub)

	n := &entity.Notification{InterviewerID: 3, Type: entity.NotificationNewBooking, Title: "New interview booked", Message: "Alice booked"}
	require.NoError(t, sink.Enqueue(ctx, n))
	assert.NotZero(t, n.ID)

	require.Len(t, pub.tasks, 1)
	task := pub.tasks[0]
	assert.Equal(t, TaskTypeDeliverNotification, task.Type)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, n.ID, task.Data["notification_id"])
	assert.Equal(t, int64(3), task.Data["interviewer_id"])
	assert.Equal(t, "Alice booked", task.Data["message"])
}

func TestNotificationSink_BrokerFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sink := NewNotificationSink(store.Notifications(), &recordingPublisher{err: errors.New("connection refused")})

	n := &entity.Notification{InterviewerID: 3, Title: "t"}
	require.NoError(t, sink.Enqueue(ctx, n))

	stored, err := store.Notifications().GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Title)
}

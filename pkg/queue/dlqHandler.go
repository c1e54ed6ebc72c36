package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrTaskNotFound is returned when a requeued task is not in the DLQ.
var ErrTaskNotFound = errors.New("task not found in DLQ")

// DLQHandler keeps tasks that ran out of attempts.
type DLQHandler interface {
	HandleFailedTask(task *Task, err error)
	GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error)
	RequeueFailedTask(ctx context.Context, taskID string) error
}

type FailedTask struct {
	Task     *Task     `json:"task"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
	Attempts int       `json:"attempts"`
}

// RedisDLQHandler stores failed tasks in a sorted set scored by failure time.
type RedisDLQHandler struct {
	client    *redis.Client
	dlq       string
	mainQueue string
}

func NewRedisDLQHandler(client *redis.Client, dlq, mainQueue string) *RedisDLQHandler {
	return &RedisDLQHandler{client: client, dlq: dlq, mainQueue: mainQueue}
}

func (d *RedisDLQHandler) HandleFailedTask(task *Task, err error) {
	failed := &FailedTask{
		Task:     task,
		Error:    err.Error(),
		FailedAt: time.Now(),
		Attempts: task.Attempts,
	}

	data, marshalErr := json.Marshal(failed)
	if marshalErr != nil {
		logrus.WithError(marshalErr).Error("Failed to marshal failed task")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	score := float64(failed.FailedAt.UnixNano()) / 1e9
	if redisErr := d.client.ZAdd(ctx, d.dlq, &redis.Z{Score: score, Member: data}).Err(); redisErr != nil {
		logrus.WithError(redisErr).WithField("task_id", task.ID).Error("Failed to move task to DLQ")
		return
	}

	logrus.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"type":     task.Type,
		"attempts": task.Attempts,
	}).WithError(err).Warn("Task moved to DLQ")
}

// GetFailedTasks returns the newest failures first.
func (d *RedisDLQHandler) GetFailedTasks(ctx context.Context, limit int) ([]*FailedTask, error) {
	if limit <= 0 {
		limit = 50
	}

	items, err := d.client.ZRevRange(ctx, d.dlq, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read DLQ: %w", err)
	}

	tasks := make([]*FailedTask, 0, len(items))
	for _, item := range items {
		var ft FailedTask
		if err := json.Unmarshal([]byte(item), &ft); err != nil {
			logrus.WithError(err).Warn("Skipping corrupted DLQ entry")
			continue
		}
		tasks = append(tasks, &ft)
	}
	return tasks, nil
}

// RequeueFailedTask moves a task back to the main queue with its attempts
// reset.
func (d *RedisDLQHandler) RequeueFailedTask(ctx context.Context, taskID string) error {
	items, err := d.client.ZRange(ctx, d.dlq, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read DLQ: %w", err)
	}

	for _, item := range items {
		var ft FailedTask
		if err := json.Unmarshal([]byte(item), &ft); err != nil || ft.Task == nil {
			continue
		}
		if ft.Task.ID != taskID {
			continue
		}

		ft.Task.Attempts = 0
		ft.Task.ExecuteAt = time.Now()
		data, err := json.Marshal(ft.Task)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}

		pipe := d.client.TxPipeline()
		pipe.LPush(ctx, d.mainQueue, data)
		pipe.ZRem(ctx, d.dlq, item)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to requeue task: %w", err)
		}

		logrus.WithField("task_id", taskID).Info("Task requeued from DLQ")
		return nil
	}

	return fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
}

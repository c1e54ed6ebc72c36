package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxRetries   = 3
	defaultBaseDelay    = 5 * time.Second
	defaultQueueTimeout = 5 * time.Second
	defaultPollInterval = time.Second
)

// RedisQueue keeps ready tasks in a list and delayed ones in a sorted set
// scored by their due time. A task being handled sits in the processing list
// until it is done.
type RedisQueue struct {
	client       *redis.Client
	config       *RedisQueueConfig
	retryManager *RetryManager
	dlqHandler   DLQHandler

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

type RedisQueueConfig struct {
	MainQueue       string
	DelayedQueue    string
	ProcessingQueue string
	DLQ             string

	MaxRetries   int
	BaseDelay    time.Duration
	QueueTimeout time.Duration
	PollInterval time.Duration
	EnableDLQ    bool
}

func DefaultRedisQueueConfig() *RedisQueueConfig {
	return &RedisQueueConfig{
		MainQueue:       "interview:tasks",
		DelayedQueue:    "interview:tasks:delayed",
		ProcessingQueue: "interview:tasks:processing",
		DLQ:             "interview:dlq",
		MaxRetries:      defaultMaxRetries,
		BaseDelay:       defaultBaseDelay,
		QueueTimeout:    defaultQueueTimeout,
		PollInterval:    defaultPollInterval,
		EnableDLQ:       true,
	}
}

// NewRedisQueue builds a queue on an already connected client. The client
// stays owned by the caller.
func NewRedisQueue(client *redis.Client, cfg *RedisQueueConfig) *RedisQueue {
	if cfg == nil {
		cfg = DefaultRedisQueueConfig()
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = defaultQueueTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	q := &RedisQueue{
		client:       client,
		config:       cfg,
		retryManager: NewRetryManager(cfg.MaxRetries, cfg.BaseDelay),
		stopChan:     make(chan struct{}),
	}
	if cfg.EnableDLQ {
		q.dlqHandler = NewRedisDLQHandler(client, cfg.DLQ, cfg.MainQueue)
	}

	logrus.WithFields(logrus.Fields{
		"main":    cfg.MainQueue,
		"delayed": cfg.DelayedQueue,
		"dlq":     cfg.DLQ,
	}).Info("Redis queue initialized")
	return q
}

func (r *RedisQueue) DLQ() DLQHandler {
	return r.dlqHandler
}

func (r *RedisQueue) Publish(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	r.applyDefaults(task)
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return r.push(ctx, task)
}

func (r *RedisQueue) push(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if task.ExecuteAt.After(time.Now()) {
		score := float64(task.ExecuteAt.UnixNano()) / 1e9
		if err := r.client.ZAdd(ctx, r.config.DelayedQueue, &redis.Z{Score: score, Member: data}).Err(); err != nil {
			return fmt.Errorf("failed to publish delayed task: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"task_id":    task.ID,
			"execute_at": task.ExecuteAt.Format(time.RFC3339),
		}).Debug("Task scheduled")
		return nil
	}

	if err := r.client.LPush(ctx, r.config.MainQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to publish task: %w", err)
	}
	logrus.WithField("task_id", task.ID).Debug("Task published")
	return nil
}

// Subscribe starts the consumer loops. They run until ctx is done or the
// queue is closed.
func (r *RedisQueue) Subscribe(ctx context.Context, handler func(*Task) error) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.wg.Add(2)
	go r.processDelayedTasks(ctx)
	go r.processMainQueue(ctx, handler)

	logrus.Info("Redis queue subscriber started")
	return nil
}

func (r *RedisQueue) processMainQueue(ctx context.Context, handler func(*Task) error) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		default:
		}

		if err := r.processNext(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Error("Error processing queue")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			}
		}
	}
}

func (r *RedisQueue) processNext(ctx context.Context, handler func(*Task) error) error {
	data, err := r.client.BRPopLPush(ctx, r.config.MainQueue, r.config.ProcessingQueue, r.config.QueueTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to move task to processing queue: %w", err)
	}
	defer func() {
		if err := r.client.LRem(context.WithoutCancel(ctx), r.config.ProcessingQueue, 1, data).Err(); err != nil {
			logrus.WithError(err).Error("Failed to remove task from processing queue")
		}
	}()

	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		r.deadLetter(&Task{
			ID:   "corrupted_" + uuid.NewString(),
			Type: "corrupted",
			Data: map[string]interface{}{"raw_data": data},
		}, fmt.Errorf("invalid task format: %w", err))
		return nil
	}

	task.Attempts++
	handlerErr := handler(&task)
	if handlerErr == nil {
		logrus.WithFields(logrus.Fields{"task_id": task.ID, "type": task.Type}).Debug("Task completed")
		return nil
	}

	retry, delay := r.retryManager.ShouldRetry(&task, handlerErr)
	if !retry {
		r.deadLetter(&task, handlerErr)
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"attempt":  task.Attempts,
		"max":      task.MaxRetries,
		"retry_in": delay,
	}).WithError(handlerErr).Warn("Task failed, scheduling retry")

	task.ExecuteAt = time.Now().Add(delay)
	return r.push(context.WithoutCancel(ctx), &task)
}

func (r *RedisQueue) processDelayedTasks(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.moveReadyDelayedTasks(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("Failed to move delayed tasks")
			}
		}
	}
}

func (r *RedisQueue) moveReadyDelayedTasks(ctx context.Context) error {
	due := strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', -1, 64)

	ready, err := r.client.ZRangeByScore(ctx, r.config.DelayedQueue, &redis.ZRangeBy{Min: "-inf", Max: due}).Result()
	if err != nil {
		return fmt.Errorf("failed to read delayed tasks: %w", err)
	}
	if len(ready) == 0 {
		return nil
	}

	pipe := r.client.TxPipeline()
	for _, data := range ready {
		pipe.LPush(ctx, r.config.MainQueue, data)
		pipe.ZRem(ctx, r.config.DelayedQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move delayed tasks: %w", err)
	}

	logrus.WithField("count", len(ready)).Debug("Moved delayed tasks to main queue")
	return nil
}

func (r *RedisQueue) deadLetter(task *Task, err error) {
	if r.dlqHandler == nil {
		logrus.WithField("task_id", task.ID).WithError(err).Error("Task dropped")
		return
	}
	r.dlqHandler.HandleFailedTask(task, err)
}

func (r *RedisQueue) applyDefaults(task *Task) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = r.config.MaxRetries
	}
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.ExecuteAt.IsZero() {
		task.ExecuteAt = now
	}
}

type QueueStats struct {
	MainQueue       int64     `json:"main_queue"`
	DelayedQueue    int64     `json:"delayed_queue"`
	ProcessingQueue int64     `json:"processing_queue"`
	DLQ             int64     `json:"dlq"`
	Timestamp       time.Time `json:"timestamp"`
}

func (r *RedisQueue) GetQueueStats(ctx context.Context) (*QueueStats, error) {
	pipe := r.client.Pipeline()
	mainLen := pipe.LLen(ctx, r.config.MainQueue)
	delayedLen := pipe.ZCard(ctx, r.config.DelayedQueue)
	processingLen := pipe.LLen(ctx, r.config.ProcessingQueue)
	dlqLen := pipe.ZCard(ctx, r.config.DLQ)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get queue stats: %w", err)
	}

	return &QueueStats{
		MainQueue:       mainLen.Val(),
		DelayedQueue:    delayedLen.Val(),
		ProcessingQueue: processingLen.Val(),
		DLQ:             dlqLen.Val(),
		Timestamp:       time.Now(),
	}, nil
}

func (r *RedisQueue) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close stops the consumer loops and waits for the task in hand to finish.
func (r *RedisQueue) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
	logrus.Info("Redis queue closed")
	return nil
}

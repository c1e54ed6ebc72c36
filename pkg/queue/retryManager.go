package queue

import (
	"errors"
	"math/rand"
	"time"
)

// ErrPermanent marks a handler failure that retrying cannot fix.
var ErrPermanent = errors.New("permanent task failure")

type RetryManager struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryManager(maxRetries int, baseDelay time.Duration) *RetryManager {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	return &RetryManager{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   baseDelay * 16,
	}
}

// ShouldRetry reports whether task gets another attempt and how long to wait
// before it.
func (r *RetryManager) ShouldRetry(task *Task, err error) (bool, time.Duration) {
	if err == nil || errors.Is(err, ErrPermanent) {
		return false, 0
	}

	limit := task.MaxRetries
	if limit <= 0 {
		limit = r.maxRetries
	}
	if task.Attempts >= limit {
		return false, 0
	}

	return true, r.backoff(task.Attempts)
}

// backoff is base * 2^(attempt-1) with up to 25% jitter either way, capped
// at maxDelay.
func (r *RetryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return r.baseDelay
	}
	if attempt > 16 {
		return r.maxDelay
	}

	delay := r.baseDelay * time.Duration(1<<(attempt-1))
	if quarter := int64(delay / 4); quarter > 0 {
		jitter := time.Duration(rand.Int63n(quarter))
		if rand.Intn(2) == 0 {
			delay += jitter
		} else {
			delay -= jitter
		}
	}

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

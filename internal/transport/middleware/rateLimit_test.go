package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterStorePerKey(t *testing.T) {
	s := NewLimiterStore(0, 2)

	a := s.Get("10.0.0.1")
	assert.Same(t, a, s.Get("10.0.0.1"))
	assert.True(t, a.Allow())
	assert.True(t, a.Allow())
	assert.False(t, a.Allow())

	assert.True(t, s.Get("10.0.0.2").Allow())
}

func TestLimiterStoreCleanup(t *testing.T) {
	s := NewLimiterStore(1, 1)
	s.Get("idle")
	s.Get("busy")

	s.mu.Lock()
	s.entries["idle"].lastSeen = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	s.Cleanup()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotContains(t, s.entries, "idle")
	assert.Contains(t, s.entries, "busy")
}

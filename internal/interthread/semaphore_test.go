package interthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaphoreTryGet(t *testing.T) {
	s := NewSemaphore()
	assert.False(t, s.TryGet())

	s.Post()
	s.Post()
	assert.True(t, s.TryGet())
	assert.False(t, s.TryGet())
}

func TestSemaphoreGetBlocksUntilPost(t *testing.T) {
	s := NewSemaphore()
	got := make(chan struct{})
	go func() {
		s.Get()
		close(got)
	}()
	waitForWaiters(t, &s.mu, &s.posted, 1)

	s.Post()
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("get was not woken by post")
	}
	assert.False(t, s.TryGet())
}

func TestSemaphoreGetTimeout(t *testing.T) {
	s := NewSemaphore()
	start := time.Now()
	assert.False(t, s.GetTimeout(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.False(t, s.GetTimeout(0))
	s.Post()
	assert.True(t, s.GetTimeout(0))
}

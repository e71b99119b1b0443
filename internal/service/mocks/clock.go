package mocks

import (
	"sync"
	"time"
)

// Clock implements service.Clock with controllable time
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{current: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Package coordinator gates every upstream API call behind a process-wide
// minimum interval and an exclusive lock for long analysis cycles, so
// independent consumers can share one rate-limited data source.
package coordinator

import (
	"log"
	"sync"
	"time"
)

// Coordinator is the single shared gatekeeper. One instance is constructed
// at the composition root and handed to every consumer.
type Coordinator struct {
	mu             sync.Mutex
	minInterval    time.Duration
	lastCall       time.Time
	intensiveOwner string

	now func() time.Time
}

// New creates a coordinator enforcing minInterval between any two granted
// API calls across all consumers.
func New(minInterval time.Duration) *Coordinator {
	return &Coordinator{
		minInterval: minInterval,
		now:         time.Now,
	}
}

// RequestAPICall grants permission for one upstream call and advances the
// shared last-call clock. Non-blocking: a denial means the caller skips
// this cycle rather than retrying in a loop.
func (c *Coordinator) RequestAPICall(consumerID, purpose string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.allowedLocked(consumerID) {
		return false
	}
	c.lastCall = c.now()
	return true
}

// CanMakeAPICall is the side-effect-free version of RequestAPICall, used
// by periodic refreshers to decide whether to attempt a call at all.
func (c *Coordinator) CanMakeAPICall(consumerID, purpose string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowedLocked(consumerID)
}

func (c *Coordinator) allowedLocked(consumerID string) bool {
	if c.intensiveOwner != "" && c.intensiveOwner != consumerID {
		return false
	}
	return c.now().Sub(c.lastCall) >= c.minInterval
}

// NotifyIntensiveOperationStart acquires the exclusive long-cycle lock.
// Starting while another consumer holds it is a logged no-op denial.
func (c *Coordinator) NotifyIntensiveOperationStart(consumerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.intensiveOwner != "" && c.intensiveOwner != consumerID {
		log.Printf("intensive operation denied for %s: held by %s", consumerID, c.intensiveOwner)
		return false
	}
	c.intensiveOwner = consumerID
	return true
}

// NotifyIntensiveOperationComplete releases the lock. Releasing when not
// held by the caller is a no-op.
func (c *Coordinator) NotifyIntensiveOperationComplete(consumerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.intensiveOwner != consumerID {
		return
	}
	c.intensiveOwner = ""
}

// IntensiveOwner returns the current lock holder, or "" when free.
func (c *Coordinator) IntensiveOwner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intensiveOwner
}

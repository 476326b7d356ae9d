package planner

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/posched/core/logger"
)

// InactivityMonitor cancels a solve that found at least one solution but
// has not improved on it for a while. Cancellation is cooperative: the engine
// stops at its next safe point and keeps its incumbent.
type InactivityMonitor struct {
	timeout time.Duration
	poll    time.Duration
	cancel  context.CancelFunc
	log     logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	last      time.Time
	solutions int
	fired     bool
}

// NewInactivityMonitor returns a monitor calling cancel after timeout
// without improvement. poll defaults to timeout/10.
func NewInactivityMonitor(timeout, poll time.Duration, cancel context.CancelFunc, log logger.Logger) *InactivityMonitor {
	if poll <= 0 {
		poll = timeout / 10
	}
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &InactivityMonitor{timeout: timeout, poll: poll, cancel: cancel, log: logger.OrNop(log), now: time.Now}
}

// Observe records an improving solution.
func (m *InactivityMonitor) Observe(p Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solutions++
	m.last = m.now()
	m.log.Debugf("solution #%d objective=%d bound=%d after %s", p.Iteration, p.Objective, p.Bound, p.Elapsed.Round(time.Millisecond))
}

// Fired reports whether the monitor requested cancellation.
func (m *InactivityMonitor) Fired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}

// check cancels when the threshold has passed since the last solution.
func (m *InactivityMonitor) check() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fired || m.solutions == 0 {
		return m.fired
	}
	if idle := m.now().Sub(m.last); idle > m.timeout {
		m.fired = true
		m.log.Infof("no improvement for %s after %d solutions, stopping search", idle.Round(time.Millisecond), m.solutions)
		m.cancel()
	}
	return m.fired
}

// Run polls until ctx is done or the monitor fires.
func (m *InactivityMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.check() {
				return
			}
		}
	}
}

package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInactivityMonitorNeedsASolution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := time.Unix(0, 0)
	m := NewInactivityMonitor(time.Second, 0, cancel, nil)
	m.now = func() time.Time { return clock }

	clock = clock.Add(time.Hour)
	assert.False(t, m.check(), "no solution yet")

	m.Observe(Progress{Iteration: 1, Objective: 4})
	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, m.check())
	assert.NoError(t, ctx.Err())

	clock = clock.Add(time.Second)
	assert.True(t, m.check())
	assert.True(t, m.Fired())
	assert.Error(t, ctx.Err())
}

func TestInactivityMonitorRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewInactivityMonitor(time.Hour, time.Millisecond, cancel, nil)
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("monitor did not stop")
	}
	assert.False(t, m.Fired())
}

package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdeck/crm-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func TestRunNowExecutesJob(t *testing.T) {
	s := NewScheduler(testLogger(), nil)

	var runs atomic.Int32
	job := s.Register("sweep", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	assert.True(t, s.RunNow(context.Background(), job))
	assert.True(t, s.RunNow(context.Background(), job))
	assert.Equal(t, int32(2), runs.Load())
}

func TestRunNowSkipsWhileInFlight(t *testing.T) {
	s := NewScheduler(testLogger(), nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var startedOnce sync.Once
	job := s.Register("slow_sweep", time.Hour, func(ctx context.Context) error {
		startedOnce.Do(func() { close(started) })
		<-release
		return nil
	})

	done := make(chan bool)
	go func() {
		done <- s.RunNow(context.Background(), job)
	}()
	<-started

	// A tick landing mid-run is dropped, not queued.
	assert.False(t, s.RunNow(context.Background(), job))

	close(release)
	assert.True(t, <-done)

	// Once the run finishes the guard reopens.
	assert.True(t, s.RunNow(context.Background(), job))
}

func TestRunNowSurvivesJobError(t *testing.T) {
	s := NewScheduler(testLogger(), nil)

	job := s.Register("failing_sweep", time.Hour, func(ctx context.Context) error {
		return errors.New("db down")
	})

	// Errors are logged and absorbed; the run still counts as done.
	assert.True(t, s.RunNow(context.Background(), job))
	assert.True(t, s.RunNow(context.Background(), job))
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(testLogger(), nil)

	job := s.Register("sweep", time.Hour, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), deadline, time.Minute)
		return nil
	})

	// Long cadences get the 5 minute cap, not their own interval.
	assert.Equal(t, 5*time.Minute, job.Timeout)
	assert.True(t, s.RunNow(context.Background(), job))
}

func TestRegisterShortIntervalKeepsIntervalAsTimeout(t *testing.T) {
	s := NewScheduler(testLogger(), nil)
	job := s.Register("fast_sweep", 30*time.Second, func(ctx context.Context) error { return nil })
	assert.Equal(t, 30*time.Second, job.Timeout)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := NewScheduler(testLogger(), nil)

	var runs atomic.Int32
	s.Register("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}

package cron

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSchedulerLifecycle(t *testing.T) {
	job := JobFunc(func(ctx context.Context) error { return nil })
	s := NewScheduler("* * * * *", job, time.Minute, testLogger())

	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Idempotent start must not register the job twice.
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	done := s.Stop()
	assert.False(t, s.IsRunning())

	select {
	case <-done.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", JobFunc(func(ctx context.Context) error { return nil }), time.Minute, testLogger())
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestSchedulerRunNow(t *testing.T) {
	ran := make(chan struct{})
	job := JobFunc(func(ctx context.Context) error {
		close(ran)
		return nil
	})
	s := NewScheduler("* * * * *", job, time.Minute, testLogger())

	s.RunNow()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

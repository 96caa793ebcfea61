package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func runToCompletion(t *testing.T, s *Scheduler) {
	t.Helper()
	s.RunOnce()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New("sweep", "every morning", time.Minute, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunOnceSkipsWhileRunning(t *testing.T) {
	var runs int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	s, err := New("sweep", "@every 1h", time.Minute, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
		return nil
	})
	require.NoError(t, err)

	s.RunOnce()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start")
	}

	s.RunOnce()
	time.Sleep(50 * time.Millisecond)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestStopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var sawCancel int32

	s, err := New("sweep", "@every 1h", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&sawCancel, 1)
		return ctx.Err()
	})
	require.NoError(t, err)
	s.Start()
	s.RunOnce()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&sawCancel))
}

func TestRunTimesOutLongJobs(t *testing.T) {
	errs := make(chan error, 1)
	s, err := New("sweep", "@every 1h", 20*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	})
	require.NoError(t, err)

	s.RunOnce()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not timed out")
	}
	require.NoError(t, s.Stop(context.Background()))
}

func TestSkipOnErrorIsNotReportedAsFailure(t *testing.T) {
	errBusy := errors.New("already running")
	logs := captureLogs(t)

	s, err := New("sweep", "@every 1h", time.Minute, func(ctx context.Context) error {
		return fmt.Errorf("sweep: %w", errBusy)
	})
	require.NoError(t, err)
	s.SkipOn(errBusy)
	runToCompletion(t, s)

	assert.Contains(t, logs.String(), "Scheduled job skipped")
	assert.NotContains(t, logs.String(), `"level":"error"`)
}

func TestUnlistedErrorIsReportedAsFailure(t *testing.T) {
	errBusy := errors.New("already running")
	logs := captureLogs(t)

	s, err := New("sweep", "@every 1h", time.Minute, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	require.NoError(t, err)
	s.SkipOn(errBusy)
	runToCompletion(t, s)

	assert.Contains(t, logs.String(), "Scheduled job failed")
	assert.Contains(t, logs.String(), `"level":"error"`)
}

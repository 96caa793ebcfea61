// Package scheduler runs background jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gym_crm_backend/pkg/utils"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task is one unit of scheduled work. ctx is cancelled on Stop or when the
// per-run timeout elapses.
type Task func(ctx context.Context) error

// Scheduler runs a single named task on a cron schedule and never overlaps
// two runs of it.
type Scheduler struct {
	name    string
	cron    *cron.Cron
	entryID cron.EntryID
	timeout time.Duration
	skipOn  []error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// zerologAdapter satisfies cron.Logger.
type zerologAdapter struct{}

func (zerologAdapter) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (zerologAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// New registers task under a standard 5-field cron spec (or a descriptor
// such as "@daily").
func New(name, schedule string, timeout time.Duration, task Task) (*Scheduler, error) {
	logger := zerologAdapter{}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		name:    name,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(task) })
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) run(task Task) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	if err := task(ctx); err != nil {
		if s.isSkip(err) {
			utils.LogInfo("Scheduled job skipped", map[string]interface{}{"job": s.name, "reason": err.Error()})
			return
		}
		utils.LogError(err, "Scheduled job failed", map[string]interface{}{"job": s.name})
		return
	}
	utils.LogInfo("Scheduled job finished", map[string]interface{}{
		"job": s.name, "duration": time.Since(started).String(),
	})
}

// SkipOn lists task errors that mean the run was skipped, not failed.
// Call it before Start.
func (s *Scheduler) SkipOn(errs ...error) {
	s.skipOn = append(s.skipOn, errs...)
}

func (s *Scheduler) isSkip(err error) bool {
	for _, target := range s.skipOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	utils.LogInfo("Scheduler started", map[string]interface{}{
		"job": s.name, "next_run": s.cron.Entry(s.entryID).Next,
	})
}

// RunOnce triggers the job immediately without blocking. It goes through
// the same wrapper as scheduled runs, so it is skipped while one is active.
func (s *Scheduler) RunOnce() {
	job := s.cron.Entry(s.entryID).WrappedJob
	if job == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		utils.LogInfo("Scheduler stopped", map[string]interface{}{"job": s.name})
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s to stop: %w", s.name, ctx.Err())
	}
}

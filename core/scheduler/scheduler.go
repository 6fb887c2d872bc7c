// Package scheduler runs fixed-interval jobs, such as the balance re-poll of
// a mounted agent page, and tears them down on request.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mudler/xlog"
)

var ErrNotStarted = errors.New("scheduler not started")

// Job is executed once immediately and then on every tick until cancelled.
type Job func(ctx context.Context)

// Scheduler manages periodic jobs keyed by id
type Scheduler struct {
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	runningTasks map[string]context.CancelFunc
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		runningTasks: make(map[string]context.CancelFunc),
	}
}

// Start enables scheduling. Jobs scheduled before Start are rejected.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		xlog.Warn("Scheduler already started")
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	xlog.Info("Scheduler started")
}

// Stop cancels every job and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.cancel = nil
	s.ctx = nil
	s.runningTasks = make(map[string]context.CancelFunc)
	s.mu.Unlock()
	xlog.Info("Scheduler stopped")
}

// Schedule runs job every interval under id. Scheduling an id that is already
// running is a no-op and returns false.
func (s *Scheduler) Schedule(id string, interval time.Duration, job Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return false, ErrNotStarted
	}
	if _, running := s.runningTasks[id]; running {
		xlog.Debug("Job already running, skipping", "job", id)
		return false, nil
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.runningTasks[id] = cancel
	s.wg.Add(1)
	go s.run(ctx, id, interval, job)

	xlog.Debug("Job scheduled", "job", id, "interval", interval)
	return true, nil
}

// Cancel stops the job running under id. It reports whether one was running.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancel, exists := s.runningTasks[id]
	if !exists {
		return false
	}
	cancel()
	delete(s.runningTasks, id)
	xlog.Debug("Job cancelled", "job", id)
	return true
}

func (s *Scheduler) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.runningTasks[id]
	return ok
}

// Jobs returns the ids of the running jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runningTasks))
	for id := range s.runningTasks {
		ids = append(ids, id)
	}
	return ids
}

func (s *Scheduler) run(ctx context.Context, id string, interval time.Duration, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ctx.Done():
			xlog.Debug("Job stopped", "job", id)
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// Package scheduler runs periodic background tasks: GitHub resync, token
// sweeps, session and cache cleanup.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var ErrUnknownTask = errors.New("unknown task")

// Task is one periodic job. A task with a non-positive Interval is only
// reachable through RunNow.
type Task struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// Scheduler runs each task on its own ticker. Runs of the same task never
// overlap; a failing or panicking run is logged and the next tick proceeds.
type Scheduler struct {
	tasks  map[string]*entry
	order  []string
	logger *slog.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

type entry struct {
	task Task
	mu   sync.Mutex
}

func New(logger *slog.Logger, tasks ...Task) *Scheduler {
	s := &Scheduler{tasks: make(map[string]*entry, len(tasks)), logger: logger}
	for _, t := range tasks {
		if _, dup := s.tasks[t.Name]; dup {
			panic(fmt.Sprintf("scheduler: duplicate task %q", t.Name))
		}
		s.tasks[t.Name] = &entry{task: t}
		s.order = append(s.order, t.Name)
	}
	return s
}

// Start launches one goroutine per task. Calling it again is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		for _, name := range s.order {
			e := s.tasks[name]
			if e.task.Interval <= 0 {
				s.logger.Info("scheduled task disabled", slog.String("task", name))
				continue
			}
			s.logger.Info("starting scheduled task",
				slog.String("task", name),
				slog.Duration("interval", e.task.Interval))
			s.wg.Add(1)
			go s.loop(ctx, e)
		}
	})
}

// Stop cancels in-flight runs and waits for every loop to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping scheduler")
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
	})
}

// RunNow runs the named task once in the caller's goroutine, waiting for a
// run already in progress to finish first.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	e, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.runOnce(ctx, e)
}

// Tasks lists task names in registration order.
func (s *Scheduler) Tasks() []string {
	return append([]string(nil), s.order...)
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	if e.task.RunOnStart {
		s.runOnce(ctx, e)
	}

	ticker := time.NewTicker(e.task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, e)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, e *entry) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: task %s panicked: %v", e.task.Name, r)
			s.logger.Error("scheduled task panicked",
				slog.String("task", e.task.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			return
		}
		if err != nil {
			s.logger.Error("scheduled task failed",
				slog.String("task", e.task.Name),
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
			return
		}
		s.logger.Debug("scheduled task finished",
			slog.String("task", e.task.Name),
			slog.Duration("duration", time.Since(start)))
	}()

	return e.task.Run(ctx)
}

// Package task implements the clock-driven scheduler: one-shot, recurring,
// and choice-awaiting work items dispatched to registered workers with
// at-least-once semantics. Choice tasks use a channel-based waiter per
// pending task id, released when an external Choose call delivers the
// selection.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/observability"
	"github.com/relaywire/agentcore/pkg/registry"
	"github.com/relaywire/agentcore/pkg/storage"
)

// WorkerFunc executes a due task. Workers must be idempotent: the
// at-least-once dispatch guarantee means a crash between dispatch and the
// UpdatedAt persist can cause a re-run.
type WorkerFunc func(ctx context.Context, rt content.Runtime, task *content.Task) error

// ValidateFunc optionally filters whether a worker should run for a given
// task; nil means always applicable.
type ValidateFunc func(ctx context.Context, rt content.Runtime, task *content.Task) (bool, error)

// Worker is what registerTaskWorker installs: a name matched against
// Task.Name, an optional validate predicate, and the execute function.
type Worker struct {
	Name     string
	Validate ValidateFunc
	Execute  WorkerFunc
}

// DefaultTickInterval is how often Scheduler scans for due recurring tasks
// when none is configured explicitly.
const DefaultTickInterval = 5 * time.Second

// Scheduler dispatches due tasks to their registered worker. One Scheduler
// serves one agent (tasks are always scoped by AgentID).
type Scheduler struct {
	agentID      string
	adapter      storage.Adapter
	workers      *registry.BaseRegistry[*Worker]
	logger       *slog.Logger
	tickInterval time.Duration

	mu       sync.Mutex
	inFlight map[string]bool // task name -> a dispatch is currently running

	choiceMu sync.Mutex
	waiters  map[string]chan string // task id -> channel receiving the chosen option name

	stop chan struct{}
	done chan struct{}

	metrics observability.Recorder
	tracer  *observability.Tracer
}

// SetObservability wires metric recording and tracing into the scheduler.
// Either argument may be nil; both are no-ops until set.
func (s *Scheduler) SetObservability(metrics observability.Recorder, tracer *observability.Tracer) {
	s.metrics = metrics
	s.tracer = tracer
}

// NewScheduler builds a Scheduler for agentID, persisting through adapter.
// A zero tickInterval uses DefaultTickInterval.
func NewScheduler(agentID string, adapter storage.Adapter, logger *slog.Logger, tickInterval time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	return &Scheduler{
		agentID:      agentID,
		adapter:      adapter,
		workers:      registry.NewBaseRegistry[*Worker](),
		logger:       logger,
		tickInterval: tickInterval,
		inFlight:     make(map[string]bool),
		waiters:      make(map[string]chan string),
	}
}

// RegisterWorker installs w, keyed by w.Name. Duplicate names reject, same
// as every other component table.
func (s *Scheduler) RegisterWorker(w *Worker) error {
	return s.workers.Register(w.Name, w)
}

// GetWorker returns the worker registered under name, if any.
func (s *Scheduler) GetWorker(name string) (*Worker, bool) {
	return s.workers.Get(name)
}

// CreateTask persists t via the adapter, assigning an id and timestamps if
// absent.
func (s *Scheduler) CreateTask(ctx context.Context, t *content.Task) (string, error) {
	if t.AgentID == "" {
		t.AgentID = s.agentID
	}
	if t.ID == "" {
		t.ID = newTaskID()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if err := s.adapter.CreateTask(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// GetTask, GetTasks, and DeleteTask delegate straight to the adapter; the
// scheduler itself holds no task state beyond the in-flight/waiter maps.
func (s *Scheduler) GetTask(ctx context.Context, id string) (*content.Task, error) {
	return s.adapter.GetTask(ctx, id)
}

func (s *Scheduler) GetTasks(ctx context.Context, filter storage.TaskFilter) ([]*content.Task, error) {
	return s.adapter.ListTasks(ctx, filter)
}

func (s *Scheduler) GetTasksByName(ctx context.Context, name string) ([]*content.Task, error) {
	return s.adapter.GetTasksByName(ctx, s.agentID, name)
}

func (s *Scheduler) DeleteTask(ctx context.Context, id string) error {
	return s.adapter.DeleteTask(ctx, id)
}

// Start runs the tick loop in the background until ctx is cancelled or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context, rt content.Runtime) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(ctx, rt)
			}
		}
	}()
}

// Stop ends the tick loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
}

// Tick scans for due recurring and one-shot tasks and dispatches them. It is
// exported so tests (and callers without a background loop) can drive the
// scheduler deterministically instead of waiting on a real ticker.
func (s *Scheduler) Tick(ctx context.Context, rt content.Runtime) {
	tasks, err := s.adapter.ListTasks(ctx, storage.TaskFilter{AgentID: s.agentID})
	if err != nil {
		s.logger.Warn("task scheduler: list failed", "error", err)
		return
	}

	now := time.Now()
	for _, t := range tasks {
		switch {
		case t.IsChoice():
			// Choice tasks only advance via Choose; nothing to dispatch here.
		case t.IsRecurring():
			s.maybeDispatchRecurring(ctx, rt, t, now)
		default:
			s.maybeDispatchOneShot(ctx, rt, t, now)
		}
	}
}

func (s *Scheduler) maybeDispatchRecurring(ctx context.Context, rt content.Runtime, t *content.Task, now time.Time) {
	interval := time.Duration(t.Metadata.UpdateIntervalMs) * time.Millisecond
	if now.Before(t.UpdatedAt.Add(interval)) {
		return
	}
	if !s.tryLock(t.Name) {
		return // a dispatch for this task name is already in flight
	}

	go func() {
		defer s.unlock(t.Name)
		if err := s.dispatch(ctx, rt, t); err != nil {
			s.logger.Warn("recurring task failed, will retry next tick", "task", t.Name, "id", t.ID, "error", err)
			return
		}
		t.UpdatedAt = time.Now()
		if err := s.adapter.UpdateTask(ctx, t); err != nil {
			s.logger.Warn("recurring task: failed to persist updatedAt", "task", t.Name, "id", t.ID, "error", err)
		}
	}()
}

func (s *Scheduler) maybeDispatchOneShot(ctx context.Context, rt content.Runtime, t *content.Task, now time.Time) {
	due, ok := t.DueAt()
	if !ok || now.Before(due) {
		return
	}
	if !s.tryLock(t.Name) {
		return
	}
	go func() {
		defer s.unlock(t.Name)
		if err := s.dispatch(ctx, rt, t); err != nil {
			s.logger.Warn("one-shot task failed, will retry next tick", "task", t.Name, "id", t.ID, "error", err)
		}
		// The worker is expected to call DeleteTask itself on completion; the
		// scheduler never deletes a task out from under a worker that might
		// still be reading it.
	}()
}

func (s *Scheduler) dispatch(ctx context.Context, rt content.Runtime, t *content.Task) error {
	w, ok := s.workers.Get(t.Name)
	if !ok {
		return &Error{TaskID: t.ID, Name: t.Name, Detail: "no worker registered"}
	}

	start := time.Now()
	ctx, span := s.tracer.StartTaskDispatch(ctx, t.Name, t.Name)
	defer span.End()

	err := s.runWorker(ctx, rt, t, w)
	s.tracer.RecordError(span, err)
	if s.metrics != nil {
		s.metrics.RecordTaskDispatch(t.Name, time.Since(start), err)
	}
	return err
}

func (s *Scheduler) runWorker(ctx context.Context, rt content.Runtime, t *content.Task, w *Worker) error {
	if w.Validate != nil {
		ok, err := w.Validate(ctx, rt, t)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return w.Execute(ctx, rt, t)
}

func (s *Scheduler) tryLock(taskName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[taskName] {
		return false
	}
	s.inFlight[taskName] = true
	return true
}

func (s *Scheduler) unlock(taskName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, taskName)
}

package plan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/observability"
)

// defaultConcurrency bounds how many steps a parallel or DAG plan dispatches
// at once. Cooperative concurrency in a single process still benefits from
// a cap: an unbounded fan-out of steps that each make a model or adapter
// call would otherwise starve the host's connection pools.
const defaultConcurrency = 8

// Executor runs a validated content.ActionPlan: sequential, parallel, or
// DAG, threading state and working memory between steps and honoring each
// step's timeout and error policy.
type Executor struct {
	actions     ActionSource
	logger      *slog.Logger
	concurrency int64
	replanner   Replanner

	metrics observability.Recorder
	tracer  *observability.Tracer
}

// SetObservability wires metric recording and tracing into the executor.
// Either argument may be nil; both are no-ops until set.
func (e *Executor) SetObservability(metrics observability.Recorder, tracer *observability.Tracer) {
	e.metrics = metrics
	e.tracer = tracer
}

// Replanner is consulted when a step calls RequestReplanning. It is
// satisfied by *Generator; defined here as an interface so Executor doesn't
// need to import the model dispatcher directly.
type Replanner interface {
	Replan(ctx context.Context, rt content.Runtime, original *content.ActionPlan, reason string, completed []content.CompletedStep, workingMemory map[string]any) (*content.ActionPlan, error)
}

// NewExecutor builds an Executor reading the registered action table from
// actions. A nil replanner disables the requestReplanning path: a step
// that calls it simply has the request recorded and ignored.
func NewExecutor(actions ActionSource, logger *slog.Logger, replanner Replanner) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{actions: actions, logger: logger, concurrency: defaultConcurrency, replanner: replanner}
}

// execContext is the PlanExecutionContext: the
// working memory arena, the completed-step tracker, and the plan's abort
// signal, shared by every step dispatched during one Execute call.
type execContext struct {
	wm      *memory
	tracker *resultTracker
	replan  chan replanRequest

	mu      sync.Mutex
	aborted bool
	errs    []content.StepError
	skipped map[string]bool
}

func newExecContext(seed map[string]any) *execContext {
	return &execContext{
		wm:      newMemory(seed),
		tracker: newResultTracker(),
		replan:  make(chan replanRequest, 1),
		skipped: make(map[string]bool),
	}
}

func (e *execContext) recordError(se content.StepError) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, se)
}

func (e *execContext) abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aborted = true
}

func (e *execContext) isAborted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aborted
}

func (e *execContext) markSkipped(stepID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skipped[stepID] = true
}

func (e *execContext) isSkipped(stepID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipped[stepID]
}

// Execute validates p, then dispatches its steps per its ExecutionModel.
// seedMemory initializes working memory (e.g. from prior conversation
// context, or — for a replanned execution — the snapshot of the plan it
// supersedes).
func (e *Executor) Execute(ctx context.Context, rt content.Runtime, p *content.ActionPlan, msg *content.Message, state *content.State, seedMemory map[string]any) (*content.PlanExecutionResult, error) {
	if err := Validate(p, e.actions); err != nil {
		return nil, err
	}

	if len(p.Steps) == 0 {
		return &content.PlanExecutionResult{Success: true, FinalValues: map[string]any{}, WorkingMemorySnapshot: copyMap(seedMemory)}, nil
	}

	start := time.Now()
	ctx, span := e.tracer.StartPlanExecution(ctx, p.ID, string(p.ExecutionModel), len(p.Steps))
	defer span.End()

	ectx := newExecContext(seedMemory)

	switch p.ExecutionModel {
	case content.ExecSequential:
		e.runSequential(ctx, rt, ectx, msg, state, p)
	case content.ExecParallel:
		e.runParallel(ctx, rt, ectx, msg, state, p)
	case content.ExecDAG:
		e.runDAG(ctx, rt, ectx, msg, state, p)
	}

	if err := e.maybeReplan(ctx, rt, ectx, p); err != nil {
		e.logger.Warn("replan failed, returning original execution result", "plan", p.ID, "error", err)
	}

	result := e.buildResult(ectx, ctx)
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	if e.metrics != nil {
		e.metrics.RecordPlanExecution(string(p.ExecutionModel), outcome, time.Since(start))
	}
	return result, nil
}

func (e *Executor) buildResult(ectx *execContext, ctx context.Context) *content.PlanExecutionResult {
	completed := ectx.tracker.completedSteps()
	finalValues := make(map[string]any)
	for _, c := range completed {
		for k, v := range c.Result.Values {
			finalValues[k] = v
		}
	}

	cancelled := ctx.Err() != nil
	success := !ectx.isAborted() && !cancelled

	return &content.PlanExecutionResult{
		Success:               success,
		CompletedSteps:        completed,
		Errors:                ectx.errs,
		FinalValues:           finalValues,
		WorkingMemorySnapshot: ectx.wm.Snapshot(),
	}
}

// runSequential executes steps in declaration order, ignoring DependsOn,
// merging each completed step's Values into state before the next step runs
// so providers and subsequent model calls see them.
func (e *Executor) runSequential(ctx context.Context, rt content.Runtime, ectx *execContext, msg *content.Message, state *content.State, p *content.ActionPlan) {
	cur := cloneState(state)
	for _, step := range p.Steps {
		if ctx.Err() != nil {
			ectx.abort()
			return
		}

		result, stepErr := e.runStep(ctx, rt, ectx, msg, cur, step)
		if stepErr != nil {
			ectx.recordError(stepError(step.ID, classify(ctx, stepErr), stepErr))
			ectx.tracker.record(step.ID, failedResult(stepErr))
			if policy(step) == content.OnErrorAbort {
				ectx.abort()
				return
			}
			continue
		}

		ectx.tracker.record(step.ID, result)
		mergeValues(cur.Values, result.Values)
	}
}

// runParallel starts every step concurrently, bounded by e.concurrency, and
// records results in declaration order once all have finished, matching
// the "combined result preserves declaration order" guarantee.
func (e *Executor) runParallel(ctx context.Context, rt content.Runtime, ectx *execContext, msg *content.Message, state *content.State, p *content.ActionPlan) {
	sem := semaphore.NewWeighted(e.concurrency)
	results := make([]content.ActionResult, len(p.Steps))
	errs := make([]error, len(p.Steps))

	var wg sync.WaitGroup
	for i, step := range p.Steps {
		i, step := i, step
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer sem.Release(1)

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			r, err := e.runStep(ctx, rt, ectx, msg, state, step)
			results[i] = r
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, step := range p.Steps {
		if errs[i] != nil {
			ectx.recordError(stepError(step.ID, classify(ctx, errs[i]), errs[i]))
			ectx.tracker.record(step.ID, failedResult(errs[i]))
			if policy(step) == content.OnErrorAbort {
				ectx.abort()
			}
			continue
		}
		ectx.tracker.record(step.ID, results[i])
	}
}

// runDAG schedules zero-in-degree steps concurrently, decrementing
// dependents' in-degree on completion and scheduling those that reach zero,
// until the frontier empties, the plan aborts, or the context cancels.
func (e *Executor) runDAG(ctx context.Context, rt content.Runtime, ectx *execContext, msg *content.Message, state *content.State, p *content.ActionPlan) {
	byID := make(map[string]content.PlanStep, len(p.Steps))
	inDegree := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string, len(p.Steps))
	for _, s := range p.Steps {
		byID[s.ID] = s
		inDegree[s.ID] = len(s.DependsOn)
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	sem := semaphore.NewWeighted(e.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	done := make(map[string]bool, len(p.Steps))

	var dispatch func(stepID string)
	dispatch = func(stepID string) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if ectx.isAborted() || ctx.Err() != nil {
				return
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			step := byID[stepID]
			depState := stateWithDependencyValues(state, ectx, step.DependsOn)
			result, stepErr := e.runStep(ctx, rt, ectx, msg, depState, step)

			var skipDependents bool
			if stepErr != nil {
				ectx.recordError(stepError(stepID, classify(ctx, stepErr), stepErr))
				ectx.tracker.record(stepID, failedResult(stepErr))
				switch policy(step) {
				case content.OnErrorAbort:
					ectx.abort()
				case content.OnErrorSkip:
					skipDependents = true
				}
			} else {
				ectx.tracker.record(stepID, result)
			}

			mu.Lock()
			done[stepID] = true
			var next []string
			if ectx.isAborted() {
				mu.Unlock()
				return
			}
			for _, dep := range dependents[stepID] {
				if skipDependents {
					markSkippedTransitively(dep, dependents, ectx)
					continue
				}
				if ectx.isSkipped(dep) {
					continue
				}
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
			mu.Unlock()

			for _, n := range next {
				dispatch(n)
			}
		}()
	}

	for _, s := range roots(p) {
		dispatch(s.ID)
	}
	wg.Wait()
}

// markSkippedTransitively marks stepID and every step reachable from it via
// dependents as skipped, without ever dispatching them, per the "skip"
// error policy.
func markSkippedTransitively(stepID string, dependents map[string][]string, ectx *execContext) {
	if ectx.isSkipped(stepID) {
		return
	}
	ectx.markSkipped(stepID)
	ectx.recordError(stepError(stepID, content.StepSkipped, errors.New("skipped: upstream step failed with onError=skip")))
	for _, dep := range dependents[stepID] {
		markSkippedTransitively(dep, dependents, ectx)
	}
}

func (e *Executor) runStep(ctx context.Context, rt content.Runtime, ectx *execContext, msg *content.Message, state *content.State, step content.PlanStep) (content.ActionResult, error) {
	action, ok := e.actions.Get(step.ActionName)
	if !ok {
		return content.ActionResult{}, errors.New("action not registered: " + step.ActionName)
	}

	stepCtx := ctx
	var cancel context.CancelFunc
	if step.TimeoutMs > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	actx := &actionContext{
		stepID:   step.ID,
		wm:       ectx.wm,
		tracker:  ectx.tracker,
		done:     stepCtx.Done(),
		replanCh: ectx.replan,
	}

	start := time.Now()
	spanCtx, span := e.tracer.StartStepExecution(stepCtx, step.ID, step.ID, step.ActionName)
	result, err := action.Handler(spanCtx, rt, msg, state, actx)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		e.tracer.RecordError(span, err)
	}
	if e.metrics != nil {
		e.metrics.RecordStep(step.ActionName, outcome, time.Since(start))
	}
	span.End()

	if err != nil {
		return content.ActionResult{}, err
	}
	if result == nil {
		return content.ActionResult{}, errors.New("action " + step.ActionName + " returned a nil result")
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "action reported failure"
		}
		return *result, errors.New(msg)
	}
	return *result, nil
}

func (e *Executor) maybeReplan(ctx context.Context, rt content.Runtime, ectx *execContext, p *content.ActionPlan) error {
	select {
	case req := <-ectx.replan:
		if e.replanner == nil {
			return nil
		}
		newPlan, err := e.replanner.Replan(ctx, rt, p, req.reason, ectx.tracker.completedSteps(), ectx.wm.Snapshot())
		if err != nil {
			return err
		}
		sub, err := e.Execute(ctx, rt, newPlan, nil, content.NewState(), ectx.wm.Snapshot())
		if err != nil {
			return err
		}
		for _, c := range sub.CompletedSteps {
			ectx.tracker.record(c.StepID, c.Result)
		}
		ectx.errs = append(ectx.errs, sub.Errors...)
		return nil
	default:
		return nil
	}
}

func policy(step content.PlanStep) content.ErrorPolicy {
	if step.OnError == "" {
		return content.OnErrorAbort
	}
	return step.OnError
}

func classify(ctx context.Context, err error) content.StepErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return content.StepTimeout
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return content.StepCancelled
	default:
		return content.StepHandlerThrew
	}
}

func failedResult(err error) content.ActionResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return content.ActionResult{Success: false, Error: msg}
}

func cloneState(state *content.State) *content.State {
	if state == nil {
		return content.NewState()
	}
	cp := content.NewState()
	for k, v := range state.Values {
		cp.Values[k] = v
	}
	for k, v := range state.Data {
		cp.Data[k] = v
	}
	cp.Text = state.Text
	return cp
}

func mergeValues(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func stateWithDependencyValues(base *content.State, ectx *execContext, dependsOn []string) *content.State {
	cp := cloneState(base)
	for _, dep := range dependsOn {
		if r, ok := ectx.tracker.get(dep); ok {
			mergeValues(cp.Values, r.Values)
		}
	}
	return cp
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

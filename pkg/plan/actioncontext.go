package plan

import (
	"sync"

	"github.com/relaywire/agentcore/pkg/content"
)

// resultTracker accumulates CompletedSteps in completion order while also
// indexing them by step id, so ActionContext.GetPreviousResult and
// PreviousResults (chronological) are both O(1)/O(n) without re-deriving
// one view from the other mid-execution.
type resultTracker struct {
	mu        sync.RWMutex
	completed []content.CompletedStep
	byID      map[string]content.ActionResult
}

func newResultTracker() *resultTracker {
	return &resultTracker{byID: make(map[string]content.ActionResult)}
}

func (t *resultTracker) record(stepID string, result content.ActionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed = append(t.completed, content.CompletedStep{StepID: stepID, Result: result})
	t.byID[stepID] = result
}

func (t *resultTracker) get(stepID string) (content.ActionResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[stepID]
	return r, ok
}

func (t *resultTracker) chronological() []content.ActionResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]content.ActionResult, len(t.completed))
	for i, c := range t.completed {
		out[i] = c.Result
	}
	return out
}

func (t *resultTracker) completedSteps() []content.CompletedStep {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]content.CompletedStep(nil), t.completed...)
}

// replanRequest is recorded when a step's handler calls RequestReplanning.
// Only the first request per execution is honored; later ones are ignored
// since a single regeneration already supersedes the working memory they'd
// see.
type replanRequest struct {
	stepID string
	reason string
}

// actionContext is the content.ActionContext implementation threaded into
// every action handler invoked under the planner. One is constructed per
// step, all sharing the plan's single working memory and result tracker.
type actionContext struct {
	planID  string
	stepID  string
	wm      content.WorkingMemory
	tracker *resultTracker
	done    <-chan struct{}

	replanOnce sync.Once
	replanCh   chan<- replanRequest
}

func (c *actionContext) PlanID() string { return c.planID }
func (c *actionContext) StepID() string { return c.stepID }

func (c *actionContext) WorkingMemory() content.WorkingMemory { return c.wm }

func (c *actionContext) PreviousResults() []content.ActionResult {
	return c.tracker.chronological()
}

func (c *actionContext) GetPreviousResult(stepID string) (content.ActionResult, bool) {
	return c.tracker.get(stepID)
}

func (c *actionContext) Done() <-chan struct{} { return c.done }

func (c *actionContext) RequestReplanning(reason string) {
	c.replanOnce.Do(func() {
		if c.replanCh == nil {
			return
		}
		select {
		case c.replanCh <- replanRequest{stepID: c.stepID, reason: reason}:
		default:
		}
	})
}

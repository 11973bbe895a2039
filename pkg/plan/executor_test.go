package plan

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/registry"
)

type stubRuntime struct{ content.Runtime }

func newActionRegistry(actions ...*content.Action) *registry.BaseRegistry[*content.Action] {
	r := registry.NewBaseRegistry[*content.Action]()
	for _, a := range actions {
		_ = r.Register(a.Name, a)
	}
	return r
}

func handlerReturning(values map[string]any) content.ActionHandlerFunc {
	return func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		return &content.ActionResult{Success: true, Values: values}, nil
	}
}

func TestSequentialPlan_StateThreading(t *testing.T) {
	fetch := &content.Action{Name: "FETCH_DATA", Handler: handlerReturning(map[string]any{"fetchedData": []int{1, 2, 3}})}
	process := &content.Action{Name: "PROCESS_DATA", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		prev, ok := actx.GetPreviousResult("step1")
		require.True(t, ok)
		data := prev.Values["fetchedData"].([]int)
		return &content.ActionResult{Success: true, Values: map[string]any{"processed": fmt.Sprintf("%d items", len(data))}}, nil
	}}

	actions := newActionRegistry(fetch, process)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p1",
		Goal:           "fetch then process",
		ExecutionModel: content.ExecSequential,
		Steps: []content.PlanStep{
			{ID: "step1", ActionName: "FETCH_DATA"},
			{ID: "step2", ActionName: "PROCESS_DATA"},
		},
	}

	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "3 items", result.FinalValues["processed"])
	require.Len(t, result.CompletedSteps, 2)
	require.Equal(t, "step1", result.CompletedSteps[0].StepID)
	require.Equal(t, "step2", result.CompletedSteps[1].StepID)
}

func TestDAGPlan_ParallelRoots(t *testing.T) {
	sleepAction := func(name string, d time.Duration) *content.Action {
		return &content.Action{Name: name, Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &content.ActionResult{Success: true}, nil
		}}
	}

	a := sleepAction("A", 50*time.Millisecond)
	b := sleepAction("B", 50*time.Millisecond)
	c := sleepAction("C", 10*time.Millisecond)

	actions := newActionRegistry(a, b, c)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p2",
		ExecutionModel: content.ExecDAG,
		Steps: []content.PlanStep{
			{ID: "A", ActionName: "A"},
			{ID: "B", ActionName: "B"},
			{ID: "C", ActionName: "C", DependsOn: []string{"A", "B"}},
		},
	}

	start := time.Now()
	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.True(t, result.Success)
	require.Less(t, elapsed, 90*time.Millisecond)

	order := make(map[string]int, 3)
	for i, c := range result.CompletedSteps {
		order[c.StepID] = i
	}
	require.Less(t, order["A"], order["C"])
	require.Less(t, order["B"], order["C"])
}

func TestStepFailure_Abort(t *testing.T) {
	x := &content.Action{Name: "X", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		return nil, errors.New("boom")
	}}
	var yCalled atomic.Bool
	y := &content.Action{Name: "Y", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		yCalled.Store(true)
		return &content.ActionResult{Success: true}, nil
	}}

	actions := newActionRegistry(x, y)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p3",
		ExecutionModel: content.ExecSequential,
		Steps: []content.PlanStep{
			{ID: "X", ActionName: "X", OnError: content.OnErrorAbort},
			{ID: "Y", ActionName: "Y"},
		},
	}

	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.NoError(t, err)
	require.False(t, result.Success)
	require.False(t, yCalled.Load())
	require.Len(t, result.Errors, 1)
	require.Equal(t, content.StepHandlerThrew, result.Errors[0].Kind)
}

func TestStepFailure_Continue(t *testing.T) {
	x := &content.Action{Name: "X", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		return nil, errors.New("boom")
	}}
	var yCalled atomic.Bool
	y := &content.Action{Name: "Y", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		yCalled.Store(true)
		return &content.ActionResult{Success: true}, nil
	}}

	actions := newActionRegistry(x, y)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p4",
		ExecutionModel: content.ExecSequential,
		Steps: []content.PlanStep{
			{ID: "X", ActionName: "X", OnError: content.OnErrorContinue},
			{ID: "Y", ActionName: "Y"},
		},
	}

	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.NoError(t, err)
	require.True(t, yCalled.Load())
	require.True(t, result.Success)
	require.Len(t, result.Errors, 1)
}

func TestDAGPlan_SkipPropagatesToDependents(t *testing.T) {
	x := &content.Action{Name: "X", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		return nil, errors.New("boom")
	}}
	var zCalled atomic.Bool
	z := &content.Action{Name: "Z", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		zCalled.Store(true)
		return &content.ActionResult{Success: true}, nil
	}}

	actions := newActionRegistry(x, z)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p5",
		ExecutionModel: content.ExecDAG,
		Steps: []content.PlanStep{
			{ID: "X", ActionName: "X", OnError: content.OnErrorSkip},
			{ID: "Z", ActionName: "Z", DependsOn: []string{"X"}},
		},
	}

	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.NoError(t, err)
	require.False(t, zCalled.Load())
	found := false
	for _, se := range result.Errors {
		if se.StepID == "Z" && se.Kind == content.StepSkipped {
			found = true
		}
	}
	require.True(t, found)
}

func TestZeroStepPlan(t *testing.T) {
	ex := NewExecutor(newActionRegistry(), nil, nil)
	p := &content.ActionPlan{ID: "p6", ExecutionModel: content.ExecSequential}

	result, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.CompletedSteps)
}

func TestParallelPlan_SingleStepMatchesSequential(t *testing.T) {
	a := &content.Action{Name: "A", Handler: handlerReturning(map[string]any{"k": "v"})}
	actions := newActionRegistry(a)
	ex := NewExecutor(actions, nil, nil)

	seq := &content.ActionPlan{ID: "p7", ExecutionModel: content.ExecSequential, Steps: []content.PlanStep{{ID: "s1", ActionName: "A"}}}
	par := &content.ActionPlan{ID: "p8", ExecutionModel: content.ExecParallel, Steps: []content.PlanStep{{ID: "s1", ActionName: "A"}}}

	seqResult, err := ex.Execute(context.Background(), &stubRuntime{}, seq, nil, content.NewState(), nil)
	require.NoError(t, err)
	parResult, err := ex.Execute(context.Background(), &stubRuntime{}, par, nil, content.NewState(), nil)
	require.NoError(t, err)

	require.Equal(t, seqResult.Success, parResult.Success)
	require.Equal(t, seqResult.FinalValues, parResult.FinalValues)
}

func TestValidate_CycleRejectedWithoutDispatch(t *testing.T) {
	var called atomic.Bool
	a := &content.Action{Name: "A", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actx content.ActionContext) (*content.ActionResult, error) {
		called.Store(true)
		return &content.ActionResult{Success: true}, nil
	}}
	actions := newActionRegistry(a)
	ex := NewExecutor(actions, nil, nil)

	p := &content.ActionPlan{
		ID:             "p9",
		ExecutionModel: content.ExecDAG,
		Steps: []content.PlanStep{
			{ID: "s1", ActionName: "A", DependsOn: []string{"s2"}},
			{ID: "s2", ActionName: "A", DependsOn: []string{"s1"}},
		},
	}

	_, err := ex.Execute(context.Background(), &stubRuntime{}, p, nil, content.NewState(), nil)
	require.Error(t, err)
	require.False(t, called.Load())

	var planErr *Error
	require.ErrorAs(t, err, &planErr)
	require.Equal(t, Cycle, planErr.Kind)
}

package runtime

import (
	"context"
	"fmt"

	"github.com/relaywire/agentcore/pkg/config"
	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/event"
	"github.com/relaywire/agentcore/pkg/plan"
)

// shouldPlanProvider is the well-known provider name an intent-classifier
// plugin registers to recommend planning mode for a message that doesn't
// already name more than one action (spec.md §4.5.1, config.PlanningTrigger).
const shouldPlanProvider = "SHOULD_PLAN"

// Initialize verifies the storage adapter is ready, via WaitForReady with a
// zero timeout (a single readiness check, no waiting).
// Plugin loading happens in LoadPlugins, not here, since manifests must be
// supplied by the caller: registerPlugin is a distinct operation from
// initialize.
func (r *Runtime) Initialize(ctx context.Context) error {
	if r.adapter == nil {
		return fmt.Errorf("runtime: LoadPlugins must run before Initialize")
	}
	return r.adapter.WaitForReady(ctx, 0)
}

// HandleMessage drives the compose-decide-act-evaluate cycle: persist the
// inbound message, emit MESSAGE_RECEIVED, compose state, execute whichever
// actions the message names (via the planner when shouldPlan says so,
// otherwise the single-action path), run evaluators, and emit MESSAGE_SENT.
// Whether the planner engages is governed by config.PlanningTrigger (see
// shouldPlan). The caller decides *whether* to respond (a shouldRespond
// provider plus model call, itself just another provider/useModel pairing)
// before calling HandleMessage; this method assumes that decision has
// already been made.
func (r *Runtime) HandleMessage(ctx context.Context, msg *content.Message) (*content.PlanExecutionResult, error) {
	if _, err := r.CreateMemory(ctx, msg, "messages"); err != nil {
		return nil, fmt.Errorf("runtime: persist inbound message: %w", err)
	}
	r.Emit(ctx, event.TopicMessageReceived, msg)

	state, err := r.ComposeState(ctx, msg, content.StateOptions{})
	if err != nil {
		return nil, fmt.Errorf("runtime: compose state: %w", err)
	}

	actionNames := msg.Content.Actions
	var result *content.PlanExecutionResult

	engagePlanner, err := r.shouldPlan(ctx, msg, state, actionNames)
	if err != nil {
		return nil, fmt.Errorf("runtime: shouldPlan: %w", err)
	}

	switch {
	case !engagePlanner && len(actionNames) == 0:
		result = &content.PlanExecutionResult{Success: true, FinalValues: map[string]any{}}
	case !engagePlanner:
		results, err := r.ProcessActions(ctx, msg, state, actionNames)
		if err != nil {
			return nil, err
		}
		result = singleActionResult(results)
	default:
		p, err := r.GeneratePlan(ctx, msg, state, planGoalFromMessage(msg), plan.Constraints{})
		if err != nil {
			r.logger.Warn("plan generation failed, falling back to single-action mode", "error", err)
			results, actErr := r.ProcessActions(ctx, msg, state, actionNames)
			if actErr != nil {
				return nil, actErr
			}
			result = singleActionResult(results)
			break
		}
		result, err = r.ExecutePlan(ctx, msg, state, p, nil)
		if err != nil {
			return nil, err
		}
	}

	r.Evaluate(ctx, msg, state, result.Success, nil)
	r.Emit(ctx, event.TopicMessageSent, msg)
	return result, nil
}

// ProcessActions is the single-action path: it looks up each named action,
// skips ones whose validate predicate rejects the message, and runs the
// rest in order with no ActionContext (options.context is nil outside the
// planner).
func (r *Runtime) ProcessActions(ctx context.Context, msg *content.Message, state *content.State, actionNames []string) ([]content.ActionResult, error) {
	results := make([]content.ActionResult, 0, len(actionNames))
	for _, name := range actionNames {
		action, ok := r.tables.Actions.Get(name)
		if !ok {
			return nil, fmt.Errorf("runtime: unknown action %q", name)
		}
		if action.Validate != nil {
			ok, err := action.Validate(ctx, r, msg, state)
			if err != nil {
				return nil, fmt.Errorf("runtime: validate action %q: %w", name, err)
			}
			if !ok {
				continue
			}
		}
		r.Emit(ctx, event.TopicActionStarted, name)
		res, err := action.Handler(ctx, r, msg, state, nil)
		r.Emit(ctx, event.TopicActionCompleted, name)
		if err != nil {
			return nil, fmt.Errorf("runtime: action %q: %w", name, err)
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

// GeneratePlan invokes the planner to produce a multi-step ActionPlan for
// goal.
func (r *Runtime) GeneratePlan(ctx context.Context, msg *content.Message, state *content.State, goal string, constraints plan.Constraints) (*content.ActionPlan, error) {
	return r.planner.Generate(ctx, r, msg, state, goal, constraints)
}

// ExecutePlan runs p to completion, replanning when a step requests it (the
// regenerated plan runs through the same executor and may replan again).
func (r *Runtime) ExecutePlan(ctx context.Context, msg *content.Message, state *content.State, p *content.ActionPlan, seedWorkingMemory map[string]any) (*content.PlanExecutionResult, error) {
	return r.executor.Execute(ctx, r, p, msg, state, seedWorkingMemory)
}

// Evaluate runs, in registration order, every registered evaluator that is
// AlwaysRun or whose Validate accepts the message, logging and swallowing
// individual failures.
func (r *Runtime) Evaluate(ctx context.Context, msg *content.Message, state *content.State, didRespond bool, responses []content.ActionResult) []content.ActionResult {
	return plan.RunEvaluators(ctx, r, msg, state, r.tables.Evaluators, r.logger)
}

// shouldPlan decides whether HandleMessage hands msg to the planner, per the
// agent's config.PlanningTrigger (spec.md §4.5.1, §9 Open Question 1).
func (r *Runtime) shouldPlan(ctx context.Context, msg *content.Message, state *content.State, actionNames []string) (bool, error) {
	trigger := config.TriggerSettingEnabled
	if r.cfg != nil && r.cfg.Reasoning.PlanningTrigger != "" {
		trigger = r.cfg.Reasoning.PlanningTrigger
	}

	switch trigger {
	case config.TriggerDisabled:
		return false, nil
	case config.TriggerIntentClassified:
		if len(actionNames) > 1 {
			return true, nil
		}
		return r.classifyIntent(ctx, msg, state)
	default: // config.TriggerSettingEnabled
		return len(actionNames) > 1, nil
	}
}

// classifyIntent consults the registered "SHOULD_PLAN" provider, if any, for
// an intent-classifier recommendation to plan a single- or zero-action
// message. Absent that provider, it recommends against planning.
func (r *Runtime) classifyIntent(ctx context.Context, msg *content.Message, state *content.State) (bool, error) {
	provider, ok := r.tables.Providers.Get(shouldPlanProvider)
	if !ok {
		return false, nil
	}
	result, err := provider.Get(ctx, r, msg, state)
	if err != nil {
		return false, fmt.Errorf("runtime: %s provider: %w", shouldPlanProvider, err)
	}
	should, _ := result.Values["shouldPlan"].(bool)
	return should, nil
}

func planGoalFromMessage(msg *content.Message) string {
	if msg.Content.Thought != "" {
		return msg.Content.Thought
	}
	return msg.Content.Text
}

func singleActionResult(results []content.ActionResult) *content.PlanExecutionResult {
	values := map[string]any{}
	success := true
	for _, res := range results {
		for k, v := range res.Values {
			values[k] = v
		}
		success = success && res.Success
	}
	return &content.PlanExecutionResult{Success: success, FinalValues: values}
}

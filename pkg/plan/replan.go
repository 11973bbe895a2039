package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/identity"
)

// Replan implements Replanner: it snapshots the current working memory and
// completed results (replanning preserves working memory rather than
// resetting it) and asks
// the model for a new plan whose goal is amended with the accumulated
// context. The new plan's step ids are namespaced under the original plan's
// id so they can never collide with the steps already recorded in the
// shared result tracker.
func (g *Generator) Replan(ctx context.Context, rt content.Runtime, original *content.ActionPlan, reason string, completed []content.CompletedStep, workingMemory map[string]any) (*content.ActionPlan, error) {
	goal := amendedGoal(original.Goal, reason, completed)

	newPlan, err := g.Generate(ctx, rt, nil, stateFromWorkingMemory(workingMemory), goal, Constraints{})
	if err != nil {
		return nil, err
	}

	namespace := original.ID
	if namespace == "" {
		namespace = identity.New()
	}
	namespacePlan(newPlan, namespace)
	return newPlan, nil
}

func amendedGoal(originalGoal, reason string, completed []content.CompletedStep) string {
	var b strings.Builder
	b.WriteString(originalGoal)
	b.WriteString("\n\nReplanning requested: ")
	b.WriteString(reason)
	if len(completed) > 0 {
		b.WriteString("\n\nSteps completed so far:\n")
		for _, c := range completed {
			fmt.Fprintf(&b, "- %s: success=%v\n", c.StepID, c.Result.Success)
		}
	}
	b.WriteString("\nGenerate a plan for the remaining work only.")
	return b.String()
}

func stateFromWorkingMemory(wm map[string]any) *content.State {
	st := content.NewState()
	for k, v := range wm {
		st.Values[k] = v
	}
	return st
}

// namespacePlan rewrites a plan's id and every step id (and DependsOn
// reference) to be prefixed by namespace, so a replanned execution's step
// ids can never collide with the plan it supersedes.
func namespacePlan(p *content.ActionPlan, namespace string) {
	prefix := namespace + "/replan/"
	p.ID = prefix + p.ID

	rename := make(map[string]string, len(p.Steps))
	for _, s := range p.Steps {
		rename[s.ID] = prefix + s.ID
	}
	for i, s := range p.Steps {
		p.Steps[i].ID = rename[s.ID]
		deps := make([]string, len(s.DependsOn))
		for j, d := range s.DependsOn {
			if mapped, ok := rename[d]; ok {
				deps[j] = mapped
			} else {
				deps[j] = d
			}
		}
		p.Steps[i].DependsOn = deps
	}
}

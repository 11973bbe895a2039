package plan

import (
	"sort"
	"strings"

	"github.com/relaywire/agentcore/pkg/content"
)

// ActionSource reports whether a name is a registered action, the minimal
// slice of the action registry plan validation needs.
type ActionSource interface {
	Get(name string) (*content.Action, bool)
}

// Validate enforces post-parse validation: every step
// names a registered action, every dependsOn references a step in the same
// plan, the dependency graph is acyclic, and the declared ExecutionModel's
// constraints on DependsOn hold.
func Validate(p *content.ActionPlan, actions ActionSource) error {
	ids := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		if s.ID == "" {
			return newError(ValidationFailed, p.ID, "step has empty id", nil)
		}
		if ids[s.ID] {
			return newError(ValidationFailed, p.ID, "duplicate step id "+s.ID, nil)
		}
		ids[s.ID] = true
	}

	for _, s := range p.Steps {
		if _, ok := actions.Get(s.ActionName); !ok {
			return newError(UnknownAction, p.ID, "step "+s.ID+" references unregistered action "+s.ActionName, nil)
		}
		for _, dep := range s.DependsOn {
			if !ids[dep] {
				return newError(ValidationFailed, p.ID, "step "+s.ID+" dependsOn unknown step "+dep, nil)
			}
		}
	}

	switch p.ExecutionModel {
	case content.ExecSequential:
		// dependsOn is ignored for sequential plans; nothing further to check.
	case content.ExecParallel:
		for _, s := range p.Steps {
			if len(s.DependsOn) > 0 {
				return newError(ValidationFailed, p.ID, "step "+s.ID+" declares dependsOn in a parallel plan", nil)
			}
		}
	case content.ExecDAG:
		if err := checkAcyclic(p); err != nil {
			return err
		}
	default:
		return newError(ValidationFailed, p.ID, "unknown executionModel "+string(p.ExecutionModel), nil)
	}

	return nil
}

// checkAcyclic runs Kahn's algorithm over the dependsOn edges and fails
// with every step still blocked once the ready queue runs dry — exactly
// the steps participating in (or downstream of) a cycle.
func checkAcyclic(p *content.ActionPlan) error {
	inDegree := make(map[string]int, len(p.Steps))
	dependents := make(map[string][]string, len(p.Steps))
	for _, s := range p.Steps {
		inDegree[s.ID] = len(s.DependsOn)
		for _, dep := range s.DependsOn {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	remaining := len(inDegree)
	for remaining > 0 {
		if len(ready) == 0 {
			var involved []string
			for id, deg := range inDegree {
				if deg > 0 {
					involved = append(involved, id)
				}
			}
			sort.Strings(involved)
			return newError(Cycle, p.ID, "dependency cycle among steps: "+strings.Join(involved, ", "), nil)
		}
		next := ready[0]
		ready = ready[1:]
		remaining--
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}
	return nil
}

// roots returns the steps with no dependencies, in declaration order — the
// DAG executor's initial frontier.
func roots(p *content.ActionPlan) []content.PlanStep {
	var out []content.PlanStep
	for _, s := range p.Steps {
		if len(s.DependsOn) == 0 {
			out = append(out, s)
		}
	}
	return out
}

// Package plan implements the action planner and executor: the centerpiece
// of the agent runtime. Plans are generated by prompting a reasoning model
// for a structured step graph, validated against the registered action
// table, then executed sequentially, in parallel, or as a DAG with working
// memory threading, cooperative cancellation, and per-step error policy.
package plan

import (
	"fmt"

	"github.com/relaywire/agentcore/pkg/content"
)

// ErrorKind classifies a plan-level failure (as opposed to a single step's
// StepError, defined in pkg/content).
type ErrorKind string

const (
	GenerationFailed ErrorKind = "GenerationFailed"
	ValidationFailed ErrorKind = "ValidationFailed"
	Cycle            ErrorKind = "Cycle"
	UnknownAction    ErrorKind = "UnknownAction"
)

// Error is the taxonomy's PlanError.
type Error struct {
	Kind   ErrorKind
	PlanID string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan %q: %s: %s: %v", e.PlanID, e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("plan %q: %s: %s", e.PlanID, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, planID, detail string, err error) *Error {
	return &Error{Kind: kind, PlanID: planID, Detail: detail, Err: err}
}

// stepError builds a content.StepError for PlanExecutionResult.Errors.
func stepError(stepID string, kind content.StepErrorKind, err error) content.StepError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return content.StepError{StepID: stepID, Kind: kind, Err: msg}
}

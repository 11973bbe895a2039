package content

// ExecutionModel selects how a plan's steps are scheduled.
type ExecutionModel string

const (
	ExecSequential ExecutionModel = "sequential"
	ExecParallel   ExecutionModel = "parallel"
	ExecDAG        ExecutionModel = "dag"
)

// ErrorPolicy controls what happens when a step's handler fails.
type ErrorPolicy string

const (
	OnErrorAbort    ErrorPolicy = "abort"
	OnErrorContinue ErrorPolicy = "continue"
	OnErrorSkip     ErrorPolicy = "skip"
)

// PlanStep is one unit of work in an ActionPlan.
type PlanStep struct {
	ID         string         `json:"id"`
	ActionName string         `json:"actionName"`
	Params     map[string]any `json:"params,omitempty"`
	DependsOn  []string       `json:"dependsOn,omitempty"`
	OnError    ErrorPolicy    `json:"onError,omitempty"`
	TimeoutMs  int            `json:"timeoutMs,omitempty"`
}

// ActionPlan is a multi-step action chain generated by the planner (or
// constructed directly by a caller that already knows its steps).
type ActionPlan struct {
	ID             string         `json:"id"`
	Goal           string         `json:"goal"`
	Steps          []PlanStep     `json:"steps"`
	ExecutionModel ExecutionModel `json:"executionModel"`
}

// StepErrorKind classifies why a step failed.
type StepErrorKind string

const (
	StepHandlerThrew    StepErrorKind = "HandlerThrew"
	StepTimeout         StepErrorKind = "Timeout"
	StepCancelled       StepErrorKind = "Cancelled"
	StepReplanRequested StepErrorKind = "ReplanRequested"
	StepSkipped         StepErrorKind = "Skipped"
)

// StepError records a single step's failure for PlanExecutionResult.Errors.
type StepError struct {
	StepID string        `json:"stepId"`
	Kind   StepErrorKind `json:"kind"`
	Err    string        `json:"error"`
}

// CompletedStep pairs a step id with the ActionResult it produced, in the
// order steps actually completed.
type CompletedStep struct {
	StepID string       `json:"stepId"`
	Result ActionResult `json:"result"`
}

// PlanExecutionResult is returned by executePlan.
type PlanExecutionResult struct {
	Success               bool            `json:"success"`
	CompletedSteps        []CompletedStep `json:"completedSteps"`
	Errors                []StepError     `json:"errors"`
	FinalValues           map[string]any  `json:"finalValues"`
	WorkingMemorySnapshot map[string]any  `json:"workingMemorySnapshot"`
	Adapted               bool            `json:"adapted"`
}

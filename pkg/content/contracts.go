package content

import "context"

// ModelType tags a model capability (text generation, embedding,
// transcription, ...). Handlers are registered per type and selected by
// priority at dispatch time.
type ModelType string

const (
	ModelTextSmall     ModelType = "text-small"
	ModelTextLarge     ModelType = "text-large"
	ModelTextEmbedding ModelType = "text-embedding"
	ModelReasoning     ModelType = "reasoning"
	ModelImage         ModelType = "image"
	ModelTranscription ModelType = "transcription"
	ModelTTS           ModelType = "tts"
	ModelObjectExtract ModelType = "object-extraction"
)

// ModelParams is the opaque, handler-defined request payload passed to
// useModel. Handlers agree out of band on the shape they expect; the core
// never inspects it.
type ModelParams map[string]any

// ModelResult is the opaque, handler-defined response payload returned by
// useModel.
type ModelResult map[string]any

// StateOptions configures a composeState call.
type StateOptions struct {
	IncludeList []string
	OnlyInclude bool
	SkipCache   bool
}

// MemorySearchQuery configures a searchMemories call.
type MemorySearchQuery struct {
	Embedding      []float32
	RoomID         string
	Table          string
	MatchThreshold float32
	Count          int
}

// MemoryFilter configures a getMemories call.
type MemoryFilter struct {
	RoomID string
	Table  string
	Count  int
	Unique bool
}

// Runtime is the minimal capability surface consumed by action, provider,
// and evaluator handlers. It is defined here, in content, rather than in
// the runtime package itself, so that handlers can depend on content alone
// without importing the concrete runtime (which in turn depends on
// content) — the usual "define the interface where it's consumed" shape
// for a dependency-injected services struct.
type Runtime interface {
	UseModel(ctx context.Context, modelType ModelType, params ModelParams) (ModelResult, error)
	ComposeState(ctx context.Context, msg *Message, opts StateOptions) (*State, error)
	GetService(name string) (Service, bool)
	GetSetting(key string) (string, bool)

	CreateMemory(ctx context.Context, mem *Memory, table string) (*Memory, error)
	GetMemories(ctx context.Context, filter MemoryFilter) ([]*Memory, error)
	SearchMemories(ctx context.Context, query MemorySearchQuery) ([]*Memory, error)

	GetEntityByID(ctx context.Context, id string) (*Entity, bool, error)
	CreateRelationship(ctx context.Context, rel *Relationship) error

	Emit(ctx context.Context, topic string, payload any)
}

// WorkingMemory is the per-plan key-value arena made available to action
// handlers running under the planner. It is owned by the plan execution
// context and freed when the plan ends; it is never exposed as a global.
type WorkingMemory interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Has(key string) bool
	Snapshot() map[string]any
}

// ActionContext carries everything an action handler needs to participate
// in a multi-step plan: access to prior results, the working memory arena,
// cancellation, and the ability to ask the runtime to replan. Actions
// invoked outside the planner (single-action mode) receive a nil
// ActionContext.
type ActionContext interface {
	PlanID() string
	StepID() string
	WorkingMemory() WorkingMemory
	PreviousResults() []ActionResult
	GetPreviousResult(stepID string) (ActionResult, bool)
	Done() <-chan struct{}
	RequestReplanning(reason string)
}

// Example is one turn of a multi-turn exemplar attached to an Action or
// Evaluator, used when prompting the model for action/plan selection.
type Example struct {
	Name    string  `json:"name"`
	Content Content `json:"content"`
}

// Effects declares what an action provides, requires, and modifies, so the
// planner can reason about step ordering without executing anything.
type Effects struct {
	Provides []string `json:"provides,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Modifies []string `json:"modifies,omitempty"`
}

// ValidateFunc decides whether an Action or Evaluator applies to a message.
type ValidateFunc func(ctx context.Context, rt Runtime, msg *Message, state *State) (bool, error)

// ActionHandlerFunc executes an action. actionCtx is nil when the action
// runs outside a plan (single-action mode).
type ActionHandlerFunc func(ctx context.Context, rt Runtime, msg *Message, state *State, actionCtx ActionContext) (*ActionResult, error)

// Action is a named capability a plugin contributes to the registry.
type Action struct {
	Name        string
	Similes     []string
	Description string
	Examples    [][]Example
	Validate    ValidateFunc
	Handler     ActionHandlerFunc
	Effects     *Effects
}

// ProviderFunc produces the {values, data, text} triple a Provider
// contributes to composed state.
type ProviderFunc func(ctx context.Context, rt Runtime, msg *Message, state *State) (*ProviderResult, error)

// Provider is a context source contributing to composed state.
type Provider struct {
	Name        string
	Description string
	Position    int
	Dynamic     bool
	Private     bool
	Get         ProviderFunc
}

// EvaluatorHandlerFunc runs the post-response evaluation hook.
type EvaluatorHandlerFunc func(ctx context.Context, rt Runtime, msg *Message, state *State) (*ActionResult, error)

// Evaluator is a post-response hook for memory formation (facts,
// reflections, relationship updates).
type Evaluator struct {
	Name        string
	Description string
	AlwaysRun   bool
	Examples    [][]Example
	Validate    ValidateFunc
	Handler     EvaluatorHandlerFunc
}

// Service is a long-lived singleton owning external connections or mutable
// state. Services are responsible for their own internal synchronization;
// the registry hands out the same instance to every caller.
type Service interface {
	Name() string
	Stop(ctx context.Context) error
}

// ServiceFactory constructs and starts a Service instance.
type ServiceFactory func(ctx context.Context, rt Runtime) (Service, error)

// ModelHandlerFunc implements a model capability for a given ModelType.
type ModelHandlerFunc func(ctx context.Context, rt Runtime, params ModelParams) (ModelResult, error)

// ModelHandler is a named handler for a model-type tag, selected by
// priority at dispatch time.
type ModelHandler struct {
	Type              ModelType
	Handler           ModelHandlerFunc
	Provider          string
	Priority          int
	RegistrationOrder int
}

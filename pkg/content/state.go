package content

// State is the composed context handed to model calls and action handlers.
// It is produced by the provider composer (see pkg/state) from the subset
// of registered providers selected for a given message.
type State struct {
	Values map[string]any `json:"values"`
	Data   map[string]any `json:"data"`
	Text   string         `json:"text"`
}

// NewState returns an empty, non-nil State.
func NewState() *State {
	return &State{Values: map[string]any{}, Data: map[string]any{}}
}

// ProviderResult is what a Provider.Get call returns: the triple the
// composer aggregates into a State.
type ProviderResult struct {
	Values map[string]any `json:"values,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Text   string         `json:"text,omitempty"`
}

// ActionResult is returned by every action and by evaluators. Values merge
// into subsequent state; Data persists into the plan's working memory and
// is addressable by step id.
type ActionResult struct {
	Success bool           `json:"success"`
	Values  map[string]any `json:"values,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Text    string         `json:"text,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Package plugin resolves a set of plugin manifests into a load order that
// respects declared dependencies, runs each plugin's init hook, and installs
// its contributed components into the runtime's registries. A manifest
// carries any combination of actions, providers, evaluators, services,
// model handlers, event subscriptions, and (at most one) storage adapter.
package plugin

import (
	"context"
	"fmt"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage"
)

// EventHandlerFunc is a subscriber invoked when a topic is emitted.
type EventHandlerFunc func(ctx context.Context, rt content.Runtime, payload any)

// RouteDef is an HTTP route a plugin wants exposed by the (out-of-scope)
// transport layer; the core only carries the declaration through to
// whatever server embeds it.
type RouteDef struct {
	Method  string
	Path    string
	Handler any
}

// InitFunc runs once, in dependency order, before a plugin's components are
// installed. A non-nil error aborts the whole load.
type InitFunc func(ctx context.Context, rt content.Runtime, config map[string]any) error

// Manifest is the unit the loader consumes. A manifest with no Init, and no
// contributed components, is valid — it exists purely to be a dependency
// node for others.
type Manifest struct {
	Name         string
	Description  string
	Dependencies []string
	Priority     int

	Init InitFunc

	Services   []ServiceDef
	Actions    []*content.Action
	Providers  []*content.Provider
	Evaluators []*content.Evaluator
	Models     []*content.ModelHandler
	Events     map[string][]EventHandlerFunc
	Routes     []RouteDef
	Adapter    storage.Adapter
	Config     map[string]any
}

// ServiceDef pairs a service name with the factory that constructs and
// starts it. The loader calls the factory once, in plugin order, and
// registers the resulting Service instance under the instance's own Name().
type ServiceDef struct {
	Name    string
	Factory content.ServiceFactory
}

// Error is the taxonomy's PluginLoadError: a cycle, a duplicate
// registration, or an init failure, always naming the plugin(s) involved.
type Error struct {
	Plugin    string
	Operation string
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin %q: %s: %s: %v", e.Plugin, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("plugin %q: %s: %s", e.Plugin, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(plugin, op, msg string, err error) *Error {
	return &Error{Plugin: plugin, Operation: op, Message: msg, Err: err}
}

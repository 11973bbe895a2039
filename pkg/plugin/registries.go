package plugin

import (
	"sort"
	"sync"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/registry"
	"github.com/relaywire/agentcore/pkg/storage"
)

// Tables is every component table the loader installs into. It is built
// once at startup and handed to the runtime; after Load returns it is
// append-only, so readers (the composer, the dispatcher, the planner) never
// need to take a lock on the tables themselves — only the per-table
// registries protect concurrent registration during load.
type Tables struct {
	Actions    *registry.BaseRegistry[*content.Action]
	Providers  *registry.BaseRegistry[*content.Provider]
	Evaluators *registry.BaseRegistry[*content.Evaluator]
	Services   *registry.BaseRegistry[content.Service]

	mu           sync.RWMutex
	models       map[content.ModelType][]*content.ModelHandler
	events       map[string][]EventHandlerFunc
	routes       []RouteDef
	adapter      storage.Adapter
	adapterOwner string
	nextModelSeq int
}

// NewTables builds an empty set of component tables.
func NewTables() *Tables {
	return &Tables{
		Actions:    registry.NewBaseRegistry[*content.Action](),
		Providers:  registry.NewBaseRegistry[*content.Provider](),
		Evaluators: registry.NewBaseRegistry[*content.Evaluator](),
		Services:   registry.NewBaseRegistry[content.Service](),
		models:     make(map[content.ModelType][]*content.ModelHandler),
		events:     make(map[string][]EventHandlerFunc),
	}
}

// RegisterModelHandler installs a handler for the given type. Duplicate
// model types are allowed by design — they are ranked by priority at
// dispatch time, not rejected as a conflicting registration.
func (t *Tables) RegisterModelHandler(h *content.ModelHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h.RegistrationOrder = t.nextModelSeq
	t.nextModelSeq++
	t.models[h.Type] = append(t.models[h.Type], h)
}

// ModelHandlers returns the handlers registered for a type, ordered by
// descending priority then ascending registration order (highest-priority,
// earliest-registered first) — the order model dispatch walks for fallback.
func (t *Tables) ModelHandlers(modelType content.ModelType) []*content.ModelHandler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	handlers := append([]*content.ModelHandler(nil), t.models[modelType]...)
	sort.SliceStable(handlers, func(i, j int) bool {
		if handlers[i].Priority != handlers[j].Priority {
			return handlers[i].Priority > handlers[j].Priority
		}
		return handlers[i].RegistrationOrder < handlers[j].RegistrationOrder
	})
	return handlers
}

// Subscribe appends an event handler for topic, preserving registration
// order. Events are append-only: there is no Unsubscribe, matching the
// registry's append-only-after-load invariant.
func (t *Tables) Subscribe(topic string, h EventHandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[topic] = append(t.events[topic], h)
}

// Subscribers returns the handlers registered for topic, in registration
// order.
func (t *Tables) Subscribers(topic string) []EventHandlerFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]EventHandlerFunc(nil), t.events[topic]...)
}

// AddRoute records a route declaration for the (out-of-scope) transport
// layer to pick up.
func (t *Tables) AddRoute(r RouteDef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, r)
}

// Routes returns every declared route.
func (t *Tables) Routes() []RouteDef {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]RouteDef(nil), t.routes...)
}

// SetAdapter installs the storage adapter contributed by owner. A second
// plugin contributing an adapter is rejected — at most one adapter may be
// active across all loaded plugins.
func (t *Tables) SetAdapter(owner string, a storage.Adapter) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.adapter != nil {
		return newError(owner, "install", "adapter already installed by "+t.adapterOwner, nil)
	}
	t.adapter = a
	t.adapterOwner = owner
	return nil
}

// Adapter returns the installed storage adapter, if any.
func (t *Tables) Adapter() (storage.Adapter, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.adapter, t.adapter != nil
}

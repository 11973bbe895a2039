package plugin

import (
	"context"
	"log/slog"

	"github.com/relaywire/agentcore/pkg/content"
)

// Loader resolves a manifest set into a load order, then runs each
// manifest's Init and installs its contributed components, in order.
type Loader struct {
	logger *slog.Logger
}

// NewLoader builds a Loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves manifests into dependency order and installs each one's
// components into tables, in that order. If init or installation fails for
// any manifest, Load stops and returns the error immediately — manifests
// already installed stay installed rather than being rolled back.
func (l *Loader) Load(ctx context.Context, rt content.Runtime, tables *Tables, manifests []*Manifest) ([]string, error) {
	ordered, err := resolveOrder(manifests)
	if err != nil {
		return nil, err
	}

	loaded := make([]string, 0, len(ordered))
	for _, m := range ordered {
		if err := l.loadOne(ctx, rt, tables, m); err != nil {
			return loaded, err
		}
		loaded = append(loaded, m.Name)
		l.logger.Debug("plugin loaded", "plugin", m.Name, "priority", m.Priority)
	}
	return loaded, nil
}

func (l *Loader) loadOne(ctx context.Context, rt content.Runtime, tables *Tables, m *Manifest) error {
	if m.Init != nil {
		if err := m.Init(ctx, rt, m.Config); err != nil {
			return newError(m.Name, "init", "init hook failed", err)
		}
	}

	for _, a := range m.Actions {
		if err := tables.Actions.Register(a.Name, a); err != nil {
			return newError(m.Name, "install", "action "+a.Name, err)
		}
	}
	for _, p := range m.Providers {
		if err := tables.Providers.Register(p.Name, p); err != nil {
			return newError(m.Name, "install", "provider "+p.Name, err)
		}
	}
	for _, e := range m.Evaluators {
		if err := tables.Evaluators.Register(e.Name, e); err != nil {
			return newError(m.Name, "install", "evaluator "+e.Name, err)
		}
	}
	for _, sd := range m.Services {
		instance, err := sd.Factory(ctx, rt)
		if err != nil {
			return newError(m.Name, "install", "service "+sd.Name+" failed to start", err)
		}
		if err := tables.Services.Register(instance.Name(), instance); err != nil {
			return newError(m.Name, "install", "service "+sd.Name, err)
		}
	}
	for _, h := range m.Models {
		h.Provider = m.Name
		if h.Priority == 0 {
			h.Priority = m.Priority
		}
		tables.RegisterModelHandler(h)
	}
	for topic, handlers := range m.Events {
		for _, h := range handlers {
			tables.Subscribe(topic, h)
		}
	}
	for _, r := range m.Routes {
		tables.AddRoute(r)
	}
	if m.Adapter != nil {
		if err := tables.SetAdapter(m.Name, m.Adapter); err != nil {
			return err
		}
	}

	return nil
}

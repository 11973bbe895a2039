// Package state implements the provider/state composition pipeline:
// selecting the subset of registered providers that apply to a message,
// invoking them in position order, and aggregating their results into a
// content.State. Caching is a simple map keyed by (messageId, providerName)
// guarded by a mutex, generalized from a single cached value to a per-key
// cache.
package state

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/registry"
)

// Composer composes content.State from the registered provider set.
type Composer struct {
	providers *registry.BaseRegistry[*content.Provider]
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[cacheKey]*content.ProviderResult
}

type cacheKey struct {
	messageID string
	provider  string
}

// NewComposer builds a Composer reading from providers.
func NewComposer(providers *registry.BaseRegistry[*content.Provider], logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		providers: providers,
		logger:    logger,
		cache:     make(map[cacheKey]*content.ProviderResult),
	}
}

// Compose runs the selection, execution, and aggregation pipeline and
// returns the resulting State.
func (c *Composer) Compose(ctx context.Context, rt content.Runtime, msg *content.Message, opts content.StateOptions) (*content.State, error) {
	selected := c.selectProviders(opts)

	st := content.NewState()
	providerData := make(map[string]any, len(selected))
	var textParts []string

	for _, p := range selected {
		result, err := c.run(ctx, rt, msg, st, p, opts.SkipCache)
		if err != nil {
			c.logger.Warn("provider failed, substituting empty result", "provider", p.Name, "error", err)
			result = &content.ProviderResult{}
		}
		mergeValues(st.Values, result.Values)
		providerData[p.Name] = result.Data
		if result.Text != "" {
			textParts = append(textParts, result.Text)
		}
	}

	st.Data["providers"] = providerData
	st.Text = joinWithBlankLine(textParts)
	return st, nil
}

// selectProviders implements the selection policy: drop private/dynamic
// providers unless named in IncludeList; if OnlyInclude, keep only
// IncludeList members; sort by Position then registration order.
func (c *Composer) selectProviders(opts content.StateOptions) []*content.Provider {
	included := make(map[string]bool, len(opts.IncludeList))
	for _, name := range opts.IncludeList {
		included[name] = true
	}

	// Ordered() walks registration order, so a stable sort on Position alone
	// yields "position, tie-broken by registration order".
	ordered := c.providers.Ordered()
	all := make([]*content.Provider, 0, len(ordered))
	for _, p := range ordered {
		if opts.OnlyInclude && !included[p.Name] {
			continue
		}
		if !opts.OnlyInclude && (p.Private || p.Dynamic) && !included[p.Name] {
			continue
		}
		all = append(all, p)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Position < all[j].Position
	})
	return all
}

func (c *Composer) run(ctx context.Context, rt content.Runtime, msg *content.Message, st *content.State, p *content.Provider, skipCache bool) (*content.ProviderResult, error) {
	key := cacheKey{messageID: msg.ID, provider: p.Name}

	if !skipCache {
		c.mu.Lock()
		cached, ok := c.cache[key]
		c.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	if p.Get == nil {
		return &content.ProviderResult{}, nil
	}
	result, err := p.Get(ctx, rt, msg, st)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &content.ProviderResult{}
	}

	if !skipCache {
		c.mu.Lock()
		c.cache[key] = result
		c.mu.Unlock()
	}
	return result, nil
}

func mergeValues(dst, src map[string]any) {
	for k, v := range src {
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				merged := make(map[string]any, len(dm)+len(sm))
				for dk, dv := range dm {
					merged[dk] = dv
				}
				mergeValues(merged, sm)
				dst[k] = merged
				continue
			}
		}
		dst[k] = v
	}
}

func joinWithBlankLine(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

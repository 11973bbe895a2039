package plugin

import (
	"context"
	"testing"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage/memadapter"
	"github.com/stretchr/testify/require"
)

type fakeService struct{ name string }

func (f *fakeService) Name() string                   { return f.name }
func (f *fakeService) Stop(ctx context.Context) error { return nil }

func TestLoadInstallsActionsProvidersServices(t *testing.T) {
	tables := NewTables()
	loader := NewLoader(nil)

	m := &Manifest{
		Name: "core",
		Actions: []*content.Action{
			{Name: "reply", Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, s *content.State, ac content.ActionContext) (*content.ActionResult, error) {
				return &content.ActionResult{Success: true}, nil
			}},
		},
		Providers: []*content.Provider{
			{Name: "recentMessages", Position: 10},
		},
		Services: []ServiceDef{
			{Name: "cache", Factory: func(ctx context.Context, rt content.Runtime) (content.Service, error) {
				return &fakeService{name: "cache"}, nil
			}},
		},
	}

	_, err := loader.Load(context.Background(), nil, tables, []*Manifest{m})
	require.NoError(t, err)

	_, ok := tables.Actions.Get("reply")
	require.True(t, ok)
	_, ok = tables.Providers.Get("recentMessages")
	require.True(t, ok)
	svc, ok := tables.Services.Get("cache")
	require.True(t, ok)
	require.Equal(t, "cache", svc.Name())
}

func TestLoadRejectsDuplicateActionAcrossPlugins(t *testing.T) {
	tables := NewTables()
	loader := NewLoader(nil)

	action := &content.Action{Name: "reply"}
	a := &Manifest{Name: "a", Actions: []*content.Action{action}}
	b := &Manifest{Name: "b", Actions: []*content.Action{action}}

	_, err := loader.Load(context.Background(), nil, tables, []*Manifest{a, b})
	require.Error(t, err)
}

func TestLoadModelHandlersRankedByPriorityThenRegistrationOrder(t *testing.T) {
	tables := NewTables()
	loader := NewLoader(nil)

	fn := func(ctx context.Context, rt content.Runtime, p content.ModelParams) (content.ModelResult, error) {
		return nil, nil
	}
	low := &Manifest{Name: "low", Priority: 1, Models: []*content.ModelHandler{{Type: content.ModelTextLarge, Handler: fn}}}
	high := &Manifest{Name: "high", Priority: 10, Models: []*content.ModelHandler{{Type: content.ModelTextLarge, Handler: fn}}}

	_, err := loader.Load(context.Background(), nil, tables, []*Manifest{low, high})
	require.NoError(t, err)

	handlers := tables.ModelHandlers(content.ModelTextLarge)
	require.Len(t, handlers, 2)
	require.Equal(t, "high", handlers[0].Provider)
	require.Equal(t, "low", handlers[1].Provider)
}

func TestLoadSecondAdapterRejected(t *testing.T) {
	tables := NewTables()
	loader := NewLoader(nil)

	a := &Manifest{Name: "a", Adapter: memadapter.New()}
	b := &Manifest{Name: "b", Adapter: memadapter.New()}

	_, err := loader.Load(context.Background(), nil, tables, []*Manifest{a, b})
	require.Error(t, err)
}

func TestLoadEventSubscribersPreserveRegistrationOrder(t *testing.T) {
	tables := NewTables()
	loader := NewLoader(nil)

	var calls []string
	h1 := func(ctx context.Context, rt content.Runtime, payload any) { calls = append(calls, "h1") }
	h2 := func(ctx context.Context, rt content.Runtime, payload any) { calls = append(calls, "h2") }

	m := &Manifest{Name: "a", Events: map[string][]EventHandlerFunc{"MESSAGE_RECEIVED": {h1, h2}}}
	_, err := loader.Load(context.Background(), nil, tables, []*Manifest{m})
	require.NoError(t, err)

	subs := tables.Subscribers("MESSAGE_RECEIVED")
	require.Len(t, subs, 2)
	subs[0](context.Background(), nil, nil)
	subs[1](context.Background(), nil, nil)
	require.Equal(t, []string{"h1", "h2"}, calls)
}

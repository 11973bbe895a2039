package state

import (
	"context"
	"testing"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/registry"
	"github.com/stretchr/testify/require"
)

func provider(name string, position int, private, dynamic bool, text string, values map[string]any) *content.Provider {
	return &content.Provider{
		Name:     name,
		Position: position,
		Private:  private,
		Dynamic:  dynamic,
		Get: func(ctx context.Context, rt content.Runtime, msg *content.Message, st *content.State) (*content.ProviderResult, error) {
			return &content.ProviderResult{Text: text, Values: values, Data: map[string]any{"ran": name}}, nil
		},
	}
}

func newMsg() *content.Message {
	return content.NewMemory("e1", "agent1", "room1", content.Content{Text: "hi"})
}

func TestComposeOrdersByPositionThenRegistration(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	require.NoError(t, reg.Register("b", provider("b", 5, false, false, "B", nil)))
	require.NoError(t, reg.Register("a", provider("a", 5, false, false, "A", nil)))
	require.NoError(t, reg.Register("c", provider("c", 1, false, false, "C", nil)))

	c := NewComposer(reg, nil)
	st, err := c.Compose(context.Background(), nil, newMsg(), content.StateOptions{})
	require.NoError(t, err)
	require.Equal(t, "C\n\nB\n\nA", st.Text)
}

func TestComposeDropsPrivateAndDynamicUnlessIncluded(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	require.NoError(t, reg.Register("secret", provider("secret", 0, true, false, "SECRET", nil)))
	require.NoError(t, reg.Register("open", provider("open", 0, false, false, "OPEN", nil)))

	c := NewComposer(reg, nil)
	st, err := c.Compose(context.Background(), nil, newMsg(), content.StateOptions{})
	require.NoError(t, err)
	require.Equal(t, "OPEN", st.Text)

	st, err = c.Compose(context.Background(), nil, newMsg(), content.StateOptions{IncludeList: []string{"secret"}, SkipCache: true})
	require.NoError(t, err)
	require.Contains(t, st.Text, "SECRET")
}

func TestComposeOnlyIncludeKeepsJustListedProviders(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	require.NoError(t, reg.Register("a", provider("a", 0, false, false, "A", nil)))
	require.NoError(t, reg.Register("b", provider("b", 0, false, false, "B", nil)))

	c := NewComposer(reg, nil)
	st, err := c.Compose(context.Background(), nil, newMsg(), content.StateOptions{OnlyInclude: true, IncludeList: []string{"b"}})
	require.NoError(t, err)
	require.Equal(t, "B", st.Text)
}

func TestComposeValuesDeepMergeLastWriterWins(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	require.NoError(t, reg.Register("a", provider("a", 0, false, false, "", map[string]any{"k": "first"})))
	require.NoError(t, reg.Register("b", provider("b", 1, false, false, "", map[string]any{"k": "second"})))

	c := NewComposer(reg, nil)
	st, err := c.Compose(context.Background(), nil, newMsg(), content.StateOptions{})
	require.NoError(t, err)
	require.Equal(t, "second", st.Values["k"])
}

func TestComposeCachesProviderResultPerMessage(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	calls := 0
	require.NoError(t, reg.Register("counter", &content.Provider{
		Name: "counter",
		Get: func(ctx context.Context, rt content.Runtime, msg *content.Message, st *content.State) (*content.ProviderResult, error) {
			calls++
			return &content.ProviderResult{Text: "x"}, nil
		},
	}))

	c := NewComposer(reg, nil)
	msg := newMsg()
	_, err := c.Compose(context.Background(), nil, msg, content.StateOptions{})
	require.NoError(t, err)
	_, err = c.Compose(context.Background(), nil, msg, content.StateOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	_, err = c.Compose(context.Background(), nil, msg, content.StateOptions{SkipCache: true})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestComposeProviderFailureSubstitutesEmptyResult(t *testing.T) {
	reg := registry.NewBaseRegistry[*content.Provider]()
	require.NoError(t, reg.Register("broken", &content.Provider{
		Name: "broken",
		Get: func(ctx context.Context, rt content.Runtime, msg *content.Message, st *content.State) (*content.ProviderResult, error) {
			return nil, context.DeadlineExceeded
		},
	}))

	c := NewComposer(reg, nil)
	st, err := c.Compose(context.Background(), nil, newMsg(), content.StateOptions{})
	require.NoError(t, err)
	require.Equal(t, "", st.Text)
}

package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/config"
	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/plugin"
	"github.com/relaywire/agentcore/pkg/storage/memadapter"
)

func testOptions() Options {
	return Options{AgentID: "agent-1", Config: &config.AgentConfig{EmbeddingDimension: 4}}
}

func testManifests() []*plugin.Manifest {
	return []*plugin.Manifest{
		{
			Name:    "storage",
			Adapter: memadapter.New(),
		},
		{
			Name: "core",
			Actions: []*content.Action{
				{
					Name: "GREET",
					Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actionCtx content.ActionContext) (*content.ActionResult, error) {
						return &content.ActionResult{Success: true, Values: map[string]any{"greeted": true}}, nil
					},
				},
			},
			Models: []*content.ModelHandler{
				{
					Type: content.ModelTextEmbedding,
					Handler: func(ctx context.Context, rt content.Runtime, params content.ModelParams) (content.ModelResult, error) {
						return content.ModelResult{"embedding": []float32{0.1, 0.2, 0.3, 0.4}}, nil
					},
				},
			},
		},
	}
}

func TestRuntime_LoadPluginsAndProcessSingleAction(t *testing.T) {
	rt := New(testOptions())
	loaded, err := rt.LoadPlugins(context.Background(), testManifests())
	require.NoError(t, err)
	require.Equal(t, []string{"storage", "core"}, loaded)

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hi", Actions: []string{"GREET"}})

	results, err := rt.ProcessActions(context.Background(), msg, content.NewState(), msg.Content.Actions)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	require.Equal(t, true, results[0].Values["greeted"])
}

func TestRuntime_HandleMessage_ZeroActions(t *testing.T) {
	rt := New(testOptions())
	_, err := rt.LoadPlugins(context.Background(), testManifests())
	require.NoError(t, err)

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hello"})
	result, err := rt.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestRuntime_PlanningTriggerDisabled_RunsMultipleActionsWithoutPlanner(t *testing.T) {
	opts := testOptions()
	opts.Config.Reasoning.PlanningTrigger = config.TriggerDisabled
	rt := New(opts)

	manifests := testManifests()
	manifests[1].Actions = append(manifests[1].Actions, &content.Action{
		Name: "WAVE",
		Handler: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State, actionCtx content.ActionContext) (*content.ActionResult, error) {
			return &content.ActionResult{Success: true, Values: map[string]any{"waved": true}}, nil
		},
	})
	_, err := rt.LoadPlugins(context.Background(), manifests)
	require.NoError(t, err)

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hi", Actions: []string{"GREET", "WAVE"}})
	result, err := rt.HandleMessage(context.Background(), msg)
	require.NoError(t, err, "TriggerDisabled must never invoke the (here unregistered) planner model, even with multiple named actions")
	require.True(t, result.Success)
	require.Equal(t, true, result.FinalValues["greeted"])
	require.Equal(t, true, result.FinalValues["waved"])
}

func TestRuntime_IntentClassifiedTrigger_EngagesPlannerForSingleAction(t *testing.T) {
	opts := testOptions()
	opts.Config.Reasoning.PlanningTrigger = config.TriggerIntentClassified
	rt := New(opts)

	manifests := testManifests()
	manifests[1].Providers = append(manifests[1].Providers, &content.Provider{
		Name: shouldPlanProvider,
		Get: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State) (*content.ProviderResult, error) {
			return &content.ProviderResult{Values: map[string]any{"shouldPlan": true}}, nil
		},
	})
	_, err := rt.LoadPlugins(context.Background(), manifests)
	require.NoError(t, err)

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hi", Actions: []string{"GREET"}})
	engage, err := rt.shouldPlan(context.Background(), msg, content.NewState(), msg.Content.Actions)
	require.NoError(t, err)
	require.True(t, engage, "the SHOULD_PLAN provider's recommendation must engage the planner even for a single named action")
}

func TestRuntime_SettingEnabledTrigger_IgnoresShouldPlanProvider(t *testing.T) {
	rt := New(testOptions())

	manifests := testManifests()
	manifests[1].Providers = append(manifests[1].Providers, &content.Provider{
		Name: shouldPlanProvider,
		Get: func(ctx context.Context, rt content.Runtime, msg *content.Message, state *content.State) (*content.ProviderResult, error) {
			return &content.ProviderResult{Values: map[string]any{"shouldPlan": true}}, nil
		},
	})
	_, err := rt.LoadPlugins(context.Background(), manifests)
	require.NoError(t, err)

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hi", Actions: []string{"GREET"}})
	engage, err := rt.shouldPlan(context.Background(), msg, content.NewState(), msg.Content.Actions)
	require.NoError(t, err)
	require.False(t, engage, "the default TriggerSettingEnabled must not consult SHOULD_PLAN")
}

func TestRuntime_MemoryRoundTrip(t *testing.T) {
	rt := New(testOptions())
	_, err := rt.LoadPlugins(context.Background(), testManifests())
	require.NoError(t, err)

	mem := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "remember this"})
	created, err := rt.CreateMemory(context.Background(), mem, "messages")
	require.NoError(t, err)
	require.Len(t, created.Embedding, 4)

	found, err := rt.GetMemories(context.Background(), content.MemoryFilter{RoomID: "room-1", Table: "messages"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "remember this", found[0].Content.Text)
}

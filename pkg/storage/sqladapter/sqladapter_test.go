package sqladapter

import (
	"context"
	"testing"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/identity"
	"github.com/relaywire/agentcore/pkg/storage"
	"github.com/stretchr/testify/require"
)

func openTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := Open(context.Background(), Config{DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestCreateMemoryThenGetMemoriesRoundTrips(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	m := content.NewMemory("e1", "agent1", "room1", content.Content{Text: "hello"})
	m.Embedding = []float32{0.1, 0.2, 0.3}

	_, err := a.CreateMemory(ctx, m, "")
	require.NoError(t, err)

	got, err := a.GetMemories(ctx, content.MemoryFilter{RoomID: "room1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hello", got[0].Content.Text)
}

func TestCreateEntityThenGetEntityByIDIsIdentity(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	e := &content.Entity{ID: identity.New(), AgentID: "agent1", Names: []string{"Ada"}}
	require.NoError(t, a.CreateEntity(ctx, e))

	got, err := a.GetEntityByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, e.Names, got.Names)
}

func TestGetEntityByIDNotFound(t *testing.T) {
	a := openTestAdapter(t)
	_, err := a.GetEntityByID(context.Background(), "missing")
	require.True(t, storage.IsNotFound(err))
}

func TestEnsureEmbeddingDimensionMismatchRejects(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	require.NoError(t, a.EnsureEmbeddingDimension(ctx, 384))
	require.NoError(t, a.EnsureEmbeddingDimension(ctx, 384))
	require.Error(t, a.EnsureEmbeddingDimension(ctx, 512))
}

func TestTaskCreateListAndUpdate(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	task := &content.Task{ID: identity.New(), Name: "reminder", AgentID: "agent1"}
	require.NoError(t, a.CreateTask(ctx, task))

	tasks, err := a.ListTasks(ctx, storage.TaskFilter{AgentID: "agent1", Name: "reminder"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task.Description = "updated"
	require.NoError(t, a.UpdateTask(ctx, task))

	got, err := a.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "updated", got.Description)
}

func TestCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	a := openTestAdapter(t)

	require.NoError(t, a.SetCache(ctx, "k", []byte("v"), 0))
	v, ok, err := a.GetCache(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, a.DeleteCache(ctx, "k"))
	_, ok, err = a.GetCache(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

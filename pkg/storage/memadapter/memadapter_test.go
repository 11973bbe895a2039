package memadapter

import (
	"context"
	"testing"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/identity"
	"github.com/relaywire/agentcore/pkg/storage"
	"github.com/stretchr/testify/require"
)

func TestCreateMemoryThenGetMemoriesRoundTrips(t *testing.T) {
	ctx := context.Background()
	a := New()

	m := content.NewMemory("e1", "agent1", "room1", content.Content{Text: "hello"})
	m.Embedding = []float32{0.1, 0.2, 0.3}

	_, err := a.CreateMemory(ctx, m, "")
	require.NoError(t, err)

	got, err := a.GetMemories(ctx, content.MemoryFilter{RoomID: "room1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, m.Content.Text, got[0].Content.Text)
	require.Equal(t, m.Embedding, got[0].Embedding)
}

func TestCreateEntityThenGetEntityByIDIsIdentity(t *testing.T) {
	ctx := context.Background()
	a := New()

	e := &content.Entity{ID: identity.New(), AgentID: "agent1", Names: []string{"Ada"}}
	require.NoError(t, a.CreateEntity(ctx, e))

	got, err := a.GetEntityByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, e.Names, got.Names)
}

func TestGetEntityByIDNotFound(t *testing.T) {
	a := New()
	_, err := a.GetEntityByID(context.Background(), "does-not-exist")
	require.True(t, storage.IsNotFound(err))
}

func TestEnsureEmbeddingDimensionMismatchRejects(t *testing.T) {
	ctx := context.Background()
	a := New()

	require.NoError(t, a.EnsureEmbeddingDimension(ctx, 384))
	require.NoError(t, a.EnsureEmbeddingDimension(ctx, 384))

	err := a.EnsureEmbeddingDimension(ctx, 512)
	require.Error(t, err)
}

func TestSearchMemoriesOrdersBySimilarityDescending(t *testing.T) {
	ctx := context.Background()
	a := New()

	near := content.NewMemory("e1", "agent1", "room1", content.Content{Text: "near"})
	near.Embedding = []float32{1, 0, 0}
	far := content.NewMemory("e1", "agent1", "room1", content.Content{Text: "far"})
	far.Embedding = []float32{0, 1, 0}

	_, err := a.CreateMemory(ctx, far, "")
	require.NoError(t, err)
	_, err = a.CreateMemory(ctx, near, "")
	require.NoError(t, err)

	results, err := a.SearchMemories(ctx, content.MemorySearchQuery{
		Embedding:      []float32{1, 0, 0},
		RoomID:         "room1",
		MatchThreshold: -1,
		Count:          10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "near", results[0].Content.Text)
}

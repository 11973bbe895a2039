package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage/memadapter"
)

type fakeModelCaller struct{ dim int }

func (f fakeModelCaller) UseModel(ctx context.Context, modelType content.ModelType, params content.ModelParams) (content.ModelResult, error) {
	vec := make([]float32, f.dim)
	for i := range vec {
		vec[i] = float32(i) / float32(f.dim)
	}
	return content.ModelResult{"embedding": vec}, nil
}

func TestCreateMemory_ComputesMissingEmbedding(t *testing.T) {
	adapter := memadapter.New()
	sub, err := New(context.Background(), adapter, 4, nil)
	require.NoError(t, err)

	mem := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hello"})
	created, err := sub.CreateMemory(context.Background(), fakeModelCaller{dim: 4}, mem, "messages", true)
	require.NoError(t, err)
	require.Len(t, created.Embedding, 4)

	fetched, err := sub.GetMemories(context.Background(), content.MemoryFilter{RoomID: "room-1", Table: "messages"})
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	require.Equal(t, "hello", fetched[0].Content.Text)
}

func TestCreateMemory_MarksContentHashDuplicatesNotUnique(t *testing.T) {
	adapter := memadapter.New()
	sub, err := New(context.Background(), adapter, 4, nil)
	require.NoError(t, err)

	first := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hello"})
	created, err := sub.CreateMemory(context.Background(), fakeModelCaller{dim: 4}, first, "messages", true)
	require.NoError(t, err)
	require.True(t, created.Unique)

	second := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hello"})
	created2, err := sub.CreateMemory(context.Background(), fakeModelCaller{dim: 4}, second, "messages", true)
	require.NoError(t, err)
	require.False(t, created2.Unique, "a second memory with identical text/entity/room should be flagged as a duplicate")

	unique, err := sub.GetMemories(context.Background(), content.MemoryFilter{RoomID: "room-1", Table: "messages", Unique: true})
	require.NoError(t, err)
	require.Len(t, unique, 1)
	require.Equal(t, first.ID, unique[0].ID)
}

func TestCreateMemory_DifferentRoomsDoNotCollideForDedup(t *testing.T) {
	adapter := memadapter.New()
	sub, err := New(context.Background(), adapter, 4, nil)
	require.NoError(t, err)

	a := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{Text: "hello"})
	_, err = sub.CreateMemory(context.Background(), fakeModelCaller{dim: 4}, a, "messages", true)
	require.NoError(t, err)

	b := content.NewMemory("entity-1", "agent-1", "room-2", content.Content{Text: "hello"})
	created, err := sub.CreateMemory(context.Background(), fakeModelCaller{dim: 4}, b, "messages", true)
	require.NoError(t, err)
	require.True(t, created.Unique)
}

func TestEnsureEmbeddingDimension_RejectsMismatch(t *testing.T) {
	adapter := memadapter.New()
	_, err := New(context.Background(), adapter, 4, nil)
	require.NoError(t, err)

	_, err = New(context.Background(), adapter, 8, nil)
	require.Error(t, err)
}

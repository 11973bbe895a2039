package qdrantadapter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/stretchr/testify/require"
)

// TestQdrantAdapter_Integration exercises CreateMemory/SearchMemories
// against a real Qdrant instance. Skipped unless QDRANT_TEST_ADDR names a
// reachable Qdrant host; it is used as Config.Host, so the default gRPC
// port 6334 applies.
func TestQdrantAdapter_Integration(t *testing.T) {
	addr := os.Getenv("QDRANT_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping Qdrant integration test (set QDRANT_TEST_ADDR to enable)")
	}

	a, err := Open(Config{Host: addr, Collection: "agentcore_test"})
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.True(t, a.IsReady(ctx))

	m := content.NewMemory("e1", "agent1", "room1", content.Content{Text: "hello qdrant"})
	m.Embedding = []float32{1, 0, 0}
	_, err = a.CreateMemory(ctx, m, "")
	require.NoError(t, err)

	results, err := a.SearchMemories(ctx, content.MemorySearchQuery{
		Embedding:      []float32{1, 0, 0},
		RoomID:         "room1",
		MatchThreshold: -1,
		Count:          5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

// TestDelegatesNonVectorOperations confirms the embedded in-memory adapter
// still serves record kinds Qdrant has no concept of, without needing a
// live Qdrant connection.
func TestDelegatesNonVectorOperations(t *testing.T) {
	a, err := Open(Config{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)
	defer a.client.Close()

	ctx := context.Background()
	room := &content.Room{ID: "room1", Source: "test", Type: content.RoomGroup}
	require.NoError(t, a.CreateRoom(ctx, room))

	got, err := a.GetRoom(ctx, "room1")
	require.NoError(t, err)
	require.Equal(t, content.RoomGroup, got.Type)
}

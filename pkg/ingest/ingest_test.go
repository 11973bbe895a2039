package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
)

func TestChunkText_FitsInOneChunk(t *testing.T) {
	chunks := ChunkText("short text", ChunkConfig{Size: 800})
	require.Len(t, chunks, 1)
	require.Equal(t, 1, chunks[0].Total)
}

func TestChunkText_SplitsLongContent(t *testing.T) {
	line := strings.Repeat("x", 50) + "\n"
	content := strings.Repeat(line, 40) // ~2000 bytes
	chunks := ChunkText(content, ChunkConfig{Size: 500})
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.Equal(t, len(chunks), c.Total)
	}
}

type fakeCreator struct {
	created []*content.Memory
}

func (f *fakeCreator) CreateMemory(ctx context.Context, mem *content.Memory, table string) (*content.Memory, error) {
	f.created = append(f.created, mem)
	return mem, nil
}

func TestPipeline_SkipsNonPDFAttachments(t *testing.T) {
	fc := &fakeCreator{}
	p := NewPipeline(fc, ChunkConfig{})

	msg := content.NewMemory("entity-1", "agent-1", "room-1", content.Content{
		Attachments: []content.Attachment{{ID: "a1", MimeType: "image/png", Data: []byte{1, 2, 3}}},
	})

	created, err := p.Ingest(context.Background(), msg)
	require.NoError(t, err)
	require.Empty(t, created)
}

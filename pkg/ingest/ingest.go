package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/relaywire/agentcore/pkg/content"
)

// MemoryCreator is the subset of content.Runtime ingestion needs: persisting
// a memory (with embedding computed by the runtime when required).
type MemoryCreator interface {
	CreateMemory(ctx context.Context, mem *content.Memory, table string) (*content.Memory, error)
}

// Pipeline ingests PDF attachments on a message into document/fragment
// memories.
type Pipeline struct {
	runtime MemoryCreator
	chunk   ChunkConfig
}

// NewPipeline builds a Pipeline. A zero ChunkConfig falls back to
// DefaultChunkConfig.
func NewPipeline(rt MemoryCreator, cfg ChunkConfig) *Pipeline {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &Pipeline{runtime: rt, chunk: cfg}
}

// Ingest processes every PDF attachment on msg, persisting one `document`
// memory per attachment (the full extracted text) and one `fragment`
// memory per chunk, each tagged with the parent document's memory id.
// Non-PDF attachments are skipped; callers needing other formats add a
// parser the same way ExtractPDFText is wired in here.
func (p *Pipeline) Ingest(ctx context.Context, msg *content.Memory) ([]*content.Memory, error) {
	var created []*content.Memory

	for _, att := range msg.Content.Attachments {
		if !isPDF(att.MimeType) {
			continue
		}
		text, pages, err := ExtractPDFText(att.Data)
		if err != nil {
			return created, fmt.Errorf("ingest: attachment %q: %w", att.ID, err)
		}

		doc := content.NewMemory(msg.EntityID, msg.AgentID, msg.RoomID, content.Content{
			Text:  text,
			Extra: map[string]any{"attachmentId": att.ID, "pages": pages},
		})
		doc.Metadata = &content.MemoryMetadata{Kind: content.KindDocument, Scope: content.ScopeRoom}
		doc, err = p.runtime.CreateMemory(ctx, doc, "documents")
		if err != nil {
			return created, fmt.Errorf("ingest: persist document: %w", err)
		}
		created = append(created, doc)

		for _, c := range ChunkText(text, p.chunk) {
			frag := content.NewMemory(msg.EntityID, msg.AgentID, msg.RoomID, content.Content{
				Text: c.Content,
				Extra: map[string]any{
					"documentId": doc.ID,
					"chunkIndex": c.Index,
					"chunkTotal": c.Total,
				},
			})
			frag.Metadata = &content.MemoryMetadata{Kind: content.KindFragment, Scope: content.ScopeRoom}
			frag, err = p.runtime.CreateMemory(ctx, frag, "fragments")
			if err != nil {
				return created, fmt.Errorf("ingest: persist fragment %d: %w", c.Index, err)
			}
			created = append(created, frag)
		}
	}
	return created, nil
}

func isPDF(mimeType string) bool {
	return strings.EqualFold(mimeType, "application/pdf")
}

// Package memory implements createMemory, which computes a missing
// embedding via useModel(TEXT_EMBEDDING) before persisting, and
// searchMemories returns memories ordered by similarity. The embedding
// dimension is declared once via storage.Adapter.EnsureEmbeddingDimension
// and never changes afterward.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/observability"
	"github.com/relaywire/agentcore/pkg/storage"
)

// ModelCaller is the subset of content.Runtime the memory subsystem needs
// to compute embeddings, defined here at the consumer rather than importing
// the full Runtime in every call site.
type ModelCaller interface {
	UseModel(ctx context.Context, modelType content.ModelType, params content.ModelParams) (content.ModelResult, error)
}

// Subsystem implements createMemory/getMemories/searchMemories over a
// storage.Adapter, with an optional accelerated Index consulted first on
// search (see index.go).
type Subsystem struct {
	adapter   storage.Adapter
	dimension int
	index     *Index // nil: fall back to the adapter's own SearchMemories

	metrics observability.Recorder
	tracer  *observability.Tracer
}

// SetObservability wires metric recording and tracing into the subsystem.
// Either argument may be nil; both are no-ops until set.
func (s *Subsystem) SetObservability(metrics observability.Recorder, tracer *observability.Tracer) {
	s.metrics = metrics
	s.tracer = tracer
}

// New builds a Subsystem. dimension is declared once, at startup, via
// adapter.EnsureEmbeddingDimension; callers that later try to write an
// embedding of a different length are rejected by the adapter itself.
func New(ctx context.Context, adapter storage.Adapter, dimension int, index *Index) (*Subsystem, error) {
	if err := adapter.EnsureEmbeddingDimension(ctx, dimension); err != nil {
		return nil, fmt.Errorf("memory: ensure embedding dimension: %w", err)
	}
	return &Subsystem{adapter: adapter, dimension: dimension, index: index}, nil
}

// CreateMemory persists mem into table (default "messages"), computing its
// embedding first if the table requires one and mem doesn't already carry
// one.
func (s *Subsystem) CreateMemory(ctx context.Context, rt ModelCaller, mem *content.Memory, table string, requiresEmbedding bool) (*content.Memory, error) {
	if table == "" {
		table = "messages"
	}
	if err := s.dedupe(ctx, mem, table); err != nil {
		return nil, err
	}
	if requiresEmbedding && len(mem.Embedding) == 0 {
		emb, err := s.embed(ctx, rt, mem.Content.Text)
		if err != nil {
			return nil, fmt.Errorf("memory: compute embedding: %w", err)
		}
		mem.Embedding = emb
	}

	created, err := s.adapter.CreateMemory(ctx, mem, table)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordMemoryCreated(table)
	}
	if s.index != nil && len(created.Embedding) > 0 {
		if err := s.index.Add(ctx, table, created); err != nil {
			return created, fmt.Errorf("memory: index add: %w", err)
		}
	}
	return created, nil
}

// AddEmbeddingToMemory computes and persists an embedding for an existing
// memory that doesn't have one yet.
func (s *Subsystem) AddEmbeddingToMemory(ctx context.Context, rt ModelCaller, mem *content.Memory, table string) error {
	emb, err := s.embed(ctx, rt, mem.Content.Text)
	if err != nil {
		return fmt.Errorf("memory: compute embedding: %w", err)
	}
	mem.Embedding = emb
	if err := s.adapter.UpdateMemory(ctx, mem, table); err != nil {
		return err
	}
	if s.index != nil {
		return s.index.Add(ctx, table, mem)
	}
	return nil
}

// dedupe sets mem.Unique by comparing mem.Hash() against every other memory
// already stored in the same room and table. Dedup runs on content hash,
// not embedding distance, so it doesn't have to wait on an embedding that
// may not exist yet. It always recomputes Unique; callers cannot pin it.
func (s *Subsystem) dedupe(ctx context.Context, mem *content.Memory, table string) error {
	mem.Unique = true
	if mem.RoomID == "" {
		return nil
	}
	existing, err := s.adapter.GetMemories(ctx, content.MemoryFilter{RoomID: mem.RoomID, Table: table})
	if err != nil {
		return fmt.Errorf("memory: dedup lookup: %w", err)
	}
	hash := mem.Hash()
	for _, e := range existing {
		if e.ID != mem.ID && e.Hash() == hash {
			mem.Unique = false
			break
		}
	}
	return nil
}

// GetMemories delegates to the adapter's filtered listing.
func (s *Subsystem) GetMemories(ctx context.Context, filter content.MemoryFilter) ([]*content.Memory, error) {
	return s.adapter.GetMemories(ctx, filter)
}

// SearchMemories returns memories ordered by similarity descending,
// preferring the accelerated Index when one is configured.
func (s *Subsystem) SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	start := time.Now()
	_, span := s.tracer.StartMemorySearch(ctx, query.RoomID, query.Count)
	defer span.End()

	results, err := s.searchMemories(ctx, query)

	s.tracer.AddMemoryResults(span, len(results))
	if s.metrics != nil {
		s.metrics.RecordMemorySearch(query.Table, time.Since(start))
	}
	return results, err
}

func (s *Subsystem) searchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	if s.index != nil {
		results, err := s.index.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		// Fall through to the adapter on an index failure: search degrades to
		// brute force rather than failing the caller outright.
	}
	return s.adapter.SearchMemories(ctx, query)
}

func (s *Subsystem) embed(ctx context.Context, rt ModelCaller, text string) ([]float32, error) {
	result, err := rt.UseModel(ctx, content.ModelTextEmbedding, content.ModelParams{"text": text})
	if err != nil {
		return nil, err
	}
	emb, ok := result["embedding"].([]float32)
	if !ok {
		return nil, fmt.Errorf("embedding handler returned no []float32 under \"embedding\"")
	}
	if len(emb) != s.dimension {
		return nil, fmt.Errorf("embedding dimension %d does not match declared dimension %d", len(emb), s.dimension)
	}
	return emb, nil
}

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/relaywire/agentcore/pkg/content"
)

// Index is an accelerated similarity search layer backed by chromem-go's
// embedded vector database, one collection per memory table. It is an
// optional companion to storage.Adapter's own (typically brute-force)
// SearchMemories: when present, Subsystem.SearchMemories consults it first.
//
// chromem-go computes its own embeddings by default; since the runtime
// already supplies embeddings via useModel, collections are created with a
// passthrough embedding function that always returns an error: documents
// must carry their own embedding, so the model dispatcher remains the single
// source of truth for embeddings.
type Index struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewIndex builds an empty, in-process Index.
func NewIndex() *Index {
	return &Index{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

func passthroughEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: passthrough collection requires documents to carry their own embedding")
}

func (i *Index) collection(table string) (*chromem.Collection, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.collections[table]; ok {
		return c, nil
	}
	c, err := i.db.CreateCollection(table, nil, passthroughEmbeddingFunc)
	if err != nil {
		return nil, err
	}
	i.collections[table] = c
	return c, nil
}

// Add indexes mem's embedding under table so it becomes searchable.
func (i *Index) Add(ctx context.Context, table string, mem *content.Memory) error {
	c, err := i.collection(table)
	if err != nil {
		return err
	}
	doc := chromem.Document{
		ID:        mem.ID,
		Content:   mem.Content.Text,
		Embedding: mem.Embedding,
		Metadata: map[string]string{
			"roomId": mem.RoomID,
		},
	}
	return c.AddDocument(ctx, doc)
}

// Search queries the collection named by query.Table (default "messages")
// for the k nearest neighbours of query.Embedding, filtering by room and
// match threshold, and returns them as content.Memory with Similarity
// populated, ordered by similarity descending.
func (i *Index) Search(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	table := query.Table
	if table == "" {
		table = "messages"
	}

	i.mu.Lock()
	c, ok := i.collections[table]
	i.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chromem: no collection for table %q", table)
	}

	n := query.Count
	if n <= 0 {
		n = 10
	}
	if docCount := c.Count(); n > docCount {
		n = docCount
	}
	if n == 0 {
		return nil, nil
	}

	var where map[string]string
	if query.RoomID != "" {
		where = map[string]string{"roomId": query.RoomID}
	}

	results, err := c.QueryEmbedding(ctx, query.Embedding, n, where, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*content.Memory, 0, len(results))
	for _, r := range results {
		if r.Similarity < query.MatchThreshold {
			continue
		}
		out = append(out, &content.Memory{
			ID:         r.ID,
			Content:    content.Content{Text: r.Content},
			RoomID:     r.Metadata["roomId"],
			Embedding:  r.Embedding,
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

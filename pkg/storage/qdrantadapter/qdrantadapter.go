// Package qdrantadapter is the second reference storage.Adapter: a remote,
// vector-database-backed adapter exercising the contract against a real
// Qdrant instance via github.com/qdrant/go-client (NewClient/
// CollectionExists/CreateCollection/Upsert/Search). Only the
// memory/embedding surface talks to Qdrant; every other record kind
// (entities, rooms, worlds, tasks, relationships, cache, agent rows) has no
// natural vector-database representation and is delegated to an embedded
// in-memory adapter.
package qdrantadapter

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage"
	"github.com/relaywire/agentcore/pkg/storage/memadapter"
)

// Config configures the Qdrant connection.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "memories"
	}
}

// Adapter is a storage.Adapter whose memory operations are backed by Qdrant
// and whose remaining operations delegate to an in-memory adapter.
type Adapter struct {
	*memadapter.Adapter
	client       *qdrant.Client
	collection   string
	embeddingDim int
}

// Open connects to Qdrant and returns a ready Adapter. The collection is
// created lazily on the first memory write once the embedding dimension is
// known.
func Open(cfg Config) (*Adapter, error) {
	cfg.setDefaults()

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, storage.NewError("Open", storage.NotReady,
			fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err))
	}

	return &Adapter{
		Adapter:    memadapter.New(),
		client:     client,
		collection: cfg.Collection,
	}, nil
}

func (a *Adapter) ensureCollection(ctx context.Context, dim int) error {
	exists, err := a.client.CollectionExists(ctx, a.collection)
	if err != nil {
		return storage.NewError("ensureCollection", storage.Transient, err)
	}
	if exists {
		return nil
	}
	err = a.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: a.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return storage.NewError("ensureCollection", storage.Transient, err)
	}
	return nil
}

// CreateMemory stores the memory in the in-memory system of record and, when
// it has an embedding, upserts that into Qdrant under the memory id, with the
// table, room, entity and text stashed in the point payload. SearchMemories
// still rehydrates hits from the system of record, not from the payload.
func (a *Adapter) CreateMemory(ctx context.Context, m *content.Memory, table string) (*content.Memory, error) {
	if table == "" {
		table = "messages"
	}
	if _, err := a.Adapter.CreateMemory(ctx, m, table); err != nil {
		return nil, err
	}
	if len(m.Embedding) == 0 {
		return m, nil
	}
	if err := a.ensureCollection(ctx, len(m.Embedding)); err != nil {
		return nil, err
	}

	payload := map[string]*qdrant.Value{
		"table":    mustValue(table),
		"roomId":   mustValue(m.RoomID),
		"entityId": mustValue(m.EntityID),
		"text":     mustValue(m.Content.Text),
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(m.ID),
		Vectors: qdrant.NewVectors(m.Embedding...),
		Payload: payload,
	}
	_, err := a.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: a.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return nil, storage.NewError("CreateMemory", storage.Transient, err)
	}
	return m, nil
}

func mustValue(s string) *qdrant.Value {
	v, _ := qdrant.NewValue(s)
	return v
}

// SearchMemories runs the similarity search against Qdrant and rehydrates
// full records from the in-memory system-of-record by id.
func (a *Adapter) SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	if len(query.Embedding) == 0 {
		return a.Adapter.SearchMemories(ctx, query)
	}

	limit := uint64(query.Count)
	if limit == 0 {
		limit = 10
	}

	var filter *qdrant.Filter
	if query.RoomID != "" {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				{
					ConditionOneOf: &qdrant.Condition_Field{
						Field: &qdrant.FieldCondition{
							Key: "roomId",
							Match: &qdrant.Match{
								MatchValue: &qdrant.Match_Keyword{Keyword: query.RoomID},
							},
						},
					},
				},
			},
		}
	}

	pointsClient := a.client.GetPointsClient()
	result, err := pointsClient.Search(ctx, &qdrant.SearchPoints{
		CollectionName: a.collection,
		Vector:         query.Embedding,
		Limit:          limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, storage.NewError("SearchMemories", storage.Transient, err)
	}

	out := make([]*content.Memory, 0, len(result.Result))
	for _, point := range result.Result {
		if point.Score < query.MatchThreshold {
			continue
		}
		id := pointID(point.Id)
		if id == "" {
			continue
		}
		mems, err := a.Adapter.GetMemories(ctx, content.MemoryFilter{RoomID: query.RoomID, Table: query.Table})
		if err != nil {
			continue
		}
		for _, m := range mems {
			if m.ID != id {
				continue
			}
			clone := *m
			clone.Similarity = point.Score
			out = append(out, &clone)
		}
	}
	return out, nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}

// DeleteMemory removes the record from both the in-memory system of record
// and the Qdrant collection.
func (a *Adapter) DeleteMemory(ctx context.Context, id, table string) error {
	if err := a.Adapter.DeleteMemory(ctx, id, table); err != nil {
		return err
	}
	_, err := a.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: a.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{qdrant.NewID(id)},
				},
			},
		},
	})
	if err != nil {
		return storage.NewError("DeleteMemory", storage.Transient, err)
	}
	return nil
}

// IsReady additionally checks that the Qdrant collection is reachable.
func (a *Adapter) IsReady(ctx context.Context) bool {
	if !a.Adapter.IsReady(ctx) {
		return false
	}
	_, err := a.client.CollectionExists(ctx, a.collection)
	return err == nil
}

// Close releases both the Qdrant client and the in-memory delegate.
func (a *Adapter) Close() error {
	a.client.Close()
	return a.Adapter.Close()
}

// Package storage defines the Adapter contract the runtime consumes for all
// persistence, and ships reference implementations exercising it: an
// in-memory adapter, a sqlite-backed adapter, and a remote-vector-database
// adapter. Every other runtime component depends only on the Adapter
// interface; concrete storage engines are plugged in at startup.
package storage

import (
	"context"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
)

// RelationshipFilter narrows a relationship lookup.
type RelationshipFilter struct {
	AgentID        string
	SourceEntityID string
	TargetEntityID string
	Tags           []string
}

// TaskFilter narrows a task listing.
type TaskFilter struct {
	AgentID string
	RoomID  string
	WorldID string
	Name    string
	Tags    []string
}

// Agent is the adapter's row for a running agent configuration; the core
// treats its fields as opaque beyond the id.
type Agent struct {
	ID       string
	Name     string
	Settings map[string]any
}

// Adapter is the single persistence contract the core consumes. All
// operations may fail with an *AdapterError carrying a retryable or
// non-retryable Kind; the adapter implements its own retry/backoff for
// Transient failures.
type Adapter interface {
	// Entities
	CreateEntity(ctx context.Context, e *content.Entity) error
	GetEntityByID(ctx context.Context, id string) (*content.Entity, error)
	GetEntitiesByIDs(ctx context.Context, ids []string) ([]*content.Entity, error)
	UpdateEntity(ctx context.Context, e *content.Entity) error
	GetEntitiesForRoom(ctx context.Context, roomID string) ([]*content.Entity, error)

	// Components
	CreateComponent(ctx context.Context, c *content.Component) error
	GetComponent(ctx context.Context, entityID, componentType string, scope ComponentScope) (*content.Component, error)
	UpdateComponent(ctx context.Context, c *content.Component) error
	DeleteComponent(ctx context.Context, id string) error

	// Rooms
	CreateRoom(ctx context.Context, r *content.Room) error
	GetRoom(ctx context.Context, id string) (*content.Room, error)
	GetRooms(ctx context.Context, worldID string) ([]*content.Room, error)
	UpdateRoom(ctx context.Context, r *content.Room) error
	DeleteRoom(ctx context.Context, id string) error

	// Worlds
	CreateWorld(ctx context.Context, w *content.World) error
	GetWorld(ctx context.Context, id string) (*content.World, error)
	GetAllWorlds(ctx context.Context, agentID string) ([]*content.World, error)
	UpdateWorld(ctx context.Context, w *content.World) error
	DeleteWorld(ctx context.Context, id string) error

	// Participants
	AddParticipant(ctx context.Context, roomID, entityID string) error
	RemoveParticipant(ctx context.Context, roomID, entityID string) error
	GetParticipantsForRoom(ctx context.Context, roomID string) ([]string, error)
	GetParticipantsForEntity(ctx context.Context, entityID string) ([]string, error)
	GetParticipantState(ctx context.Context, roomID, entityID string) (content.ParticipantState, error)
	SetParticipantState(ctx context.Context, roomID, entityID string, state content.ParticipantState) error

	// Memories
	CreateMemory(ctx context.Context, m *content.Memory, table string) (*content.Memory, error)
	GetMemories(ctx context.Context, filter content.MemoryFilter) ([]*content.Memory, error)
	SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error)
	UpdateMemory(ctx context.Context, m *content.Memory, table string) error
	DeleteMemory(ctx context.Context, id, table string) error
	DeleteAllMemoriesForRoom(ctx context.Context, roomID, table string) error

	// Relationships
	CreateRelationship(ctx context.Context, r *content.Relationship) error
	GetRelationships(ctx context.Context, filter RelationshipFilter) ([]*content.Relationship, error)
	GetRelationship(ctx context.Context, agentID, sourceID, targetID string) (*content.Relationship, error)
	UpdateRelationship(ctx context.Context, r *content.Relationship) error

	// Tasks
	CreateTask(ctx context.Context, t *content.Task) error
	GetTask(ctx context.Context, id string) (*content.Task, error)
	GetTasksByName(ctx context.Context, agentID, name string) ([]*content.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]*content.Task, error)
	UpdateTask(ctx context.Context, t *content.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Cache
	GetCache(ctx context.Context, key string) ([]byte, bool, error)
	SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteCache(ctx context.Context, key string) error

	// Agent row
	GetAgent(ctx context.Context, id string) (*Agent, error)
	UpsertAgent(ctx context.Context, a *Agent) error

	// Embedding dimension is fixed at startup; mismatches reject.
	EnsureEmbeddingDimension(ctx context.Context, n int) error

	IsReady(ctx context.Context) bool
	WaitForReady(ctx context.Context, timeout time.Duration) error

	Close() error
}

// ComponentScope narrows a component lookup to a world/room/source-entity.
// Zero-value fields are treated as unconstrained.
type ComponentScope struct {
	WorldID        string
	RoomID         string
	SourceEntityID string
}

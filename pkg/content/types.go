// Package content defines the shared data model for the agent runtime:
// messages and memories, entities, components, relationships, rooms and
// worlds, and the contracts (Action, Provider, Evaluator, Service,
// ModelHandler) that plugins implement. Most other packages in this module
// depend on content; content depends on nothing but identity and the
// standard library, so it never imports back from plugin, plan, state,
// model, task, or runtime.
package content

import (
	"time"

	"github.com/relaywire/agentcore/pkg/identity"
)

// MemoryKind tags what a memory record represents.
type MemoryKind string

const (
	KindMessage     MemoryKind = "message"
	KindDocument    MemoryKind = "document"
	KindFragment    MemoryKind = "fragment"
	KindDescription MemoryKind = "description"
	KindCustom      MemoryKind = "custom"
)

// MemoryScope controls who can see a memory.
type MemoryScope string

const (
	ScopeShared  MemoryScope = "shared"
	ScopePrivate MemoryScope = "private"
	ScopeRoom    MemoryScope = "room"
)

// MemoryMetadata carries the kind/scope tags and any attachment metadata
// produced during ingestion.
type MemoryMetadata struct {
	Kind  MemoryKind     `json:"kind,omitempty"`
	Scope MemoryScope    `json:"scope,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// Attachment references an out-of-band payload (a file, an image) carried
// alongside a message's content.
type Attachment struct {
	ID       string `json:"id"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Content is the open record carried by every message. Fields beyond the
// ones named here are permitted and treated as opaque by the core; plugins
// may stash additional data under arbitrary keys.
type Content struct {
	Text        string         `json:"text"`
	Thought     string         `json:"thought,omitempty"`
	Actions     []string       `json:"actions,omitempty"`
	Providers   []string       `json:"providers,omitempty"`
	Source      string         `json:"source,omitempty"`
	InReplyTo   string         `json:"inReplyTo,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Memory is the fundamental record: a message authored by an entity, or any
// other piece of content the runtime has chosen to persist (a document
// fragment, a reflection, a summary).
type Memory struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entityId"`
	AgentID   string    `json:"agentId"`
	RoomID    string    `json:"roomId"`
	WorldID   string    `json:"worldId,omitempty"`
	Content   Content   `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	// Unique marks a memory as not a duplicate of an existing one. Dedup is
	// defined as a content-hash match (see Hash), not embedding distance:
	// it is cheap, deterministic, and doesn't require an embedding to have
	// been computed yet.
	Unique     bool            `json:"unique"`
	Similarity float32         `json:"similarity,omitempty"`
	Metadata   *MemoryMetadata `json:"metadata,omitempty"`
}

// Message is an alias for Memory: a "Message / Memory" record is a single
// type, read on ingress and written on every agent utterance.
type Message = Memory

// Hash returns the content-hash used to decide whether a memory is a
// duplicate: sha256 over the message text plus the entity and room it came
// from. Two memories with the same hash are considered the same utterance
// even if one has an embedding and the other does not.
func (m *Memory) Hash() string {
	return contentHash(m.Content.Text, m.EntityID, m.RoomID)
}

// NewMemory builds a Memory with a fresh id and CreatedAt set to now.
func NewMemory(entityID, agentID, roomID string, c Content) *Memory {
	return &Memory{
		ID:        identity.New(),
		EntityID:  entityID,
		AgentID:   agentID,
		RoomID:    roomID,
		Content:   c,
		CreatedAt: time.Now(),
		Unique:    true,
	}
}

// Entity represents a user, an agent, or any addressable participant.
type Entity struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agentId"`
	Names      []string       `json:"names"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Components []Component    `json:"components,omitempty"`
}

// CanonicalName returns the first (canonical) alias, or "" if the entity has
// no names.
func (e *Entity) CanonicalName() string {
	if len(e.Names) == 0 {
		return ""
	}
	return e.Names[0]
}

// Component is a typed data blob attached to an entity. Entities are a
// bag-of-components, so new data shapes can be introduced without a schema
// migration.
type Component struct {
	ID             string         `json:"id"`
	EntityID       string         `json:"entityId"`
	AgentID        string         `json:"agentId"`
	WorldID        string         `json:"worldId,omitempty"`
	RoomID         string         `json:"roomId,omitempty"`
	SourceEntityID string         `json:"sourceEntityId,omitempty"`
	Type           string         `json:"type"`
	Data           map[string]any `json:"data,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Relationship is a directed edge between two entities, scoped to an agent.
type Relationship struct {
	ID               string         `json:"id"`
	AgentID          string         `json:"agentId"`
	SourceEntityID   string         `json:"sourceEntityId"`
	TargetEntityID   string         `json:"targetEntityId"`
	Tags             []string       `json:"tags,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	InteractionCount int            `json:"interactionCount"`
	LastInteraction  time.Time      `json:"lastInteraction"`
}

// RoomType enumerates the kinds of conversation channels the core models.
type RoomType string

const (
	RoomSelf     RoomType = "SELF"
	RoomDM       RoomType = "DM"
	RoomGroup    RoomType = "GROUP"
	RoomVoiceDM  RoomType = "VOICE_DM"
	RoomVoiceGrp RoomType = "VOICE_GROUP"
	RoomFeed     RoomType = "FEED"
	RoomThread   RoomType = "THREAD"
	RoomWorld    RoomType = "WORLD"
	RoomForum    RoomType = "FORUM"
)

// Room is a conversation channel.
type Room struct {
	ID       string         `json:"id"`
	Source   string         `json:"source"`
	Type     RoomType       `json:"type"`
	WorldID  string         `json:"worldId,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WorldRole is an entity's standing within a world.
type WorldRole string

const (
	RoleOwner WorldRole = "OWNER"
	RoleAdmin WorldRole = "ADMIN"
	RoleNone  WorldRole = "NONE"
)

// World is a container of rooms (a server, a guild).
type World struct {
	ID       string               `json:"id"`
	AgentID  string               `json:"agentId"`
	ServerID string               `json:"serverId"`
	Metadata map[string]any       `json:"metadata,omitempty"`
	Roles    map[string]WorldRole `json:"roles,omitempty"`
}

// ParticipantState is a room participant's follow/mute state.
type ParticipantState string

const (
	ParticipantFollowed ParticipantState = "FOLLOWED"
	ParticipantMuted    ParticipantState = "MUTED"
	ParticipantNone     ParticipantState = ""
)

// contentHash is the dedup key described on Memory.Hash.
func contentHash(text, entityID, roomID string) string {
	return sha256Hex(text + "\x00" + entityID + "\x00" + roomID)
}

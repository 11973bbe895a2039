// Package memadapter is the in-memory reference implementation of
// storage.Adapter, built on a mutex-protected map per record kind. It is
// always ready, never transient, and is the default adapter for tests and
// for runtimes that don't need durability.
package memadapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage"
)

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// Adapter is a sync.RWMutex-protected, map-backed storage.Adapter.
type Adapter struct {
	mu sync.RWMutex

	entities      map[string]*content.Entity
	components    map[string]*content.Component
	rooms         map[string]*content.Room
	worlds        map[string]*content.World
	participants  map[string]map[string]content.ParticipantState // roomID -> entityID -> state
	memories      map[string]map[string]*content.Memory          // table -> id -> memory
	relationships map[string]*content.Relationship
	tasks         map[string]*content.Task
	cache         map[string]cacheEntry
	agents        map[string]*storage.Agent

	embeddingDim int
}

// New returns a ready-to-use in-memory adapter.
func New() *Adapter {
	return &Adapter{
		entities:      map[string]*content.Entity{},
		components:    map[string]*content.Component{},
		rooms:         map[string]*content.Room{},
		worlds:        map[string]*content.World{},
		participants:  map[string]map[string]content.ParticipantState{},
		memories:      map[string]map[string]*content.Memory{},
		relationships: map[string]*content.Relationship{},
		tasks:         map[string]*content.Task{},
		cache:         map[string]cacheEntry{},
		agents:        map[string]*storage.Agent{},
	}
}

// --- Entities ---

func (a *Adapter) CreateEntity(ctx context.Context, e *content.Entity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entities[e.ID] = e
	return nil
}

func (a *Adapter) GetEntityByID(ctx context.Context, id string) (*content.Entity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.entities[id]
	if !ok {
		return nil, storage.NewError("GetEntityByID", storage.NotFound, nil)
	}
	return e, nil
}

func (a *Adapter) GetEntitiesByIDs(ctx context.Context, ids []string) ([]*content.Entity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*content.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := a.entities[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *Adapter) UpdateEntity(ctx context.Context, e *content.Entity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.entities[e.ID]; !ok {
		return storage.NewError("UpdateEntity", storage.NotFound, nil)
	}
	a.entities[e.ID] = e
	return nil
}

func (a *Adapter) GetEntitiesForRoom(ctx context.Context, roomID string) ([]*content.Entity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Entity
	for entityID := range a.participants[roomID] {
		if e, ok := a.entities[entityID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Components ---

func (a *Adapter) CreateComponent(ctx context.Context, c *content.Component) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.components[c.ID] = c
	return nil
}

func (a *Adapter) GetComponent(ctx context.Context, entityID, componentType string, scope storage.ComponentScope) (*content.Component, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.components {
		if c.EntityID != entityID || c.Type != componentType {
			continue
		}
		if scope.WorldID != "" && c.WorldID != scope.WorldID {
			continue
		}
		if scope.RoomID != "" && c.RoomID != scope.RoomID {
			continue
		}
		if scope.SourceEntityID != "" && c.SourceEntityID != scope.SourceEntityID {
			continue
		}
		return c, nil
	}
	return nil, storage.NewError("GetComponent", storage.NotFound, nil)
}

func (a *Adapter) UpdateComponent(ctx context.Context, c *content.Component) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.components[c.ID]; !ok {
		return storage.NewError("UpdateComponent", storage.NotFound, nil)
	}
	a.components[c.ID] = c
	return nil
}

func (a *Adapter) DeleteComponent(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.components, id)
	return nil
}

// --- Rooms ---

func (a *Adapter) CreateRoom(ctx context.Context, r *content.Room) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rooms[r.ID] = r
	return nil
}

func (a *Adapter) GetRoom(ctx context.Context, id string) (*content.Room, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.rooms[id]
	if !ok {
		return nil, storage.NewError("GetRoom", storage.NotFound, nil)
	}
	return r, nil
}

func (a *Adapter) GetRooms(ctx context.Context, worldID string) ([]*content.Room, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Room
	for _, r := range a.rooms {
		if r.WorldID == worldID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) UpdateRoom(ctx context.Context, r *content.Room) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.rooms[r.ID]; !ok {
		return storage.NewError("UpdateRoom", storage.NotFound, nil)
	}
	a.rooms[r.ID] = r
	return nil
}

func (a *Adapter) DeleteRoom(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.rooms, id)
	delete(a.participants, id)
	return nil
}

// --- Worlds ---

func (a *Adapter) CreateWorld(ctx context.Context, w *content.World) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.worlds[w.ID] = w
	return nil
}

func (a *Adapter) GetWorld(ctx context.Context, id string) (*content.World, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	w, ok := a.worlds[id]
	if !ok {
		return nil, storage.NewError("GetWorld", storage.NotFound, nil)
	}
	return w, nil
}

func (a *Adapter) GetAllWorlds(ctx context.Context, agentID string) ([]*content.World, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.World
	for _, w := range a.worlds {
		if w.AgentID == agentID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) UpdateWorld(ctx context.Context, w *content.World) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.worlds[w.ID]; !ok {
		return storage.NewError("UpdateWorld", storage.NotFound, nil)
	}
	a.worlds[w.ID] = w
	return nil
}

func (a *Adapter) DeleteWorld(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.worlds, id)
	return nil
}

// --- Participants ---

func (a *Adapter) AddParticipant(ctx context.Context, roomID, entityID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.participants[roomID] == nil {
		a.participants[roomID] = map[string]content.ParticipantState{}
	}
	if _, exists := a.participants[roomID][entityID]; !exists {
		a.participants[roomID][entityID] = content.ParticipantNone
	}
	return nil
}

func (a *Adapter) RemoveParticipant(ctx context.Context, roomID, entityID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.participants[roomID], entityID)
	return nil
}

func (a *Adapter) GetParticipantsForRoom(ctx context.Context, roomID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []string
	for id := range a.participants[roomID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (a *Adapter) GetParticipantsForEntity(ctx context.Context, entityID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []string
	for roomID, m := range a.participants {
		if _, ok := m[entityID]; ok {
			out = append(out, roomID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (a *Adapter) GetParticipantState(ctx context.Context, roomID, entityID string) (content.ParticipantState, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.participants[roomID]
	if !ok {
		return content.ParticipantNone, storage.NewError("GetParticipantState", storage.NotFound, nil)
	}
	state, ok := m[entityID]
	if !ok {
		return content.ParticipantNone, storage.NewError("GetParticipantState", storage.NotFound, nil)
	}
	return state, nil
}

func (a *Adapter) SetParticipantState(ctx context.Context, roomID, entityID string, state content.ParticipantState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.participants[roomID] == nil {
		a.participants[roomID] = map[string]content.ParticipantState{}
	}
	a.participants[roomID][entityID] = state
	return nil
}

// --- Memories ---

func (a *Adapter) CreateMemory(ctx context.Context, m *content.Memory, table string) (*content.Memory, error) {
	if table == "" {
		table = "messages"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.memories[table] == nil {
		a.memories[table] = map[string]*content.Memory{}
	}
	a.memories[table][m.ID] = m
	return m, nil
}

func (a *Adapter) GetMemories(ctx context.Context, filter content.MemoryFilter) ([]*content.Memory, error) {
	table := filter.Table
	if table == "" {
		table = "messages"
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Memory
	for _, m := range a.memories[table] {
		if filter.RoomID != "" && m.RoomID != filter.RoomID {
			continue
		}
		if filter.Unique && !m.Unique {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if filter.Count > 0 && len(out) > filter.Count {
		out = out[len(out)-filter.Count:]
	}
	return out, nil
}

// SearchMemories performs a brute-force cosine-similarity scan. It is a
// reference implementation: correctness over throughput, since real vector
// search belongs in a dedicated adapter (see storage/qdrantadapter).
func (a *Adapter) SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	table := query.Table
	if table == "" {
		table = "messages"
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	type scored struct {
		m   *content.Memory
		sim float32
	}
	var candidates []scored
	for _, m := range a.memories[table] {
		if query.RoomID != "" && m.RoomID != query.RoomID {
			continue
		}
		if len(m.Embedding) == 0 || len(query.Embedding) == 0 {
			continue
		}
		sim := cosineSimilarity(m.Embedding, query.Embedding)
		if sim < query.MatchThreshold {
			continue
		}
		clone := *m
		clone.Similarity = sim
		candidates = append(candidates, scored{m: &clone, sim: sim})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].sim > candidates[j].sim })

	count := query.Count
	if count <= 0 || count > len(candidates) {
		count = len(candidates)
	}
	out := make([]*content.Memory, count)
	for i := 0; i < count; i++ {
		out[i] = candidates[i].m
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (sqrt(na) * sqrt(nb)))
}

func sqrt(f float64) float64 {
	if f <= 0 {
		return 0
	}
	x := f
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + f/x)
	}
	return x
}

func (a *Adapter) UpdateMemory(ctx context.Context, m *content.Memory, table string) error {
	if table == "" {
		table = "messages"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.memories[table] == nil {
		return storage.NewError("UpdateMemory", storage.NotFound, nil)
	}
	if _, ok := a.memories[table][m.ID]; !ok {
		return storage.NewError("UpdateMemory", storage.NotFound, nil)
	}
	a.memories[table][m.ID] = m
	return nil
}

func (a *Adapter) DeleteMemory(ctx context.Context, id, table string) error {
	if table == "" {
		table = "messages"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.memories[table], id)
	return nil
}

func (a *Adapter) DeleteAllMemoriesForRoom(ctx context.Context, roomID, table string) error {
	if table == "" {
		table = "messages"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, m := range a.memories[table] {
		if m.RoomID == roomID {
			delete(a.memories[table], id)
		}
	}
	return nil
}

// --- Relationships ---

func (a *Adapter) CreateRelationship(ctx context.Context, r *content.Relationship) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relationships[r.ID] = r
	return nil
}

func (a *Adapter) GetRelationships(ctx context.Context, filter storage.RelationshipFilter) ([]*content.Relationship, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Relationship
	for _, r := range a.relationships {
		if filter.AgentID != "" && r.AgentID != filter.AgentID {
			continue
		}
		if filter.SourceEntityID != "" && r.SourceEntityID != filter.SourceEntityID {
			continue
		}
		if filter.TargetEntityID != "" && r.TargetEntityID != filter.TargetEntityID {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(r.Tags, filter.Tags) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func hasAnyTag(have, want []string) bool {
	set := map[string]bool{}
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if set[t] {
			return true
		}
	}
	return false
}

func (a *Adapter) GetRelationship(ctx context.Context, agentID, sourceID, targetID string) (*content.Relationship, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, r := range a.relationships {
		if r.AgentID == agentID && r.SourceEntityID == sourceID && r.TargetEntityID == targetID {
			return r, nil
		}
	}
	return nil, storage.NewError("GetRelationship", storage.NotFound, nil)
}

func (a *Adapter) UpdateRelationship(ctx context.Context, r *content.Relationship) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.relationships[r.ID]; !ok {
		return storage.NewError("UpdateRelationship", storage.NotFound, nil)
	}
	a.relationships[r.ID] = r
	return nil
}

// --- Tasks ---

func (a *Adapter) CreateTask(ctx context.Context, t *content.Task) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks[t.ID] = t
	return nil
}

func (a *Adapter) GetTask(ctx context.Context, id string) (*content.Task, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tasks[id]
	if !ok {
		return nil, storage.NewError("GetTask", storage.NotFound, nil)
	}
	return t, nil
}

func (a *Adapter) GetTasksByName(ctx context.Context, agentID, name string) ([]*content.Task, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Task
	for _, t := range a.tasks {
		if t.AgentID == agentID && t.Name == name {
			out = append(out, t)
		}
	}
	return out, nil
}

func (a *Adapter) ListTasks(ctx context.Context, filter storage.TaskFilter) ([]*content.Task, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []*content.Task
	for _, t := range a.tasks {
		if filter.AgentID != "" && t.AgentID != filter.AgentID {
			continue
		}
		if filter.RoomID != "" && t.RoomID != filter.RoomID {
			continue
		}
		if filter.WorldID != "" && t.WorldID != filter.WorldID {
			continue
		}
		if filter.Name != "" && t.Name != filter.Name {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) UpdateTask(ctx context.Context, t *content.Task) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.tasks[t.ID]; !ok {
		return storage.NewError("UpdateTask", storage.NotFound, nil)
	}
	a.tasks[t.ID] = t
	return nil
}

func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tasks, id)
	return nil
}

// --- Cache ---

func (a *Adapter) GetCache(ctx context.Context, key string) ([]byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	entry, ok := a.cache[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (a *Adapter) SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	a.cache[key] = cacheEntry{value: value, expires: expires}
	return nil
}

func (a *Adapter) DeleteCache(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cache, key)
	return nil
}

// --- Agent row ---

func (a *Adapter) GetAgent(ctx context.Context, id string) (*storage.Agent, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ag, ok := a.agents[id]
	if !ok {
		return nil, storage.NewError("GetAgent", storage.NotFound, nil)
	}
	return ag, nil
}

func (a *Adapter) UpsertAgent(ctx context.Context, ag *storage.Agent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.agents[ag.ID] = ag
	return nil
}

// --- Embedding dimension, readiness ---

func (a *Adapter) EnsureEmbeddingDimension(ctx context.Context, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.embeddingDim == 0 {
		a.embeddingDim = n
		return nil
	}
	if a.embeddingDim != n {
		return storage.NewError("EnsureEmbeddingDimension", storage.Conflict, nil)
	}
	return nil
}

func (a *Adapter) IsReady(ctx context.Context) bool { return true }

func (a *Adapter) WaitForReady(ctx context.Context, timeout time.Duration) error { return nil }

func (a *Adapter) Close() error { return nil }

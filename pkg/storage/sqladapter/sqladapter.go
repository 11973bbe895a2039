// Package sqladapter is the reference relational implementation of
// storage.Adapter: database/sql with an explicit connection-pool
// configuration and a startup ping, backed here by
// github.com/mattn/go-sqlite3. Each record kind gets a narrow table keyed
// by id with the record's JSON encoding in a blob column — simple enough to
// exercise the Adapter contract end to end without hand-maintaining a full
// relational schema for a data model that is still evolving.
package sqladapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage"
)

// Config configures the underlying *sql.DB connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *Config) setDefaults() {
	if c.DSN == "" {
		c.DSN = "file::memory:?cache=shared"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 8
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 30 * time.Minute
	}
}

// Adapter is a sqlite-backed storage.Adapter.
type Adapter struct {
	db           *sql.DB
	embeddingDim int
}

// Open opens (creating if necessary) the sqlite database described by cfg
// and runs the schema migration.
func Open(ctx context.Context, cfg Config) (*Adapter, error) {
	cfg.setDefaults()

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, storage.NewError("Open", storage.Transient, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return nil, storage.NewError("Open", storage.NotReady, err)
	}

	a := &Adapter{db: db}
	if err := a.migrate(ctx); err != nil {
		return nil, storage.NewError("Open", storage.Transient, err)
	}
	return a, nil
}

func (a *Adapter) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities (id TEXT PRIMARY KEY, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS components (id TEXT PRIMARY KEY, entity_id TEXT, type TEXT, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS rooms (id TEXT PRIMARY KEY, world_id TEXT, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS worlds (id TEXT PRIMARY KEY, agent_id TEXT, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS participants (room_id TEXT, entity_id TEXT, state TEXT, PRIMARY KEY (room_id, entity_id))`,
		`CREATE TABLE IF NOT EXISTS memories (id TEXT PRIMARY KEY, tbl TEXT, room_id TEXT, created_at INTEGER, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS relationships (id TEXT PRIMARY KEY, agent_id TEXT, source_id TEXT, target_id TEXT, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS tasks (id TEXT PRIMARY KEY, agent_id TEXT, room_id TEXT, world_id TEXT, name TEXT, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS cache (key TEXT PRIMARY KEY, value BLOB, expires_at INTEGER)`,
		`CREATE TABLE IF NOT EXISTS agents (id TEXT PRIMARY KEY, data BLOB)`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`,
	}
	for _, s := range stmts {
		if _, err := a.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func encode(v any) ([]byte, error) { return json.Marshal(v) }

func decode[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

// --- Entities ---

func (a *Adapter) CreateEntity(ctx context.Context, e *content.Entity) error {
	data, err := encode(e)
	if err != nil {
		return storage.NewError("CreateEntity", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT OR REPLACE INTO entities (id, data) VALUES (?, ?)`, e.ID, data)
	if err != nil {
		return storage.NewError("CreateEntity", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetEntityByID(ctx context.Context, id string) (*content.Entity, error) {
	row := a.db.QueryRowContext(ctx, `SELECT data FROM entities WHERE id = ?`, id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.NewError("GetEntityByID", storage.NotFound, nil)
		}
		return nil, storage.NewError("GetEntityByID", storage.Transient, err)
	}
	e, err := decode[content.Entity](data)
	if err != nil {
		return nil, storage.NewError("GetEntityByID", storage.Conflict, err)
	}
	return &e, nil
}

func (a *Adapter) GetEntitiesByIDs(ctx context.Context, ids []string) ([]*content.Entity, error) {
	out := make([]*content.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := a.GetEntityByID(ctx, id)
		if err != nil {
			if storage.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (a *Adapter) UpdateEntity(ctx context.Context, e *content.Entity) error {
	if _, err := a.GetEntityByID(ctx, e.ID); err != nil {
		return err
	}
	return a.CreateEntity(ctx, e)
}

func (a *Adapter) GetEntitiesForRoom(ctx context.Context, roomID string) ([]*content.Entity, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT entity_id FROM participants WHERE room_id = ?`, roomID)
	if err != nil {
		return nil, storage.NewError("GetEntitiesForRoom", storage.Transient, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storage.NewError("GetEntitiesForRoom", storage.Transient, err)
		}
		ids = append(ids, id)
	}
	return a.GetEntitiesByIDs(ctx, ids)
}

// --- Components ---

func (a *Adapter) CreateComponent(ctx context.Context, c *content.Component) error {
	data, err := encode(c)
	if err != nil {
		return storage.NewError("CreateComponent", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT OR REPLACE INTO components (id, entity_id, type, data) VALUES (?, ?, ?, ?)`,
		c.ID, c.EntityID, c.Type, data)
	if err != nil {
		return storage.NewError("CreateComponent", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetComponent(ctx context.Context, entityID, componentType string, scope storage.ComponentScope) (*content.Component, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT data FROM components WHERE entity_id = ? AND type = ?`, entityID, componentType)
	if err != nil {
		return nil, storage.NewError("GetComponent", storage.Transient, err)
	}
	defer rows.Close()
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("GetComponent", storage.Transient, err)
		}
		c, err := decode[content.Component](data)
		if err != nil {
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
		return &c, nil
	}
	return nil, storage.NewError("GetComponent", storage.NotFound, nil)
}

func (a *Adapter) UpdateComponent(ctx context.Context, c *content.Component) error {
	return a.CreateComponent(ctx, c)
}

func (a *Adapter) DeleteComponent(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, id)
	if err != nil {
		return storage.NewError("DeleteComponent", storage.Transient, err)
	}
	return nil
}

// --- Rooms / Worlds ---

func (a *Adapter) CreateRoom(ctx context.Context, r *content.Room) error {
	data, err := encode(r)
	if err != nil {
		return storage.NewError("CreateRoom", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT OR REPLACE INTO rooms (id, world_id, data) VALUES (?, ?, ?)`, r.ID, r.WorldID, data)
	if err != nil {
		return storage.NewError("CreateRoom", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetRoom(ctx context.Context, id string) (*content.Room, error) {
	row := a.db.QueryRowContext(ctx, `SELECT data FROM rooms WHERE id = ?`, id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.NewError("GetRoom", storage.NotFound, nil)
		}
		return nil, storage.NewError("GetRoom", storage.Transient, err)
	}
	r, err := decode[content.Room](data)
	if err != nil {
		return nil, storage.NewError("GetRoom", storage.Conflict, err)
	}
	return &r, nil
}

func (a *Adapter) GetRooms(ctx context.Context, worldID string) ([]*content.Room, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT data FROM rooms WHERE world_id = ? ORDER BY id`, worldID)
	if err != nil {
		return nil, storage.NewError("GetRooms", storage.Transient, err)
	}
	defer rows.Close()
	var out []*content.Room
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("GetRooms", storage.Transient, err)
		}
		r, err := decode[content.Room](data)
		if err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, nil
}

func (a *Adapter) UpdateRoom(ctx context.Context, r *content.Room) error { return a.CreateRoom(ctx, r) }

func (a *Adapter) DeleteRoom(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return storage.NewError("DeleteRoom", storage.Transient, err)
	}
	_, _ = a.db.ExecContext(ctx, `DELETE FROM participants WHERE room_id = ?`, id)
	return nil
}

func (a *Adapter) CreateWorld(ctx context.Context, w *content.World) error {
	data, err := encode(w)
	if err != nil {
		return storage.NewError("CreateWorld", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT OR REPLACE INTO worlds (id, agent_id, data) VALUES (?, ?, ?)`, w.ID, w.AgentID, data)
	if err != nil {
		return storage.NewError("CreateWorld", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetWorld(ctx context.Context, id string) (*content.World, error) {
	row := a.db.QueryRowContext(ctx, `SELECT data FROM worlds WHERE id = ?`, id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.NewError("GetWorld", storage.NotFound, nil)
		}
		return nil, storage.NewError("GetWorld", storage.Transient, err)
	}
	w, err := decode[content.World](data)
	if err != nil {
		return nil, storage.NewError("GetWorld", storage.Conflict, err)
	}
	return &w, nil
}

func (a *Adapter) GetAllWorlds(ctx context.Context, agentID string) ([]*content.World, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT data FROM worlds WHERE agent_id = ? ORDER BY id`, agentID)
	if err != nil {
		return nil, storage.NewError("GetAllWorlds", storage.Transient, err)
	}
	defer rows.Close()
	var out []*content.World
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("GetAllWorlds", storage.Transient, err)
		}
		w, err := decode[content.World](data)
		if err != nil {
			continue
		}
		out = append(out, &w)
	}
	return out, nil
}

func (a *Adapter) UpdateWorld(ctx context.Context, w *content.World) error {
	return a.CreateWorld(ctx, w)
}

func (a *Adapter) DeleteWorld(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, id)
	if err != nil {
		return storage.NewError("DeleteWorld", storage.Transient, err)
	}
	return nil
}

// --- Participants ---

func (a *Adapter) AddParticipant(ctx context.Context, roomID, entityID string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO participants (room_id, entity_id, state) VALUES (?, ?, '')`, roomID, entityID)
	if err != nil {
		return storage.NewError("AddParticipant", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) RemoveParticipant(ctx context.Context, roomID, entityID string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM participants WHERE room_id = ? AND entity_id = ?`, roomID, entityID)
	if err != nil {
		return storage.NewError("RemoveParticipant", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetParticipantsForRoom(ctx context.Context, roomID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT entity_id FROM participants WHERE room_id = ? ORDER BY entity_id`, roomID)
	if err != nil {
		return nil, storage.NewError("GetParticipantsForRoom", storage.Transient, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storage.NewError("GetParticipantsForRoom", storage.Transient, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (a *Adapter) GetParticipantsForEntity(ctx context.Context, entityID string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT room_id FROM participants WHERE entity_id = ? ORDER BY room_id`, entityID)
	if err != nil {
		return nil, storage.NewError("GetParticipantsForEntity", storage.Transient, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storage.NewError("GetParticipantsForEntity", storage.Transient, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (a *Adapter) GetParticipantState(ctx context.Context, roomID, entityID string) (content.ParticipantState, error) {
	row := a.db.QueryRowContext(ctx, `SELECT state FROM participants WHERE room_id = ? AND entity_id = ?`, roomID, entityID)
	var state string
	if err := row.Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return content.ParticipantNone, storage.NewError("GetParticipantState", storage.NotFound, nil)
		}
		return content.ParticipantNone, storage.NewError("GetParticipantState", storage.Transient, err)
	}
	return content.ParticipantState(state), nil
}

func (a *Adapter) SetParticipantState(ctx context.Context, roomID, entityID string, state content.ParticipantState) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO participants (room_id, entity_id, state) VALUES (?, ?, ?)
		 ON CONFLICT(room_id, entity_id) DO UPDATE SET state = excluded.state`,
		roomID, entityID, string(state))
	if err != nil {
		return storage.NewError("SetParticipantState", storage.Transient, err)
	}
	return nil
}

// --- Memories ---

func (a *Adapter) CreateMemory(ctx context.Context, m *content.Memory, table string) (*content.Memory, error) {
	if table == "" {
		table = "messages"
	}
	data, err := encode(m)
	if err != nil {
		return nil, storage.NewError("CreateMemory", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO memories (id, tbl, room_id, created_at, data) VALUES (?, ?, ?, ?, ?)`,
		m.ID, table, m.RoomID, m.CreatedAt.UnixNano(), data)
	if err != nil {
		return nil, storage.NewError("CreateMemory", storage.Transient, err)
	}
	return m, nil
}

func (a *Adapter) GetMemories(ctx context.Context, filter content.MemoryFilter) ([]*content.Memory, error) {
	table := filter.Table
	if table == "" {
		table = "messages"
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT data FROM memories WHERE tbl = ? AND (? = '' OR room_id = ?) ORDER BY created_at ASC`,
		table, filter.RoomID, filter.RoomID)
	if err != nil {
		return nil, storage.NewError("GetMemories", storage.Transient, err)
	}
	defer rows.Close()
	var out []*content.Memory
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("GetMemories", storage.Transient, err)
		}
		m, err := decode[content.Memory](data)
		if err != nil {
			continue
		}
		if filter.Unique && !m.Unique {
			continue
		}
		out = append(out, &m)
	}
	if filter.Count > 0 && len(out) > filter.Count {
		out = out[len(out)-filter.Count:]
	}
	return out, nil
}

// SearchMemories loads candidate rows for the room/table and scores them in
// Go, same brute-force approach as memadapter; sqlite has no native vector
// index, and a correctness-first reference adapter doesn't need one.
func (a *Adapter) SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	all, err := a.GetMemories(ctx, content.MemoryFilter{RoomID: query.RoomID, Table: query.Table})
	if err != nil {
		return nil, err
	}
	type scored struct {
		m   *content.Memory
		sim float32
	}
	var candidates []scored
	for _, m := range all {
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
	return float32(dot / (sqrtApprox(na) * sqrtApprox(nb)))
}

func sqrtApprox(f float64) float64 {
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
	row := a.db.QueryRowContext(ctx, `SELECT 1 FROM memories WHERE id = ? AND tbl = ?`, m.ID, table)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return storage.NewError("UpdateMemory", storage.NotFound, nil)
		}
		return storage.NewError("UpdateMemory", storage.Transient, err)
	}
	_, err := a.CreateMemory(ctx, m, table)
	return err
}

func (a *Adapter) DeleteMemory(ctx context.Context, id, table string) error {
	if table == "" {
		table = "messages"
	}
	_, err := a.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ? AND tbl = ?`, id, table)
	if err != nil {
		return storage.NewError("DeleteMemory", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) DeleteAllMemoriesForRoom(ctx context.Context, roomID, table string) error {
	if table == "" {
		table = "messages"
	}
	_, err := a.db.ExecContext(ctx, `DELETE FROM memories WHERE room_id = ? AND tbl = ?`, roomID, table)
	if err != nil {
		return storage.NewError("DeleteAllMemoriesForRoom", storage.Transient, err)
	}
	return nil
}

// --- Relationships ---

func (a *Adapter) CreateRelationship(ctx context.Context, r *content.Relationship) error {
	data, err := encode(r)
	if err != nil {
		return storage.NewError("CreateRelationship", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO relationships (id, agent_id, source_id, target_id, data) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.AgentID, r.SourceEntityID, r.TargetEntityID, data)
	if err != nil {
		return storage.NewError("CreateRelationship", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetRelationships(ctx context.Context, filter storage.RelationshipFilter) ([]*content.Relationship, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT data FROM relationships WHERE (? = '' OR agent_id = ?) AND (? = '' OR source_id = ?) AND (? = '' OR target_id = ?)`,
		filter.AgentID, filter.AgentID, filter.SourceEntityID, filter.SourceEntityID, filter.TargetEntityID, filter.TargetEntityID)
	if err != nil {
		return nil, storage.NewError("GetRelationships", storage.Transient, err)
	}
	defer rows.Close()
	var out []*content.Relationship
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("GetRelationships", storage.Transient, err)
		}
		r, err := decode[content.Relationship](data)
		if err != nil {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(r.Tags, filter.Tags) {
			continue
		}
		out = append(out, &r)
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
	rs, err := a.GetRelationships(ctx, storage.RelationshipFilter{AgentID: agentID, SourceEntityID: sourceID, TargetEntityID: targetID})
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		return nil, storage.NewError("GetRelationship", storage.NotFound, nil)
	}
	return rs[0], nil
}

func (a *Adapter) UpdateRelationship(ctx context.Context, r *content.Relationship) error {
	return a.CreateRelationship(ctx, r)
}

// --- Tasks ---

func (a *Adapter) CreateTask(ctx context.Context, t *content.Task) error {
	data, err := encode(t)
	if err != nil {
		return storage.NewError("CreateTask", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tasks (id, agent_id, room_id, world_id, name, data) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.AgentID, t.RoomID, t.WorldID, t.Name, data)
	if err != nil {
		return storage.NewError("CreateTask", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) GetTask(ctx context.Context, id string) (*content.Task, error) {
	row := a.db.QueryRowContext(ctx, `SELECT data FROM tasks WHERE id = ?`, id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.NewError("GetTask", storage.NotFound, nil)
		}
		return nil, storage.NewError("GetTask", storage.Transient, err)
	}
	t, err := decode[content.Task](data)
	if err != nil {
		return nil, storage.NewError("GetTask", storage.Conflict, err)
	}
	return &t, nil
}

func (a *Adapter) GetTasksByName(ctx context.Context, agentID, name string) ([]*content.Task, error) {
	return a.ListTasks(ctx, storage.TaskFilter{AgentID: agentID, Name: name})
}

func (a *Adapter) ListTasks(ctx context.Context, filter storage.TaskFilter) ([]*content.Task, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT data FROM tasks WHERE (? = '' OR agent_id = ?) AND (? = '' OR room_id = ?) AND (? = '' OR world_id = ?) AND (? = '' OR name = ?) ORDER BY id`,
		filter.AgentID, filter.AgentID, filter.RoomID, filter.RoomID, filter.WorldID, filter.WorldID, filter.Name, filter.Name)
	if err != nil {
		return nil, storage.NewError("ListTasks", storage.Transient, err)
	}
	defer rows.Close()
	var out []*content.Task
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.NewError("ListTasks", storage.Transient, err)
		}
		t, err := decode[content.Task](data)
		if err != nil {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (a *Adapter) UpdateTask(ctx context.Context, t *content.Task) error { return a.CreateTask(ctx, t) }

func (a *Adapter) DeleteTask(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return storage.NewError("DeleteTask", storage.Transient, err)
	}
	return nil
}

// --- Cache ---

func (a *Adapter) GetCache(ctx context.Context, key string) ([]byte, bool, error) {
	row := a.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache WHERE key = ?`, key)
	var value []byte
	var expiresAt int64
	if err := row.Scan(&value, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, storage.NewError("GetCache", storage.Transient, err)
	}
	if expiresAt != 0 && time.Now().UnixNano() > expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

func (a *Adapter) SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO cache (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return storage.NewError("SetCache", storage.Transient, err)
	}
	return nil
}

func (a *Adapter) DeleteCache(ctx context.Context, key string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	if err != nil {
		return storage.NewError("DeleteCache", storage.Transient, err)
	}
	return nil
}

// --- Agent row ---

func (a *Adapter) GetAgent(ctx context.Context, id string) (*storage.Agent, error) {
	row := a.db.QueryRowContext(ctx, `SELECT data FROM agents WHERE id = ?`, id)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.NewError("GetAgent", storage.NotFound, nil)
		}
		return nil, storage.NewError("GetAgent", storage.Transient, err)
	}
	ag, err := decode[storage.Agent](data)
	if err != nil {
		return nil, storage.NewError("GetAgent", storage.Conflict, err)
	}
	return &ag, nil
}

func (a *Adapter) UpsertAgent(ctx context.Context, ag *storage.Agent) error {
	data, err := encode(ag)
	if err != nil {
		return storage.NewError("UpsertAgent", storage.Conflict, err)
	}
	_, err = a.db.ExecContext(ctx, `INSERT OR REPLACE INTO agents (id, data) VALUES (?, ?)`, ag.ID, data)
	if err != nil {
		return storage.NewError("UpsertAgent", storage.Transient, err)
	}
	return nil
}

// --- Embedding dimension, readiness ---

func (a *Adapter) EnsureEmbeddingDimension(ctx context.Context, n int) error {
	row := a.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'embedding_dim'`)
	var v string
	err := row.Scan(&v)
	if err == sql.ErrNoRows {
		_, err := a.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('embedding_dim', ?)`, fmt.Sprint(n))
		if err != nil {
			return storage.NewError("EnsureEmbeddingDimension", storage.Transient, err)
		}
		a.embeddingDim = n
		return nil
	}
	if err != nil {
		return storage.NewError("EnsureEmbeddingDimension", storage.Transient, err)
	}
	if v != fmt.Sprint(n) {
		return storage.NewError("EnsureEmbeddingDimension", storage.Conflict, nil)
	}
	return nil
}

func (a *Adapter) IsReady(ctx context.Context) bool {
	return a.db.PingContext(ctx) == nil
}

func (a *Adapter) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if a.IsReady(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return storage.NewError("WaitForReady", storage.NotReady, nil)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (a *Adapter) Close() error { return a.db.Close() }

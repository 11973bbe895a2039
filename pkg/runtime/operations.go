package runtime

import (
	"context"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/event"
	"github.com/relaywire/agentcore/pkg/plugin"
	"github.com/relaywire/agentcore/pkg/storage"
	"github.com/relaywire/agentcore/pkg/task"
)

// This file carries the part of the Runtime surface that content.Runtime
// deliberately leaves out of the handler-facing interface: full
// entity/room/world/participant/relationship CRUD, task registration, and
// event subscription. Callers that aren't action/provider/evaluator
// handlers (the message-handling driver, plugin Init hooks, transport
// layers) use these directly.

// CreateEntity persists a new entity.
func (r *Runtime) CreateEntity(ctx context.Context, e *content.Entity) error {
	return r.adapter.CreateEntity(ctx, e)
}

// UpdateEntity persists changes to an existing entity.
func (r *Runtime) UpdateEntity(ctx context.Context, e *content.Entity) error {
	return r.adapter.UpdateEntity(ctx, e)
}

// GetEntitiesForRoom lists every entity participating in a room.
func (r *Runtime) GetEntitiesForRoom(ctx context.Context, roomID string) ([]*content.Entity, error) {
	return r.adapter.GetEntitiesForRoom(ctx, roomID)
}

// CreateRoom persists a new room.
func (r *Runtime) CreateRoom(ctx context.Context, room *content.Room) error {
	return r.adapter.CreateRoom(ctx, room)
}

// GetRoom fetches a room by id. The bool return is false on a not-found
// lookup rather than an error, matching GetEntityByID's shape.
func (r *Runtime) GetRoom(ctx context.Context, id string) (*content.Room, bool, error) {
	room, err := r.adapter.GetRoom(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return room, true, nil
}

// GetRooms lists every room in a world.
func (r *Runtime) GetRooms(ctx context.Context, worldID string) ([]*content.Room, error) {
	return r.adapter.GetRooms(ctx, worldID)
}

// CreateWorld persists a new world.
func (r *Runtime) CreateWorld(ctx context.Context, w *content.World) error {
	return r.adapter.CreateWorld(ctx, w)
}

// GetWorlds lists every world owned by this runtime's agent.
func (r *Runtime) GetWorlds(ctx context.Context) ([]*content.World, error) {
	return r.adapter.GetAllWorlds(ctx, r.agentID)
}

// AddParticipant adds entityID to roomID.
func (r *Runtime) AddParticipant(ctx context.Context, roomID, entityID string) error {
	return r.adapter.AddParticipant(ctx, roomID, entityID)
}

// RemoveParticipant removes entityID from roomID.
func (r *Runtime) RemoveParticipant(ctx context.Context, roomID, entityID string) error {
	return r.adapter.RemoveParticipant(ctx, roomID, entityID)
}

// GetParticipantState returns entityID's muted/following/etc state in
// roomID.
func (r *Runtime) GetParticipantState(ctx context.Context, roomID, entityID string) (content.ParticipantState, error) {
	return r.adapter.GetParticipantState(ctx, roomID, entityID)
}

// SetParticipantState updates entityID's state in roomID.
func (r *Runtime) SetParticipantState(ctx context.Context, roomID, entityID string, state content.ParticipantState) error {
	return r.adapter.SetParticipantState(ctx, roomID, entityID, state)
}

// GetRelationships lists relationships matching filter.
func (r *Runtime) GetRelationships(ctx context.Context, filter storage.RelationshipFilter) ([]*content.Relationship, error) {
	return r.adapter.GetRelationships(ctx, filter)
}

// AddEmbeddingToMemory computes and persists an embedding for a memory that
// was created without one.
func (r *Runtime) AddEmbeddingToMemory(ctx context.Context, mem *content.Memory, table string) error {
	return r.memory.AddEmbeddingToMemory(ctx, r, mem, table)
}

// RegisterTaskWorker registers a task worker. It must be called before
// StartScheduler; workers registered afterward can still run tasks created
// after registration, but may miss ticks already in flight.
func (r *Runtime) RegisterTaskWorker(w *task.Worker) error {
	return r.scheduler.RegisterWorker(w)
}

// CreateTask schedules a task for the worker named by t.Name.
func (r *Runtime) CreateTask(ctx context.Context, t *content.Task) (string, error) {
	return r.scheduler.CreateTask(ctx, t)
}

// GetTask fetches a task by id.
func (r *Runtime) GetTask(ctx context.Context, id string) (*content.Task, error) {
	return r.scheduler.GetTask(ctx, id)
}

// GetTasks lists tasks matching filter.
func (r *Runtime) GetTasks(ctx context.Context, filter storage.TaskFilter) ([]*content.Task, error) {
	return r.scheduler.GetTasks(ctx, filter)
}

// DeleteTask cancels a scheduled task.
func (r *Runtime) DeleteTask(ctx context.Context, id string) error {
	return r.scheduler.DeleteTask(ctx, id)
}

// ChooseTask resolves a choice task's pending AwaitChoice call and runs its
// worker with the chosen option.
func (r *Runtime) ChooseTask(ctx context.Context, taskID, optionName string) error {
	return r.scheduler.Choose(ctx, r, taskID, optionName)
}

// Subscribe registers an event handler for topic. Subscriptions made after
// plugin load are append-only, same as ones contributed via a manifest.
func (r *Runtime) Subscribe(topic string, h plugin.EventHandlerFunc) {
	r.tables.Subscribe(topic, h)
}

// TaskScheduler exposes the task scheduler for callers that need direct access
// (e.g. AwaitChoice on a choice task from outside an action handler).
func (r *Runtime) TaskScheduler() *task.Scheduler { return r.scheduler }

// EventBus exposes the event bus.
func (r *Runtime) EventBus() *event.Bus { return r.bus }

package runtime

import (
	"context"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage"
)

// The methods in this file satisfy content.Runtime, the capability surface
// handed to action/provider/evaluator/model handlers. Runtime carries a
// fuller operation set for its own callers (see operations.go); handlers
// only ever see it through the narrower interface.

func (r *Runtime) UseModel(ctx context.Context, modelType content.ModelType, params content.ModelParams) (content.ModelResult, error) {
	return r.dispatcher.UseModel(ctx, r, modelType, params)
}

func (r *Runtime) ComposeState(ctx context.Context, msg *content.Message, opts content.StateOptions) (*content.State, error) {
	return r.composer.Compose(ctx, r, msg, opts)
}

func (r *Runtime) GetService(name string) (content.Service, bool) {
	return r.tables.Services.Get(name)
}

func (r *Runtime) GetSetting(key string) (string, bool) {
	if r.settings == nil {
		return "", false
	}
	return r.settings.Get(key)
}

func (r *Runtime) CreateMemory(ctx context.Context, mem *content.Memory, table string) (*content.Memory, error) {
	return r.memory.CreateMemory(ctx, r, mem, table, true)
}

func (r *Runtime) GetMemories(ctx context.Context, filter content.MemoryFilter) ([]*content.Memory, error) {
	return r.memory.GetMemories(ctx, filter)
}

func (r *Runtime) SearchMemories(ctx context.Context, query content.MemorySearchQuery) ([]*content.Memory, error) {
	return r.memory.SearchMemories(ctx, query)
}

func (r *Runtime) GetEntityByID(ctx context.Context, id string) (*content.Entity, bool, error) {
	e, err := r.adapter.GetEntityByID(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return e, true, nil
}

func (r *Runtime) CreateRelationship(ctx context.Context, rel *content.Relationship) error {
	return r.adapter.CreateRelationship(ctx, rel)
}

func (r *Runtime) Emit(ctx context.Context, topic string, payload any) {
	r.bus.Emit(ctx, r, topic, payload)
}

// Package runtime wires the component tables, state composer, model
// dispatcher, planner, event bus, task scheduler, and memory subsystem
// into the public Runtime façade. It is the one place all of the core's
// subsystems are assembled into a single services struct.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/relaywire/agentcore/pkg/config"
	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/event"
	"github.com/relaywire/agentcore/pkg/memory"
	"github.com/relaywire/agentcore/pkg/model"
	"github.com/relaywire/agentcore/pkg/observability"
	"github.com/relaywire/agentcore/pkg/plan"
	"github.com/relaywire/agentcore/pkg/plugin"
	"github.com/relaywire/agentcore/pkg/state"
	"github.com/relaywire/agentcore/pkg/storage"
	"github.com/relaywire/agentcore/pkg/task"
)

// Options configures a Runtime at construction time.
type Options struct {
	AgentID  string
	Config   *config.AgentConfig
	Settings *config.Settings
	Logger   *slog.Logger
}

// Runtime implements content.Runtime and the fuller operation set (plan
// generation/execution, task scheduling, entity/relationship CRUD, event
// subscription) that the minimal handler-facing interface
// leaves out. It is built in two phases: New constructs the tables and
// subsystems that don't depend on plugin contributions, then LoadPlugins
// installs manifests and finishes wiring the storage-adapter-dependent
// subsystems (memory, tasks).
type Runtime struct {
	agentID  string
	cfg      *config.AgentConfig
	settings *config.Settings
	logger   *slog.Logger

	tables     *plugin.Tables
	composer   *state.Composer
	dispatcher *model.Dispatcher
	planner    *plan.Generator
	executor   *plan.Executor
	bus        *event.Bus

	adapter   storage.Adapter
	memory    *memory.Subsystem
	scheduler *task.Scheduler

	obs *observability.Manager
}

// New builds a Runtime with an empty plugin table set. Call LoadPlugins
// before using any operation that touches storage, models, or actions.
func New(opts Options) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tables := plugin.NewTables()

	rt := &Runtime{
		agentID:    opts.AgentID,
		cfg:        opts.Config,
		settings:   opts.Settings,
		logger:     logger,
		tables:     tables,
		composer:   state.NewComposer(tables.Providers, logger),
		dispatcher: model.NewDispatcher(tables, logger, 0),
		bus:        event.NewBus(tables, logger),
	}
	rt.planner = plan.NewGenerator(tables.Actions)
	rt.executor = plan.NewExecutor(tables.Actions, logger, rt.planner)
	return rt
}

// LoadPlugins resolves manifests into dependency order, installs each
// one's contributions into the tables, and then finishes initializing the
// storage-backed subsystems (memory, tasks) from whichever adapter a
// plugin installed. It must be called exactly once, after New and before
// any other Runtime method.
func (r *Runtime) LoadPlugins(ctx context.Context, manifests []*plugin.Manifest) ([]string, error) {
	loader := plugin.NewLoader(r.logger)
	loaded, err := loader.Load(ctx, r, r.tables, manifests)
	if err != nil {
		return loaded, err
	}

	var obsCfg *observability.Config
	if r.cfg != nil {
		obsCfg = &r.cfg.Observability
	}
	obs, err := observability.NewManager(ctx, obsCfg)
	if err != nil {
		return loaded, fmt.Errorf("runtime: init observability: %w", err)
	}
	r.obs = obs
	r.dispatcher.SetObservability(obs.Metrics(), obs.Tracer())
	r.executor.SetObservability(obs.Metrics(), obs.Tracer())

	adapter, ok := r.tables.Adapter()
	if !ok {
		return loaded, fmt.Errorf("runtime: no plugin installed a storage adapter")
	}
	r.adapter = adapter

	dim := 1536
	if r.cfg != nil && r.cfg.EmbeddingDimension > 0 {
		dim = r.cfg.EmbeddingDimension
	}
	sub, err := memory.New(ctx, adapter, dim, memory.NewIndex())
	if err != nil {
		return loaded, fmt.Errorf("runtime: init memory subsystem: %w", err)
	}
	sub.SetObservability(obs.Metrics(), obs.Tracer())
	r.memory = sub

	tick := time.Second
	if r.cfg != nil && r.cfg.SchedulerTick > 0 {
		tick = r.cfg.SchedulerTick
	}
	r.scheduler = task.NewScheduler(r.agentID, adapter, r.logger, tick)
	r.scheduler.SetObservability(obs.Metrics(), obs.Tracer())

	return loaded, nil
}

// Shutdown releases resources held by the runtime's observability manager
// (tracer exporters and their network connections). Safe to call even when
// observability was never configured.
func (r *Runtime) Shutdown(ctx context.Context) error {
	return r.obs.Shutdown(ctx)
}

// StartScheduler starts the background tick loop. Call after LoadPlugins
// and after every worker has been registered via RegisterTaskWorker.
func (r *Runtime) StartScheduler(ctx context.Context) {
	r.scheduler.Start(ctx, r)
}

// StopScheduler stops the background tick loop.
func (r *Runtime) StopScheduler() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// Tables exposes the loaded component tables, e.g. for a transport layer
// wiring declared routes.
func (r *Runtime) Tables() *plugin.Tables { return r.tables }

// Adapter exposes the installed storage adapter.
func (r *Runtime) Adapter() storage.Adapter { return r.adapter }

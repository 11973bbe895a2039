package model

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/observability"
)

// HandlerSource supplies the handlers registered for a model type, already
// ranked by priority then registration order — the shape plugin.Tables
// exposes via ModelHandlers. Defined here, at the consumer, so this package
// doesn't need to import the plugin package just for one method.
type HandlerSource interface {
	ModelHandlers(modelType content.ModelType) []*content.ModelHandler
}

// InvocationRecord is one observability-log entry per useModel call.
type InvocationRecord struct {
	ModelType    content.ModelType
	Provider     string
	DurationMs   int64
	InputShape   int
	OutputShape  int
	FallbackUsed bool
	Err          error
}

// Dispatcher implements useModel: it selects, invokes, and falls back
// across registered handlers for a model type.
type Dispatcher struct {
	handlers HandlerSource
	logger   *slog.Logger

	mu  sync.Mutex
	log []InvocationRecord
	cap int

	metrics observability.Recorder
	tracer  *observability.Tracer
}

// SetObservability wires metric recording and tracing into the dispatcher.
// Either argument may be nil; both are no-ops until set.
func (d *Dispatcher) SetObservability(metrics observability.Recorder, tracer *observability.Tracer) {
	d.metrics = metrics
	d.tracer = tracer
}

// NewDispatcher builds a Dispatcher reading handlers from src. logCap bounds
// the in-memory invocation log (ring buffer); 0 uses a sensible default.
func NewDispatcher(src HandlerSource, logger *slog.Logger, logCap int) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if logCap <= 0 {
		logCap = 512
	}
	return &Dispatcher{handlers: src, logger: logger, cap: logCap}
}

// UseModel selects the highest-priority handler for modelType, invokes it,
// and on a retryable failure tries the next handler in priority order until
// one succeeds or the list is exhausted.
func (d *Dispatcher) UseModel(ctx context.Context, rt content.Runtime, modelType content.ModelType, params content.ModelParams) (content.ModelResult, error) {
	handlers := d.handlers.ModelHandlers(modelType)
	if len(handlers) == 0 {
		return nil, &Error{Kind: NoHandler, ModelType: modelType}
	}

	ctx, span := d.tracer.StartModelDispatch(ctx, string(modelType))
	defer span.End()

	var lastErr error
	for i, h := range handlers {
		start := time.Now()
		result, err := h.Handler(ctx, rt, params)
		elapsed := time.Since(start)

		rec := InvocationRecord{
			ModelType:    modelType,
			Provider:     h.Provider,
			DurationMs:   elapsed.Milliseconds(),
			InputShape:   len(params),
			OutputShape:  len(result),
			FallbackUsed: i > 0,
			Err:          err,
		}
		d.record(rec)
		d.tracer.AddModelResult(span, h.Provider, i > 0)
		if d.metrics != nil {
			d.metrics.RecordModelCall(string(modelType), h.Provider, elapsed, i > 0, err)
		}

		if err == nil {
			return result, nil
		}

		lastErr = err
		if !retryable(err) {
			kind := Transient
			if rl, ok := err.(RetryableError); ok && rl.RetryAfter() > 0 {
				kind = RateLimited
			}
			return nil, &Error{Kind: kind, ModelType: modelType, Provider: h.Provider, Err: err}
		}
		d.logger.Warn("model handler failed, trying fallback", "modelType", modelType, "provider", h.Provider, "error", err)
	}

	return nil, &Error{Kind: Transient, ModelType: modelType, Err: lastErr}
}

func (d *Dispatcher) record(rec InvocationRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, rec)
	if len(d.log) > d.cap {
		d.log = d.log[len(d.log)-d.cap:]
	}
}

// Log returns a snapshot of the invocation log, oldest first.
func (d *Dispatcher) Log() []InvocationRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]InvocationRecord(nil), d.log...)
}

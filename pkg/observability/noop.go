// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package observability

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// No-op Manager
// =============================================================================

// NoopManager returns a Manager with observability completely disabled.
func NoopManager() *Manager {
	return &Manager{}
}

// =============================================================================
// No-op Tracer
// =============================================================================

// NoopTracer is a Tracer implementation that records nothing. It mirrors
// Tracer's method set so callers can hold either behind the same type.
type NoopTracer struct{}

func (NoopTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

func (NoopTracer) StartModelDispatch(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}
func (NoopTracer) AddModelResult(_ trace.Span, _ string, _ bool) {}

func (NoopTracer) StartPlanExecution(ctx context.Context, _, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

func (NoopTracer) StartStepExecution(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

func (NoopTracer) StartTaskDispatch(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan()
}

func (NoopTracer) StartMemorySearch(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noopSpan()
}
func (NoopTracer) AddMemoryResults(_ trace.Span, _ int) {}

func (NoopTracer) AddPayload(_ trace.Span, _, _ string) {}
func (NoopTracer) RecordError(_ trace.Span, _ error)    {}

// DebugExporter returns nil.
func (NoopTracer) DebugExporter() *DebugExporter { return nil }

// Shutdown is a no-op.
func (NoopTracer) Shutdown(_ context.Context) error { return nil }

// =============================================================================
// No-op Metrics
// =============================================================================

// NoopMetrics is a metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordModelCall(_, _ string, _ time.Duration, _ bool, _ error) {}
func (NoopMetrics) RecordPlanExecution(_, _ string, _ time.Duration)              {}
func (NoopMetrics) RecordStep(_, _ string, _ time.Duration)                       {}
func (NoopMetrics) RecordTaskDispatch(_ string, _ time.Duration, _ error)         {}
func (NoopMetrics) RecordMemorySearch(_ string, _ time.Duration)                  {}
func (NoopMetrics) RecordMemoryCreated(_ string)                                  {}

// Handler returns a handler that always reports metrics as unavailable.
func (NoopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("metrics not enabled"))
	})
}

// =============================================================================
// Recorder Interface
// =============================================================================

// Recorder is the subset of Metrics that callers record against. It lets
// tests and optional call sites inject NoopMetrics or *Metrics
// interchangeably.
type Recorder interface {
	RecordModelCall(modelType, provider string, duration time.Duration, fallback bool, err error)
	RecordPlanExecution(executionModel, outcome string, duration time.Duration)
	RecordStep(action, outcome string, duration time.Duration)
	RecordTaskDispatch(taskName string, duration time.Duration, err error)
	RecordMemorySearch(scope string, duration time.Duration)
	RecordMemoryCreated(kind string)
}

var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = NoopMetrics{}
)

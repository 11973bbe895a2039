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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the runtime's model dispatch,
// plan execution, task scheduler and memory subsystem.
type Metrics struct {
	config   *MetricsConfig
	registry *prometheus.Registry

	// Model dispatch metrics
	modelCalls        *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelErrors       *prometheus.CounterVec
	modelFallbacks    *prometheus.CounterVec

	// Plan execution metrics
	planExecutions *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
	stepsTotal     *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec

	// Task scheduler metrics
	tasksDispatched *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	taskErrors      *prometheus.CounterVec

	// Memory subsystem metrics
	memorySearches  *prometheus.CounterVec
	memorySearchDur *prometheus.HistogramVec
	memoryCreated   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance from configuration.
func NewMetrics(cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	cfg.SetDefaults()

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
	}

	m.initModelMetrics()
	m.initPlanMetrics()
	m.initTaskMetrics()
	m.initMemoryMetrics()

	return m, nil
}

func (m *Metrics) initModelMetrics() {
	m.modelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "model",
			Name:      "calls_total",
			Help:      "Total number of model dispatch calls",
		},
		[]string{"model_type", "provider"},
	)

	m.modelCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "model",
			Name:      "call_duration_seconds",
			Help:      "Model dispatch call duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
		},
		[]string{"model_type", "provider"},
	)

	m.modelErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "model",
			Name:      "errors_total",
			Help:      "Total number of model dispatch errors",
		},
		[]string{"model_type", "provider"},
	)

	m.modelFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "model",
			Name:      "fallbacks_total",
			Help:      "Total number of dispatches served by a fallback handler",
		},
		[]string{"model_type"},
	)

	m.registry.MustRegister(m.modelCalls, m.modelCallDuration, m.modelErrors, m.modelFallbacks)
}

func (m *Metrics) initPlanMetrics() {
	m.planExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "plan",
			Name:      "executions_total",
			Help:      "Total number of action plans executed",
		},
		[]string{"execution_model", "outcome"},
	)

	m.planDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "plan",
			Name:      "duration_seconds",
			Help:      "Action plan execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		},
		[]string{"execution_model"},
	)

	m.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "plan",
			Name:      "steps_total",
			Help:      "Total number of plan steps executed",
		},
		[]string{"action", "outcome"},
	)

	m.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "plan",
			Name:      "step_duration_seconds",
			Help:      "Plan step execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"action"},
	)

	m.registry.MustRegister(m.planExecutions, m.planDuration, m.stepsTotal, m.stepDuration)
}

func (m *Metrics) initTaskMetrics() {
	m.tasksDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "task",
			Name:      "dispatched_total",
			Help:      "Total number of scheduled tasks dispatched to a worker",
		},
		[]string{"task_name"},
	)

	m.taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Task worker execution duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"task_name"},
	)

	m.taskErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "task",
			Name:      "errors_total",
			Help:      "Total number of task worker errors",
		},
		[]string{"task_name"},
	)

	m.registry.MustRegister(m.tasksDispatched, m.taskDuration, m.taskErrors)
}

func (m *Metrics) initMemoryMetrics() {
	m.memorySearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "memory",
			Name:      "searches_total",
			Help:      "Total number of memory searches",
		},
		[]string{"scope"},
	)

	m.memorySearchDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.config.Namespace,
			Subsystem: "memory",
			Name:      "search_duration_seconds",
			Help:      "Memory search duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"scope"},
	)

	m.memoryCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.config.Namespace,
			Subsystem: "memory",
			Name:      "created_total",
			Help:      "Total number of memories created",
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(m.memorySearches, m.memorySearchDur, m.memoryCreated)
}

// =============================================================================
// Model Dispatch Metrics
// =============================================================================

// RecordModelCall records a model dispatch call.
func (m *Metrics) RecordModelCall(modelType, provider string, duration time.Duration, fallback bool, err error) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(modelType, provider).Inc()
	m.modelCallDuration.WithLabelValues(modelType, provider).Observe(duration.Seconds())
	if fallback {
		m.modelFallbacks.WithLabelValues(modelType).Inc()
	}
	if err != nil {
		m.modelErrors.WithLabelValues(modelType, provider).Inc()
	}
}

// =============================================================================
// Plan Execution Metrics
// =============================================================================

// RecordPlanExecution records a completed plan execution.
func (m *Metrics) RecordPlanExecution(executionModel, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.planExecutions.WithLabelValues(executionModel, outcome).Inc()
	m.planDuration.WithLabelValues(executionModel).Observe(duration.Seconds())
}

// RecordStep records a single plan step execution.
func (m *Metrics) RecordStep(action, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(action, outcome).Inc()
	m.stepDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// =============================================================================
// Task Scheduler Metrics
// =============================================================================

// RecordTaskDispatch records a scheduled task being handed to its worker.
func (m *Metrics) RecordTaskDispatch(taskName string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.tasksDispatched.WithLabelValues(taskName).Inc()
	m.taskDuration.WithLabelValues(taskName).Observe(duration.Seconds())
	if err != nil {
		m.taskErrors.WithLabelValues(taskName).Inc()
	}
}

// =============================================================================
// Memory Metrics
// =============================================================================

// RecordMemorySearch records a memory search operation.
func (m *Metrics) RecordMemorySearch(scope string, duration time.Duration) {
	if m == nil {
		return
	}
	m.memorySearches.WithLabelValues(scope).Inc()
	m.memorySearchDur.WithLabelValues(scope).Observe(duration.Seconds())
}

// RecordMemoryCreated records a memory being persisted.
func (m *Metrics) RecordMemoryCreated(kind string) {
	if m == nil {
		return
	}
	m.memoryCreated.WithLabelValues(kind).Inc()
}

// =============================================================================
// HTTP Handler
// =============================================================================

// Handler returns an HTTP handler exposing the Prometheus metrics endpoint.
// The runtime has no HTTP server of its own; a host application mounts this
// at the configured MetricsConfig.Endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

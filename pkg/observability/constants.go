// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability provides OpenTelemetry tracing and Prometheus
// metrics for the runtime: model dispatch, plan execution, task
// scheduling and memory search.
package observability

// =============================================================================
// Service Attributes
// =============================================================================

const (
	AttrServiceName    = "service.name"
	AttrServiceVersion = "service.version"
)

// =============================================================================
// Model Dispatch Attributes
// =============================================================================

const (
	// AttrModelType is the requested model type (text-large, text-embedding, ...).
	AttrModelType = "agentcore.model.type"

	// AttrModelProvider is the handler source that served the request.
	AttrModelProvider = "agentcore.model.provider"

	// AttrModelFallback indicates the primary handler failed and a
	// fallback handler served the request.
	AttrModelFallback = "agentcore.model.fallback"
)

// =============================================================================
// Plan / Action Attributes
// =============================================================================

const (
	AttrPlanID         = "agentcore.plan.id"
	AttrPlanStepCount  = "agentcore.plan.step_count"
	AttrExecutionModel = "agentcore.plan.execution_model"
	AttrStepID         = "agentcore.step.id"
	AttrStepAction     = "agentcore.step.action"
)

// =============================================================================
// Task Attributes
// =============================================================================

const (
	AttrTaskName   = "agentcore.task.name"
	AttrTaskWorker = "agentcore.task.worker"
)

// =============================================================================
// Memory Attributes
// =============================================================================

const (
	AttrMemoryQuery       = "agentcore.memory.query"
	AttrMemoryLimit       = "agentcore.memory.limit"
	AttrMemoryResultCount = "agentcore.memory.result_count"
	AttrMemoryKind        = "agentcore.memory.kind"
)

// =============================================================================
// Error Attributes
// =============================================================================

const (
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// =============================================================================
// Span Names
// =============================================================================

const (
	SpanModelDispatch = "agentcore.model.dispatch"
	SpanPlanExecution = "agentcore.plan.execute"
	SpanStepExecution = "agentcore.plan.step"
	SpanTaskDispatch  = "agentcore.task.dispatch"
	SpanMemorySearch  = "agentcore.memory.search"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultServiceName  = "agentcore"
	DefaultSamplingRate = 1.0
	DefaultOTLPEndpoint = "localhost:4317"
	DefaultMetricsPath  = "/metrics"
)

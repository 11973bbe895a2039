package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordModelCall(t *testing.T) {
	cfg := &MetricsConfig{Enabled: true}
	m, err := NewMetrics(cfg)
	require.NoError(t, err)
	require.NotNil(t, m)

	m.RecordModelCall("chat", "openai", 100*time.Millisecond, false, nil)
	m.RecordModelCall("chat", "anthropic", 50*time.Millisecond, true, context.DeadlineExceeded)

	require.NotNil(t, m.Handler())
}

func TestMetrics_DisabledReturnsNil(t *testing.T) {
	m, err := NewMetrics(&MetricsConfig{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, m)
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.RecordModelCall("chat", "openai", time.Millisecond, false, nil)
		m.RecordPlanExecution("sequential", "success", time.Millisecond)
		m.RecordStep("search", "success", time.Millisecond)
		m.RecordTaskDispatch("cleanup", time.Millisecond, nil)
		m.RecordMemorySearch("room", time.Millisecond)
		m.RecordMemoryCreated("message")
	})
}

func TestNoopMetrics_SatisfiesRecorder(t *testing.T) {
	var r Recorder = NoopMetrics{}
	require.NotPanics(t, func() {
		r.RecordModelCall("chat", "openai", time.Millisecond, false, nil)
	})
}

func TestNoopTracer_StartReturnsUsableSpan(t *testing.T) {
	tracer := NoopTracer{}
	ctx, span := tracer.StartModelDispatch(context.Background(), "chat")
	require.NotNil(t, ctx)
	require.NotNil(t, span)
	span.End()
}

func TestDebugExporter_CapturesOnlyKnownSpans(t *testing.T) {
	exp := NewDebugExporter()
	require.True(t, exp.shouldCapture(SpanModelDispatch))
	require.True(t, exp.shouldCapture(SpanPlanExecution))
	require.False(t, exp.shouldCapture("unrelated.span"))
	require.Equal(t, 0, exp.Count())
}

func TestManager_NilConfigIsNoop(t *testing.T) {
	m, err := NewManager(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, m.TracingEnabled())
	require.False(t, m.MetricsEnabled())
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_MetricsEnabled(t *testing.T) {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	m, err := NewManager(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, m.MetricsEnabled())
	require.False(t, m.TracingEnabled())
	require.NotNil(t, m.Metrics())
}

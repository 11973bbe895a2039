package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
)

// fakeRetryable implements RetryableError for fallback tests.
type fakeRetryable struct{ msg string }

func (e *fakeRetryable) Error() string             { return e.msg }
func (e *fakeRetryable) IsRetryable() bool         { return true }
func (e *fakeRetryable) RetryAfter() time.Duration { return 0 }

type fakeNonRetryable struct{ msg string }

func (e *fakeNonRetryable) Error() string { return e.msg }

type fixedSource struct {
	handlers []*content.ModelHandler
}

func (f *fixedSource) ModelHandlers(modelType content.ModelType) []*content.ModelHandler {
	return f.handlers
}

func handlerReturning(provider string, result content.ModelResult, err error) *content.ModelHandler {
	return &content.ModelHandler{
		Type:     content.ModelTextLarge,
		Provider: provider,
		Handler: func(ctx context.Context, rt content.Runtime, params content.ModelParams) (content.ModelResult, error) {
			return result, err
		},
	}
}

func TestDispatcher_NoHandlerRegistered(t *testing.T) {
	d := NewDispatcher(&fixedSource{}, nil, 0)
	_, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)

	var modelErr *Error
	require.ErrorAs(t, err, &modelErr)
	require.Equal(t, NoHandler, modelErr.Kind)
}

func TestDispatcher_SelectsFirstHandlerOnSuccess(t *testing.T) {
	ok := content.ModelResult{"text": "hi"}
	h1 := handlerReturning("primary", ok, nil)
	h2 := handlerReturning("secondary", content.ModelResult{"text": "unused"}, nil)
	d := NewDispatcher(&fixedSource{handlers: []*content.ModelHandler{h1, h2}}, nil, 0)

	result, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)
	require.NoError(t, err)
	require.Equal(t, ok, result)

	log := d.Log()
	require.Len(t, log, 1)
	require.Equal(t, "primary", log[0].Provider)
	require.False(t, log[0].FallbackUsed)
}

func TestDispatcher_FallsBackOnRetryableError(t *testing.T) {
	ok := content.ModelResult{"text": "from secondary"}
	h1 := handlerReturning("primary", nil, &fakeRetryable{msg: "rate limited"})
	h2 := handlerReturning("secondary", ok, nil)
	d := NewDispatcher(&fixedSource{handlers: []*content.ModelHandler{h1, h2}}, nil, 0)

	result, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)
	require.NoError(t, err)
	require.Equal(t, ok, result)

	log := d.Log()
	require.Len(t, log, 2)
	require.False(t, log[0].FallbackUsed)
	require.True(t, log[1].FallbackUsed)
}

func TestDispatcher_NonRetryableErrorSurfacesImmediately(t *testing.T) {
	h1 := handlerReturning("primary", nil, &fakeNonRetryable{msg: "bad request"})
	h2 := handlerReturning("secondary", content.ModelResult{"text": "never reached"}, nil)
	d := NewDispatcher(&fixedSource{handlers: []*content.ModelHandler{h1, h2}}, nil, 0)

	_, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)
	require.Error(t, err)

	var modelErr *Error
	require.ErrorAs(t, err, &modelErr)
	require.Equal(t, Transient, modelErr.Kind)

	log := d.Log()
	require.Len(t, log, 1, "the second handler must not be tried for a non-retryable error")
}

func TestDispatcher_AllHandlersExhausted(t *testing.T) {
	h1 := handlerReturning("primary", nil, &fakeRetryable{msg: "timeout"})
	h2 := handlerReturning("secondary", nil, &fakeRetryable{msg: "timeout again"})
	d := NewDispatcher(&fixedSource{handlers: []*content.ModelHandler{h1, h2}}, nil, 0)

	_, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)
	require.True(t, errors.As(err, new(*Error)))
	require.Len(t, d.Log(), 2)
}

func TestDispatcher_LogRespectsCap(t *testing.T) {
	h := handlerReturning("primary", content.ModelResult{}, nil)
	d := NewDispatcher(&fixedSource{handlers: []*content.ModelHandler{h}}, nil, 2)

	for i := 0; i < 5; i++ {
		_, err := d.UseModel(context.Background(), nil, content.ModelTextLarge, nil)
		require.NoError(t, err)
	}

	require.Len(t, d.Log(), 2)
}

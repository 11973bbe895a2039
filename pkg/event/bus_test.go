package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/plugin"
)

func TestBus_HandlersRunInRegistrationOrder(t *testing.T) {
	tables := plugin.NewTables()
	var order []int
	tables.Subscribe("TOPIC", func(ctx context.Context, rt content.Runtime, payload any) {
		order = append(order, 1)
	})
	tables.Subscribe("TOPIC", func(ctx context.Context, rt content.Runtime, payload any) {
		order = append(order, 2)
	})

	bus := NewBus(tables, nil)
	bus.Emit(context.Background(), nil, "TOPIC", nil)

	require.Equal(t, []int{1, 2}, order)
}

func TestBus_PanicInOneHandlerDoesNotStopOthers(t *testing.T) {
	tables := plugin.NewTables()
	var secondRan bool
	tables.Subscribe("TOPIC", func(ctx context.Context, rt content.Runtime, payload any) {
		panic("boom")
	})
	tables.Subscribe("TOPIC", func(ctx context.Context, rt content.Runtime, payload any) {
		secondRan = true
	})

	bus := NewBus(tables, nil)
	require.NotPanics(t, func() {
		bus.Emit(context.Background(), nil, "TOPIC", nil)
	})
	require.True(t, secondRan)
}

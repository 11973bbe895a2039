package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaywire/agentcore/pkg/content"
	"github.com/relaywire/agentcore/pkg/storage/memadapter"
)

func TestRecurringTask_AdvancesUpdatedAt(t *testing.T) {
	adapter := memadapter.New()
	sched := NewScheduler("agent-1", adapter, nil, time.Millisecond)

	var count int32
	require.NoError(t, sched.RegisterWorker(&Worker{
		Name: "REPORT",
		Execute: func(ctx context.Context, rt content.Runtime, task *content.Task) error {
			atomic.AddInt32(&count, 1)
			return nil
		},
	}))

	id, err := sched.CreateTask(context.Background(), &content.Task{
		Name:     "REPORT",
		Metadata: &content.TaskMetadata{UpdateIntervalMs: 20},
	})
	require.NoError(t, err)

	first, err := sched.GetTask(context.Background(), id)
	require.NoError(t, err)
	firstUpdatedAt := first.UpdatedAt

	for i := 0; i < 5; i++ {
		time.Sleep(25 * time.Millisecond)
		sched.Tick(context.Background(), nil)
		time.Sleep(5 * time.Millisecond) // let the async dispatch goroutine finish
	}

	require.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(2))

	later, err := sched.GetTask(context.Background(), id)
	require.NoError(t, err)
	require.True(t, later.UpdatedAt.After(firstUpdatedAt))
}

func TestOneShotTask_NotRedispatchedAfterDelete(t *testing.T) {
	adapter := memadapter.New()
	sched := NewScheduler("agent-1", adapter, nil, time.Millisecond)

	var count int32
	require.NoError(t, sched.RegisterWorker(&Worker{
		Name: "ONE_SHOT",
		Execute: func(ctx context.Context, rt content.Runtime, task *content.Task) error {
			atomic.AddInt32(&count, 1)
			return sched.DeleteTask(ctx, task.ID)
		},
	}))

	due := time.Now().Add(-time.Millisecond)
	_, err := sched.CreateTask(context.Background(), &content.Task{
		Name:     "ONE_SHOT",
		Metadata: &content.TaskMetadata{ScheduledFor: &due},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sched.Tick(context.Background(), nil)
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, int32(1), atomic.LoadInt32(&count))
}

func TestChoiceTask_ResolvesViaChoose(t *testing.T) {
	adapter := memadapter.New()
	sched := NewScheduler("agent-1", adapter, nil, time.Minute)

	var chosen string
	require.NoError(t, sched.RegisterWorker(&Worker{
		Name: "PICK",
		Execute: func(ctx context.Context, rt content.Runtime, task *content.Task) error {
			chosen, _ = task.Metadata.Payload["choice"].(string)
			return nil
		},
	}))

	id, err := sched.CreateTask(context.Background(), &content.Task{
		Name: "PICK",
		Metadata: &content.TaskMetadata{
			Options: []content.TaskOption{{Name: "a"}, {Name: "b"}},
		},
	})
	require.NoError(t, err)

	require.NoError(t, sched.Choose(context.Background(), nil, id, "b"))
	require.Equal(t, "b", chosen)
}

package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

func TestPoller_LockContentionSkipsRecord(t *testing.T) {
	task := scheduledTask(now)
	store := newMemTaskStore(task)
	swaps := &mockSwaps{}
	locker := newFakeLocker()
	locker.held[ScheduledTaskPoller+":"+task.Key()] = true

	p := New[types.Task](NewScheduledTaskStrategy(store, swaps),
		Config{Interval: time.Second, Locker: locker, Clock: fixedClock(now)}, logging.NewNoOpLogger())
	p.Tick(context.Background())

	assert.Equal(t, types.TaskStatusActive, store.get(task.ID).Status)
	assert.Equal(t, uint64(1), p.Stats().Contended)
	swaps.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestPoller_LockErrorSkipsRecord(t *testing.T) {
	task := scheduledTask(now)
	store := newMemTaskStore(task)
	swaps := &mockSwaps{}
	locker := newFakeLocker()
	locker.err = errors.New("redis unavailable")

	p := New[types.Task](NewScheduledTaskStrategy(store, swaps),
		Config{Interval: time.Second, Locker: locker, Clock: fixedClock(now)}, logging.NewNoOpLogger())
	p.Tick(context.Background())

	assert.Equal(t, types.TaskStatusActive, store.get(task.ID).Status)
	swaps.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestPoller_ReleasesLockAfterProcessing(t *testing.T) {
	task := scheduledTask(now)
	store := newMemTaskStore(task)
	swaps := &mockSwaps{}
	swaps.On("Execute", mock.Anything, mock.Anything).Return("0xabc", nil).Once()
	locker := newFakeLocker()

	p := New[types.Task](NewScheduledTaskStrategy(store, swaps),
		Config{Interval: time.Second, Locker: locker, Clock: fixedClock(now)}, logging.NewNoOpLogger())
	p.Tick(context.Background())

	assert.Equal(t, []string{ScheduledTaskPoller + ":" + task.Key()}, locker.released)
	assert.Empty(t, locker.held)
}

func TestPoller_QueryErrorIsRecorded(t *testing.T) {
	store := newMemTaskStore()
	store.findErr = errors.New("connection reset")
	p := newTaskPoller(NewPriceTaskStrategy(store, &mockSwaps{}))

	p.Tick(context.Background())

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.QueryErrors)
	assert.Equal(t, "connection reset", stats.LastError)
	assert.Equal(t, uint64(0), stats.Iterations)
}

func TestPoller_RunUntilCancelled(t *testing.T) {
	store := newMemTaskStore()
	p := New[types.Task](NewPriceTaskStrategy(store, &mockSwaps{}),
		Config{Interval: 5 * time.Millisecond}, logging.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.Stats().Iterations >= 3 }, time.Second, time.Millisecond)
	assert.True(t, p.Stats().Running)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
	assert.False(t, p.Stats().Running)
}

func TestPoller_ProcessesInOrder(t *testing.T) {
	later := scheduledTask(now.Add(-time.Second))
	earlier := scheduledTask(now.Add(-time.Minute))
	store := newMemTaskStore(later, earlier)
	swaps := &mockSwaps{}
	var refs []string
	swaps.On("Execute", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		refs = append(refs, args.Get(1).(sequencer.Order).Reference)
	}).Return("0xabc", nil)

	p := newTaskPoller(NewScheduledTaskStrategy(store, swaps))
	p.Tick(context.Background())

	assert.Equal(t, []string{"task:" + earlier.Key(), "task:" + later.Key()}, refs)
	assert.Equal(t, uint64(2), p.Stats().Executed)
}

func TestNoopLocker(t *testing.T) {
	unlock, acquired, err := NoopLocker{}.TryLock(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.NoError(t, unlock(context.Background()))
}

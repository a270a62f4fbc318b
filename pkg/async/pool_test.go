package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsem/go-client/pkg/async"
)

func TestPool_Empty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx)

	assert.Equal(t, 0, p.TotalCount())
	assert.Equal(t, 0, p.ToReturnCount())

	// Nothing is outstanding, no result and no error
	res, err := p.WaitForNext(ctx)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestPool_SubmitDoesNotStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx)

	var started int64
	id := p.Submit(func(ctx context.Context) ([]byte, error) {
		atomic.AddInt64(&started, 1)
		return []byte("done"), nil
	})
	assert.Equal(t, async.RequestID(1), id)

	// No progress without a poke
	assert.Equal(t, int64(0), atomic.LoadInt64(&started))

	p.Poke()
	res, err := p.WaitForNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id, res.ID)
	assert.Equal(t, []byte("done"), res.Out)
	assert.Equal(t, int64(1), atomic.LoadInt64(&started))
}

func TestPool_CompletionOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx)

	// Each request waits for its gate
	gates := make(map[async.RequestID]chan struct{})
	for i := 1; i <= 3; i++ {
		gate := make(chan struct{})
		id := p.Submit(func(ctx context.Context) ([]byte, error) {
			<-gate
			return nil, nil
		})
		gates[id] = gate
	}
	p.Poke()

	// Results come back in completion order, not submit order
	for _, id := range []async.RequestID{2, 3, 1} {
		close(gates[id])
		res, err := p.WaitForNext(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, id, res.ID)
	}

	// Drained
	res, err := p.WaitForNext(ctx)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestPool_SlotsLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx, async.WithSlotsCount(1))

	gate1 := make(chan struct{})
	var started2 int64
	id1 := p.Submit(func(ctx context.Context) ([]byte, error) {
		<-gate1
		return nil, nil
	})
	id2 := p.Submit(func(ctx context.Context) ([]byte, error) {
		atomic.AddInt64(&started2, 1)
		return nil, nil
	})

	// Only one slot, the second request stays queued
	p.Poke()
	assert.Equal(t, int64(0), atomic.LoadInt64(&started2))
	assert.Equal(t, 2, p.TotalCount())

	// Freed slot starts the next queued request
	close(gate1)
	res, err := p.WaitForNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id1, res.ID)

	res, err = p.WaitForNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, id2, res.ID)
	assert.Equal(t, int64(1), atomic.LoadInt64(&started2))
	assert.Equal(t, 0, p.TotalCount())
}

func TestPool_Counts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx)

	p.Submit(func(ctx context.Context) ([]byte, error) {
		return nil, nil
	})
	p.Submit(func(ctx context.Context) ([]byte, error) {
		return nil, nil
	})
	assert.Equal(t, 2, p.TotalCount())

	// Both requests finish immediately after the implicit poke above
	assert.Eventually(t, func() bool {
		return p.ToReturnCount() == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, p.TotalCount())

	// Consume both
	for i := 0; i < 2; i++ {
		res, err := p.WaitForNext(ctx)
		require.NoError(t, err)
		require.NotNil(t, res)
	}
	assert.Equal(t, 0, p.ToReturnCount())
	assert.Equal(t, 0, p.TotalCount())
}

func TestPool_RequestError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := async.NewPool(ctx)

	p.Submit(func(ctx context.Context) ([]byte, error) {
		return nil, context.DeadlineExceeded
	})

	// The error is handed back unchanged, inside the Result
	res, err := p.WaitForNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, context.DeadlineExceeded, res.Err)
}

func TestPool_ConcurrentWaiters(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := async.NewPool(context.Background())

	// All requests finish at once, while several waiters are blocked.
	// Every waiter must be woken up, one result per waiter.
	const waiters = 4
	gate := make(chan struct{})
	for i := 0; i < waiters; i++ {
		p.Submit(func(ctx context.Context) ([]byte, error) {
			<-gate
			return nil, nil
		})
	}
	p.Poke()

	results := make(chan async.RequestID, waiters)
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			res, err := p.WaitForNext(ctx)
			if err != nil {
				errs <- err
				return
			}
			results <- res.ID
		}()
	}
	close(gate)

	seen := make(map[async.RequestID]bool)
	for i := 0; i < waiters; i++ {
		select {
		case err := <-errs:
			t.Fatalf("waiter failed: %s", err)
		case id := <-results:
			assert.False(t, seen[id])
			seen[id] = true
		}
	}
	assert.Equal(t, 0, p.TotalCount())
}

func TestPool_WaitForNextCancelled(t *testing.T) {
	t.Parallel()
	p := async.NewPool(context.Background())

	gate := make(chan struct{})
	defer close(gate)
	p.Submit(func(ctx context.Context) ([]byte, error) {
		<-gate
		return nil, nil
	})
	p.Poke()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := p.WaitForNext(ctx)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

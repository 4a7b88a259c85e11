package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunAll(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Stop()

	var count atomic.Int64
	tasks := make([]func() error, 20)
	for i := range tasks {
		tasks[i] = func() error {
			count.Add(1)
			return nil
		}
	}

	require.NoError(t, pool.RunAll(context.Background(), tasks))
	assert.Equal(t, int64(20), count.Load())
	assert.Equal(t, 3, pool.Workers())
}

func TestWorkerPoolRunAllCollectsErrors(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Stop()

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	err := pool.RunAll(context.Background(), []func() error{
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
		func() error { panic("boom") },
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "task 3 panicked: boom")
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := pool.RunAll(ctx, []func() error{func() error { ran = true; return nil }})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestWorkerPoolStopped(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Stop()
	pool.Stop()

	assert.False(t, pool.Submit(func() {}))
	err := pool.RunAll(context.Background(), []func() error{func() error { return nil }})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestWorkerPoolSubmitDuringStop(t *testing.T) {
	pool := NewWorkerPool(2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				pool.Submit(func() {})
			}
		}()
	}

	pool.Stop()
	wg.Wait()
	assert.False(t, pool.Submit(func() {}))
}

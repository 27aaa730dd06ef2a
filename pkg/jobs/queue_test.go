package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesInOrderWithSingleWorker(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := NewQueue[int]("ordered", func(_ context.Context, job Job[int]) error {
		mu.Lock()
		seen = append(seen, job.Payload)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(Job[int]{Payload: i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 5
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
	mu.Unlock()
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	q := NewQueue[string]("flaky", func(_ context.Context, job Job[string]) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "job-1", Payload: "x"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 3
	}, time.Second, 5*time.Millisecond)
}

func TestQueueEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue[int]("idle", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job[int]{Payload: 1}))
	q.Stop()
}

func TestQueueTryEnqueueDoesNotBlockWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue[int]("busy", func(ctx context.Context, _ Job[int]) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.TryEnqueue(Job[int]{Payload: 1}))
	require.Eventually(t, func() bool {
		return q.TryEnqueue(Job[int]{Payload: 2}) == nil
	}, time.Second, time.Millisecond)

	err := q.TryEnqueue(Job[int]{Payload: 3})
	assert.True(t, errors.Is(err, ErrQueueFull))
}

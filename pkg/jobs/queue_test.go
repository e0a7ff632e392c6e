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

type payload struct {
	Serial string
}

func TestQueueProcessesTypedPayloads(t *testing.T) {
	var mu sync.Mutex
	var got []string
	done := make(chan struct{}, 2)

	q := New("test", func(ctx context.Context, task Task[payload]) error {
		mu.Lock()
		got = append(got, task.Payload.Serial)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, Config{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task[payload]{ID: "1", Payload: payload{Serial: "a"}}))
	require.NoError(t, q.Enqueue(Task[payload]{ID: "2", Payload: payload{Serial: "b"}}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestQueueRetriesFailedTasks(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q := New("retry", func(ctx context.Context, task Task[payload]) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, Config{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task[payload]{ID: "1", Payload: payload{Serial: "a"}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := New("idle", func(ctx context.Context, task Task[payload]) error { return nil }, Config{})
	require.Error(t, q.Enqueue(Task[payload]{ID: "1"}))
}

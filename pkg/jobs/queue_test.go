package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, Options{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Kind: "noop"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	require.EqualValues(t, 3, atomic.LoadInt32(&handled))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	attempts := make(chan int, 5)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt < 2 {
			return errors.New("boom")
		}
		return nil
	}, Options{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "r1", Kind: "flaky"}))

	seen := make([]int, 0, 3)
	for len(seen) < 3 {
		select {
		case a := <-attempts:
			seen = append(seen, a)
		case <-time.After(time.Second):
			t.Fatalf("expected three attempts, saw %v", seen)
		}
	}
	require.Equal(t, []int{0, 1, 2}, seen)
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, Options{})
	err := q.Enqueue(Job{Kind: "noop"})
	require.ErrorIs(t, err, ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	require.ErrorIs(t, q.Enqueue(Job{Kind: "noop"}), ErrQueueClosed)
}

func TestQueueRecoversFromPanics(t *testing.T) {
	done := make(chan struct{})
	q := NewQueue("panic", func(ctx context.Context, job Job) error {
		if job.Kind == "explode" {
			panic("kaboom")
		}
		close(done)
		return nil
	}, Options{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Kind: "explode"}))
	require.NoError(t, q.Enqueue(Job{Kind: "ok"}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker died after panic")
	}
}

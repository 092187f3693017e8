package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDispatcher(t *testing.T, size int) *Dispatcher {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	d := New(size)
	d.Start(ctx)
	return d
}

func TestSubmitRelaysResult(t *testing.T) {
	d := startDispatcher(t, 2)

	v, err := d.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return "admitted", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "admitted", v)
}

func TestSubmitRelaysError(t *testing.T) {
	d := startDispatcher(t, 2)

	boom := errors.New("store unreachable")
	v, err := d.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, v)
}

func TestWorkerPanicBecomesError(t *testing.T) {
	d := startDispatcher(t, 1)

	_, err := d.Submit(context.Background(), func(ctx context.Context) (any, error) {
		panic("unexpected state")
	})
	assert.ErrorIs(t, err, ErrWorkerCrash)

	// The pool must survive the crash and keep serving.
	v, err := d.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestExactlyOneResultPerJob(t *testing.T) {
	d := startDispatcher(t, 4)

	const jobs = 50
	var wg sync.WaitGroup
	results := make(chan int, jobs*2)

	for i := 0; i < jobs; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.Submit(context.Background(), func(ctx context.Context) (any, error) {
				return i, nil
			})
			if assert.NoError(t, err) {
				results <- v.(int)
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]int)
	for v := range results {
		seen[v]++
	}
	assert.Len(t, seen, jobs)
	for i, count := range seen {
		assert.Equalf(t, 1, count, "job %d delivered %d results", i, count)
	}
}

func TestSubmitHonorsCancelledContext(t *testing.T) {
	d := New(1) // never started: jobs queue fills, Submit must not block forever

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// First submit parks in the buffered queue; there is no worker to drain
	// it, so waiting on the outcome must end with the context.
	_, err := d.Submit(ctx, func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecute(t *testing.T) {
	pool := NewPool(2)

	var running, peak atomic.Int32
	task := func(name string, value int) Task {
		return Task{
			Name: name,
			Execute: func(ctx context.Context) (interface{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return value, nil
			},
		}
	}

	results := pool.Execute(context.Background(), []Task{
		task("a", 1), task("b", 2), task("c", 3), task("d", 4),
	})

	require.Len(t, results, 4)
	assert.Equal(t, 3, results["c"].Data)
	assert.NoError(t, results["a"].Err)
	assert.LessOrEqual(t, peak.Load(), int32(2))

	// The pool is reusable
	again := pool.Execute(context.Background(), []Task{task("e", 5)})
	assert.Equal(t, 5, again["e"].Data)
}

func TestPoolErrorsAndPanics(t *testing.T) {
	pool := NewPool(0)
	failure := errors.New("query failed")

	results := pool.Execute(context.Background(), []Task{
		{Name: "fails", Execute: func(ctx context.Context) (interface{}, error) { return nil, failure }},
		{Name: "panics", Execute: func(ctx context.Context) (interface{}, error) { panic("boom") }},
		{Name: "works", Execute: func(ctx context.Context) (interface{}, error) { return "ok", nil }},
	})

	require.Len(t, results, 3)
	assert.ErrorIs(t, results["fails"].Err, failure)
	assert.ErrorContains(t, results["panics"].Err, "panicked")
	assert.Equal(t, "ok", results["works"].Data)
}

func TestPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewPool(2).Execute(ctx, []Task{
		{Name: "never", Execute: func(ctx context.Context) (interface{}, error) { return 1, nil }},
	})
	assert.LessOrEqual(t, len(results), 1)
}

package island

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyIsland(t *testing.T) {
	c := New[int]()

	_, ok := c.Get()
	assert.False(t, ok)
	assert.False(t, c.Update(func(*int) {}))
	_, ok = c.Take()
	assert.False(t, ok)
}

func TestWithValue(t *testing.T) {
	c := WithValue("hello")

	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestReplace(t *testing.T) {
	c := New[int]()

	_, had := c.Replace(1)
	assert.False(t, had)

	prev, had := c.Replace(2)
	require.True(t, had)
	assert.Equal(t, 1, prev)

	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTakeAndClear(t *testing.T) {
	c := WithValue(7)

	v, ok := c.Take()
	require.True(t, ok)
	assert.Equal(t, 7, v)
	_, ok = c.Get()
	assert.False(t, ok)

	c.Replace(8)
	c.Clear()
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	c := WithValue(1)

	ok := c.Update(func(v *int) { *v += 10 })
	require.True(t, ok)

	v, _ := c.Get()
	assert.Equal(t, 11, v)
}

func TestGetOrInitSingleFlight(t *testing.T) {
	c := New[int]()
	gate := make(chan struct{})
	var calls atomic.Int32

	const n = 32
	results := make([]int, n)
	errs := make([]error, n)

	var started, done sync.WaitGroup
	for i := 0; i < n; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = c.GetOrInit(context.Background(), func(context.Context) (int, error) {
				calls.Add(1)
				<-gate
				return 42, nil
			})
		}(i)
	}

	started.Wait()
	time.Sleep(10 * time.Millisecond) // let the callers reach the wait
	close(gate)
	done.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}

	v, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestGetOrInitErrorIsNotCached(t *testing.T) {
	c := New[int]()
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := c.GetOrInit(context.Background(), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	// The slot reverted to empty; the next attempt starts from scratch.
	_, ok := c.Get()
	require.False(t, ok)

	v, err := c.GetOrInit(context.Background(), func(context.Context) (int, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetOrInitErrorBroadcast(t *testing.T) {
	c := New[int]()
	gate := make(chan struct{})
	boom := errors.New("boom")
	var calls atomic.Int32

	const n = 8
	errs := make([]error, n)

	var started, done sync.WaitGroup
	for i := 0; i < n; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			_, errs[i] = c.GetOrInit(context.Background(), func(context.Context) (int, error) {
				calls.Add(1)
				<-gate
				return 0, boom
			})
		}(i)
	}

	started.Wait()
	time.Sleep(10 * time.Millisecond)
	close(gate)
	done.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for i := 0; i < n; i++ {
		assert.ErrorIs(t, errs[i], boom)
	}
}

func TestGetOrInitHitSkipsInitializer(t *testing.T) {
	c := WithValue(5)

	v, err := c.GetOrInit(context.Background(), func(context.Context) (int, error) {
		t.Fatal("initializer must not run on a ready slot")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestGetOrInitCancelledWaiter(t *testing.T) {
	c := New[int]()
	gate := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOrInit(ctx, func(context.Context) (int, error) {
		<-gate
		return 42, nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// The attempt keeps running and installs its result for future callers.
	close(gate)
	require.Eventually(t, func() bool {
		_, ok := c.Get()
		return ok
	}, time.Second, time.Millisecond)
}

func TestClearIfUntouchedSince(t *testing.T) {
	touched := WithValue(1)
	idle := WithValue(2)

	snapshot := Age()

	// Touch one cell after the snapshot.
	_, ok := touched.Get()
	require.True(t, ok)

	assert.False(t, touched.ClearIfUntouchedSince(snapshot))
	assert.True(t, idle.ClearIfUntouchedSince(snapshot))

	_, ok = touched.Get()
	assert.True(t, ok)
	_, ok = idle.Get()
	assert.False(t, ok)
}

func TestClearIfUntouchedSinceOnEmpty(t *testing.T) {
	c := New[int]()
	assert.False(t, c.ClearIfUntouchedSince(Age()))
}

func TestAgeIsMonotonic(t *testing.T) {
	before := Age()
	c := WithValue(1)
	c.Get()
	assert.Greater(t, Age(), before)
}

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheSingleKey(t *testing.T) {
	tests := []struct {
		name           string
		invalidate     bool
		waitBeforeNext time.Duration
		expectedCount  int
	}{
		{
			name:          "fresh cache, fetch",
			expectedCount: 1,
		},
		{
			name:          "use cache, no fetch",
			expectedCount: 1,
		},
		{
			name:          "invalidate=true, fetch",
			invalidate:    true,
			expectedCount: 2,
		},
		{
			name:           "ttl expired, fetch",
			waitBeforeNext: 300 * time.Millisecond,
			expectedCount:  3,
		},
	}
	cache := NewTTLCache[string, int](200 * time.Millisecond)
	fetchCount := 0
	fetchFunc := func(_ string) (int, error) {
		fetchCount++
		return 42, nil
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			if tt.waitBeforeNext > 0 {
				time.Sleep(tt.waitBeforeNext)
			}

			val, err := cache.Get("test", fetchFunc, tt.invalidate)
			require.NoError(err)
			require.Equal(42, val)
			require.Equal(tt.expectedCount, fetchCount)
		})
	}
}

func TestTTLCacheErrorNotCached(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	errFetch := errors.New("fetch failed")

	_, err := cache.Get("k", func(string) (int, error) { return 0, errFetch }, false)
	require.ErrorIs(err, errFetch)
	require.Zero(cache.Len())

	val, err := cache.Get("k", func(string) (int, error) { return 7, nil }, false)
	require.NoError(err)
	require.Equal(7, val)

	cache.Remove("k")
	_, ok := cache.Peek("k")
	require.False(ok)
}

func TestTTLCacheSingleFlight(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[string, int](time.Minute)
	var fetches atomic.Int32
	release := make(chan struct{})
	fetchFunc := func(string) (int, error) {
		fetches.Add(1)
		<-release
		return 1, nil
	}

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			v, err := cache.Get("k", fetchFunc, false)
			require.NoError(err)
			require.Equal(1, v)
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(int32(1), fetches.Load())
}

func TestTTLCacheRemoveFunc(t *testing.T) {
	require := require.New(t)

	cache := NewTTLCache[int, int](time.Minute)
	for i := range 6 {
		_, err := cache.Get(i, func(k int) (int, error) { return k, nil }, false)
		require.NoError(err)
	}

	cache.RemoveFunc(func(k int) bool { return k%2 == 0 })
	require.Equal(3, cache.Len())
	for i := range 6 {
		_, ok := cache.Peek(i)
		require.Equal(i%2 == 1, ok, "key %d", i)
	}
}

package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pipe01/esbuild-plugin-vue3/internal/cache"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheComputesOnce(t *testing.T) {
	c := cache.New(true, nil)
	calls := 0
	compute := func() (string, error) {
		calls++
		return "compiled", nil
	}

	for i := 0; i < 3; i++ {
		value, err := cache.Get(c, "key", compute)
		require.NoError(t, err)
		assert.Equal(t, "compiled", value)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
}

func TestCacheDisabled(t *testing.T) {
	c := cache.New(false, nil)
	calls := 0
	compute := func() (int, error) {
		calls++
		return calls, nil
	}

	for i := 1; i <= 3; i++ {
		value, err := cache.Get(c, "key", compute)
		require.NoError(t, err)
		assert.Equal(t, i, value)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Enabled())
}

func TestCacheDistinctKeys(t *testing.T) {
	c := cache.New(true, nil)
	a, _ := cache.Get(c, "a", func() (string, error) { return "A", nil })
	b, _ := cache.Get(c, "b", func() (string, error) { return "B", nil })
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := cache.New(true, nil)
	calls := 0
	_, err := cache.Get(c, "key", func() (string, error) {
		calls++
		return "", errors.New("compiler crashed")
	})
	require.Error(t, err)

	value, err := cache.Get(c, "key", func() (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 2, calls)
}

func TestCacheCollapsesConcurrentRequests(t *testing.T) {
	c := cache.New(true, nil)
	var calls int32
	release := make(chan struct{})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cache.Get(c, "key", func() (string, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return "shared", nil
			})
		}(i)
	}

	// Give every goroutine a chance to queue up behind the first computation
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, result := range results {
		assert.Equal(t, "shared", result)
	}
}

func TestKey(t *testing.T) {
	style0 := vpath.Key{Path: "/a.vue", Kind: vpath.KindStyle, Index: 0}
	style1 := vpath.Key{Path: "/a.vue", Kind: vpath.KindStyle, Index: 1}

	assert.Equal(t, cache.Key(style0, "a {}", "data-v-1"), cache.Key(style0, "a {}", "data-v-1"))
	assert.NotEqual(t, cache.Key(style0, "a {}"), cache.Key(style1, "a {}"))
	assert.NotEqual(t, cache.Key(style0, "a {}"), cache.Key(style0, "b {}"))

	// Input boundaries are part of the fingerprint
	assert.NotEqual(t, cache.Key(style0, "ab", "c"), cache.Key(style0, "a", "bc"))
}

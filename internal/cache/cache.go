package cache

// This is a cache of compiled sub-modules. The idea is to avoid compiling the
// same block twice within a build, and to let the template compiler reuse the
// script compilation it depends on. This only works if:
//
//   - Cached values are considered immutable. Callers share them by reference.
//
//   - The key captures everything the computation depends on. Keys are built
//     with Key, which mixes a fingerprint of the inputs into the module
//     identity, so that an incremental rebuild after an edit never sees the
//     output computed for the old contents.
//
// Computations that fail with an error are not stored. Concurrent requests for
// the same key while the first computation is still running wait for it and
// share its result, so there is at most one computation in flight per key.

import (
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/minio/highwayhash"
	"github.com/pipe01/esbuild-plugin-vue3/internal/vpath"
	"golang.org/x/sync/singleflight"
)

type BuildCache struct {
	enabled bool
	logger  *log.Logger

	group   singleflight.Group
	mutex   sync.Mutex
	entries map[string]interface{}
}

// When "enabled" is false every call runs its computation. This is for hosts
// that already invalidate everything upstream and must never see stale data.
func New(enabled bool, logger *log.Logger) *BuildCache {
	return &BuildCache{
		enabled: enabled,
		logger:  logger,
		entries: make(map[string]interface{}),
	}
}

func (c *BuildCache) Enabled() bool {
	return c != nil && c.enabled
}

func (c *BuildCache) lookup(key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *BuildCache) store(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = value
}

func (c *BuildCache) get(key string, compute func() (interface{}, error)) (interface{}, error) {
	if c == nil || !c.enabled {
		return compute()
	}

	if value, ok := c.lookup(key); ok {
		c.debug("Cache hit", key)
		return value, nil
	}

	value, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have finished and stored the value between our
		// lookup and the start of this call
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		c.debug("Cache miss", key)
		value, err := compute()
		if err == nil {
			c.store(key, value)
		}
		return value, err
	})
	if shared {
		c.debug("Joined in-flight computation", key)
	}
	return value, err
}

func (c *BuildCache) debug(msg string, key string) {
	if c.logger != nil {
		c.logger.Debug(msg, "key", key)
	}
}

func (c *BuildCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// A typed wrapper around the untyped entry map. All values stored under one
// key must have the same type.
func Get[T any](c *BuildCache, key string, compute func() (T, error)) (T, error) {
	value, err := c.get(key, func() (interface{}, error) {
		return compute()
	})
	if err != nil || value == nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

var fingerprintKey = []byte("sfc-build-cache-fingerprint-key!")

// Builds an opaque cache key from a module identity plus every input the
// computation depends on.
func Key(key vpath.Key, inputs ...string) string {
	var buffer []byte
	for _, input := range inputs {
		buffer = strconv.AppendInt(buffer, int64(len(input)), 10)
		buffer = append(buffer, ':')
		buffer = append(buffer, input...)
	}
	sum := highwayhash.Sum64(buffer, fingerprintKey)
	return key.String() + "@" + strconv.FormatUint(sum, 16)
}

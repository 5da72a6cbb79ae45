// Copyright (C) 2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type TTLCacheItem[V any] struct {
	value   V
	expires time.Time
}

// TTLCache expires entries a fixed duration after they were fetched.
// Concurrent fetches of the same key share one call to the fetch function.
type TTLCache[K comparable, V any] struct {
	data    map[K]TTLCacheItem[V]
	ttl     time.Duration
	lock    sync.RWMutex
	sfGroup singleflight.Group
}

func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		data: make(map[K]TTLCacheItem[V]),
		ttl:  ttl,
	}
}

// Get checks if the cached value is fresh for a given key, otherwise fetches
// the value using fetchFunc. Concurrent fetches for the same key are deduplicated.
// If [invalidate] is true, the value is cleared from the cache prior to fetching
// so that no other caller reads the stale value while the fetch is in flight.
func (c *TTLCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.Remove(key)
	} else if v, ok := c.Peek(key); ok {
		return v, nil
	}

	v, err, _ := c.sfGroup.Do(keyToString(key), func() (interface{}, error) {
		newValue, fetchErr := fetchFunc(key)
		if fetchErr != nil {
			return *new(V), fetchErr
		}

		now := time.Now()
		c.lock.Lock()
		c.pruneLocked(now)
		c.data[key] = TTLCacheItem[V]{
			value:   newValue,
			expires: now.Add(c.ttl),
		}
		c.lock.Unlock()

		return newValue, nil
	})
	if err != nil {
		return *new(V), err
	}
	return v.(V), nil
}

// Peek returns the value for key if it has not expired
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	c.lock.RLock()
	item, exists := c.data[key]
	c.lock.RUnlock()
	if !exists || !time.Now().Before(item.expires) {
		return *new(V), false
	}
	return item.value, true
}

func (c *TTLCache[K, V]) Remove(key K) {
	c.lock.Lock()
	delete(c.data, key)
	c.lock.Unlock()
}

// RemoveFunc removes every entry whose key satisfies match
func (c *TTLCache[K, V]) RemoveFunc(match func(K) bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for k := range c.data {
		if match(k) {
			delete(c.data, k)
		}
	}
}

// Len returns the number of entries, including expired ones not yet pruned
func (c *TTLCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.data)
}

func (c *TTLCache[K, V]) pruneLocked(now time.Time) {
	for k, item := range c.data {
		if !now.Before(item.expires) {
			delete(c.data, k)
		}
	}
}

// keyToString is defined to allow for both fmt.Stringer and primitive string types.
func keyToString[K comparable](key K) string {
	if s, ok := any(key).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", key)
}

// Copyright (C) 2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a bounded cache for immutable data such as ciphertexts, which
// never expire but may be evicted.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

func NewLRUCache[K comparable, V any](size int) (*LRUCache[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache[K, V]{cache: c}, nil
}

// Get checks if the cached value exists for a given key, otherwise fetches
// the value using fetchFunc. If [invalidate] is true, the value will be
// cleared from the cache prior to fetching.
func (c *LRUCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.cache.Remove(key)
	} else if value, found := c.cache.Get(key); found {
		return value, nil
	}

	newValue, err := fetchFunc(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, newValue)
	return newValue, nil
}

// Put stores value under key, evicting the least recently used entry when full
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.cache.Add(key, value)
}

// Peek returns the value for key without updating its recency
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	return c.cache.Peek(key)
}

func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}

// Copyright 2024 The lumenchain Authors
// This file is part of the lumenchain library.
//
// The lumenchain library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lumenchain library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

package common

import lru "github.com/hashicorp/golang-lru"

// HashCache is a small, fixed-capacity, concurrency-safe LRU of recently
// observed hashes. It never needs to be exhaustive: callers use it only to
// skip an already-inflight round trip (e.g. not re-requesting a body for a
// hash this worker already asked a peer for), never to decide correctness.
// The engine's own blocks/mempool maps remain the source of truth and are
// never backed by an evicting cache.
type HashCache struct {
	lru *lru.Cache
}

// NewHashCache builds a cache holding at most size recently-added hashes.
func NewHashCache(size int) *HashCache {
	c, err := lru.New(size)
	if err != nil {
		// lru.New only fails for size <= 0, which is a programmer error.
		panic(err)
	}
	return &HashCache{lru: c}
}

// Add records h as seen, evicting the least recently used entry if full.
func (c *HashCache) Add(h Hash) { c.lru.Add(h, struct{}{}) }

// Contains reports whether h was recently added.
func (c *HashCache) Contains(h Hash) bool { return c.lru.Contains(h) }

// Package cache keeps recent extraction results keyed by document checksum
// and tag mapping generation.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tsawler/slidetag"
)

// Entry is a cached extraction result.
type Entry struct {
	Slides   []slidetag.SlideRecord
	Warnings []slidetag.Warning
}

// Cache is a size and age bounded LRU of extraction results. It is safe for
// concurrent use. A nil *Cache is a valid cache that never hits.
type Cache struct {
	lru *expirable.LRU[string, Entry]
}

// New returns a cache holding at most size entries, each for at most ttl.
// A zero ttl disables expiry.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

// Checksum returns the hex encoded SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the entry stored under key.
func (c *Cache) Get(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	return c.lru.Get(key)
}

// Add stores e under key, evicting the least recently used entry when full.
func (c *Cache) Add(key string, e Entry) {
	if c == nil {
		return
	}
	c.lru.Add(key, e)
}

// Purge drops every entry. Results depend on the tag mapping, so the cache
// is purged whenever the mapping changes.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

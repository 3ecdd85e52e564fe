// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package target

import (
	"context"
	"maps"
	"sync"
)

// Entry is the cached destination of one bucket. At most one field is set.
type Entry struct {
	Topic    string `json:"topic,omitempty"`
	Function string `json:"lambda,omitempty"`
}

// EntryFor converts a target into its cache entry.
func EntryFor(t Target) Entry {
	switch t.Kind {
	case KindTopic:
		return Entry{Topic: t.ID}
	case KindFunction:
		return Entry{Function: t.ID}
	default:
		return Entry{}
	}
}

// Target returns the destination recorded in the entry.
func (e Entry) Target() (Target, bool) {
	switch {
	case e.Topic != "":
		return Topic(e.Topic), true
	case e.Function != "":
		return Function(e.Function), true
	default:
		return Target{}, false
	}
}

// Cache maps buckets to their resolved destination for the lifetime of one
// run. It is shared by all workers; concurrent misses on the same bucket wait
// for a single lookup instead of issuing their own.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]Entry
	inflight map[string]chan struct{}
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]Entry),
		inflight: make(map[string]chan struct{}),
	}
}

// Get returns the entry for a bucket.
func (c *Cache) Get(bucket string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[bucket]
	return e, ok
}

// Len returns the number of cached buckets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.entries)
}

// getOrFill returns the cached entry for bucket, or runs fill and stores its
// result. Only one fill per bucket runs at a time; other callers block until
// it finishes and then re-check. A failed fill stores nothing, so waiters go
// on to try their own. hit reports whether the entry came from the cache.
func (c *Cache) getOrFill(ctx context.Context, bucket string, fill func() (Entry, error)) (e Entry, hit bool, err error) {
	for {
		c.mu.Lock()
		if e, ok := c.entries[bucket]; ok {
			c.mu.Unlock()
			return e, true, nil
		}

		if wait, ok := c.inflight[bucket]; ok {
			c.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return Entry{}, false, ctx.Err()
			}
		}

		done := make(chan struct{})
		c.inflight[bucket] = done
		c.mu.Unlock()

		e, err = fill()

		c.mu.Lock()
		delete(c.inflight, bucket)
		if err == nil {
			c.entries[bucket] = e
		}
		c.mu.Unlock()
		close(done)

		return e, false, err
	}
}

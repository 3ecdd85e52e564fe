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
	"fmt"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/s3"
)

// ConfigLookup reads a bucket's notification configuration.
type ConfigLookup interface {
	NotificationTargets(ctx context.Context, bucket string) (s3.NotificationTargets, error)
}

// Resolver picks the destination for a bucket's events.
type Resolver struct {
	lookup ConfigLookup
	logger adapters.Logger
}

// NewResolver creates a resolver backed by the given configuration lookup.
func NewResolver(lookup ConfigLookup, logger adapters.Logger) *Resolver {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the destination for bucket. An explicit topic wins over an
// explicit function; without either the cache is consulted, and on a miss
// the bucket's configuration is read and the result cached. A topic
// configuration is preferred over a function one. Buckets with neither
// return common.ErrNoTarget and nothing is cached. A nil cache always
// performs the live lookup.
func (r *Resolver) Resolve(ctx context.Context, bucket string, ov Override, cache *Cache) (Target, error) {
	if err := ov.Validate(); err != nil {
		return Target{}, err
	}

	if t, ok := ov.Target(); ok {
		return t, nil
	}

	if cache == nil {
		e, err := r.live(ctx, bucket)
		if err != nil {
			return Target{}, err
		}
		t, _ := e.Target()
		return t, nil
	}

	e, hit, err := cache.getOrFill(ctx, bucket, func() (Entry, error) {
		return r.live(ctx, bucket)
	})
	if err != nil {
		return Target{}, err
	}

	t, ok := e.Target()
	if !ok {
		// Only reachable if an empty entry was stored, which live never returns.
		return Target{}, fmt.Errorf("%w for bucket %q", common.ErrNoTarget, bucket)
	}

	if hit {
		r.logger.Debug(ctx, "Target from cache",
			adapters.F("bucket", bucket),
			adapters.F("target", t.String()))
	}
	return t, nil
}

// live reads the bucket configuration and converts it into a cache entry.
func (r *Resolver) live(ctx context.Context, bucket string) (Entry, error) {
	targets, err := r.lookup.NotificationTargets(ctx, bucket)
	if err != nil {
		return Entry{}, common.NewRemoteError(common.ErrTargetLookupFailed, "could not get bucket event target", err)
	}

	var t Target
	switch {
	case len(targets.Topics) > 0:
		t = Topic(targets.Topics[0])
	case len(targets.Functions) > 0:
		t = Function(targets.Functions[0])
	default:
		return Entry{}, fmt.Errorf("%w for bucket %q", common.ErrNoTarget, bucket)
	}

	r.logger.Info(ctx, "Target is "+t.Kind.String(),
		adapters.F("bucket", bucket),
		adapters.F("target", t.ID))

	return EntryFor(t), nil
}

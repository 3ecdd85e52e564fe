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

// Package touch replays a synthetic object-created notification for existing
// S3 objects. A single Touch runs parse, HEAD, build, resolve and dispatch in
// that order; TouchAll and TouchPrefix fan paths out over a worker pool that
// shares one target cache.
package touch

import (
	"context"
	"errors"
	"iter"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/dispatch"
	"github.com/jeremyhahn/s3touch/pkg/event"
	"github.com/jeremyhahn/s3touch/pkg/s3"
	"github.com/jeremyhahn/s3touch/pkg/target"
	"github.com/jeremyhahn/s3touch/pkg/validation"
	"github.com/jeremyhahn/s3touch/pkg/workers"
)

// Result is the outcome of touching one path.
type Result struct {
	Path       string        `json:"path"`
	Target     target.Target `json:"-"`
	TargetName string        `json:"target,omitempty"`
	Size       int64         `json:"size"`
	MessageID  string        `json:"message_id,omitempty"`
	StatusCode int32         `json:"status_code,omitempty"`
	DryRun     bool          `json:"dry_run,omitempty"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// Failure returns the result of a path that failed with err.
func Failure(path string, err error) Result {
	return Result{Path: path, Err: err, Error: err.Error()}
}

// Failed reports whether the path was not delivered.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Toucher wires the object store, event builder, resolver and dispatcher.
// One Toucher is one run: its target cache lives as long as it does.
type Toucher struct {
	objects       *s3.Client
	builder       *event.Builder
	resolver      *target.Resolver
	dispatcher    *dispatch.Dispatcher
	cache         *target.Cache
	logger        adapters.Logger
	override      target.Override
	requesterPays bool
	rate          float64
}

// Option configures a Toucher.
type Option func(*Toucher)

// WithLogger sets the logger.
func WithLogger(logger adapters.Logger) Option {
	return func(t *Toucher) {
		t.logger = logger
	}
}

// WithOverride sends every event to an explicit topic or function.
func WithOverride(ov target.Override) Option {
	return func(t *Toucher) {
		t.override = ov
	}
}

// WithRequesterPays marks HEAD and list calls as requester-pays.
func WithRequesterPays(enabled bool) Option {
	return func(t *Toucher) {
		t.requesterPays = enabled
	}
}

// WithRate limits bulk runs to n dispatches per second. Zero disables it.
func WithRate(n float64) Option {
	return func(t *Toucher) {
		t.rate = n
	}
}

// WithCache shares an existing target cache.
func WithCache(cache *target.Cache) Option {
	return func(t *Toucher) {
		t.cache = cache
	}
}

// New creates a Toucher with a fresh target cache.
func New(objects *s3.Client, builder *event.Builder, resolver *target.Resolver, dispatcher *dispatch.Dispatcher, opts ...Option) *Toucher {
	t := &Toucher{
		objects:    objects,
		builder:    builder,
		resolver:   resolver,
		dispatcher: dispatcher,
		cache:      target.NewCache(),
		logger:     adapters.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cache returns the run's target cache.
func (t *Toucher) Cache() *target.Cache {
	return t.cache
}

// Validate checks the configured override.
func (t *Toucher) Validate() error {
	return t.override.Validate()
}

// Event builds the notification for path without resolving or dispatching.
func (t *Toucher) Event(ctx context.Context, path string) (event.Notification, error) {
	p, err := validation.ParsePath(path)
	if err != nil {
		return event.Notification{}, err
	}
	md, err := t.objects.FetchMetadata(ctx, p.Bucket, p.Key, t.requesterPays)
	if err != nil {
		return event.Notification{}, err
	}
	return t.builder.Build(p.Bucket, p.Key, md), nil
}

// Touch replays the event for a single path. The returned Result always
// carries the path; on failure its Err matches the returned error.
func (t *Toucher) Touch(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}
	fail := func(err error) (Result, error) {
		res.Err = err
		res.Error = err.Error()
		return res, err
	}

	if err := t.override.Validate(); err != nil {
		return fail(err)
	}

	p, err := validation.ParsePath(path)
	if err != nil {
		return fail(err)
	}

	md, err := t.objects.FetchMetadata(ctx, p.Bucket, p.Key, t.requesterPays)
	if err != nil {
		return fail(err)
	}
	res.Size = md.Size

	n := t.builder.Build(p.Bucket, p.Key, md)

	tgt, err := t.resolver.Resolve(ctx, p.Bucket, t.override, t.cache)
	if err != nil {
		return fail(err)
	}
	res.Target = tgt
	res.TargetName = tgt.String()

	out, err := t.dispatcher.Dispatch(ctx, tgt, n)
	if err != nil {
		return fail(err)
	}
	res.MessageID = out.MessageID
	res.StatusCode = out.StatusCode
	res.DryRun = out.DryRun

	t.logger.Debug(ctx, "Touched object",
		adapters.F("path", path),
		adapters.F("target", res.TargetName),
		adapters.F("size", md.Size))

	return res, nil
}

// TouchAll touches every path using up to n concurrent workers. Results are
// returned in input order alongside the pool counters.
func (t *Toucher) TouchAll(ctx context.Context, paths []string, n int) ([]Result, workers.Metrics) {
	return t.run(ctx, func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}, n)
}

// TouchPrefix lists every object under prefix and touches each one as it is
// listed. Results follow listing order. A listing failure is recorded as a
// failed result for the prefix and stops the run.
func (t *Toucher) TouchPrefix(ctx context.Context, prefix string, n int) ([]Result, workers.Metrics) {
	return t.run(ctx, func(yield func(string, error) bool) {
		for p, err := range t.objects.List(ctx, prefix, t.requesterPays) {
			if err != nil {
				yield(prefix, err)
				return
			}
			if !yield(p.String(), nil) {
				return
			}
		}
	}, n)
}

func (t *Toucher) run(ctx context.Context, paths iter.Seq2[string, error], n int) ([]Result, workers.Metrics) {
	pool := workers.NewPool(ctx, workers.Config{
		WorkerCount:   n,
		Logger:        t.logger,
		RatePerSecond: t.rate,
	})
	pool.Start(t.process)

	processed := make(map[int]Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for wr := range pool.Results() {
			res, ok := wr.Value.(Result)
			if !ok {
				res = Result{Path: wr.Path, Err: wr.Err}
				if wr.Err != nil {
					res.Error = wr.Err.Error()
				}
			}
			processed[wr.Index] = res
		}
	}()

	// Once the pool refuses work the remaining paths are still drained so
	// each one gets a result. Only a listing error ends the sequence.
	var (
		submitted []string
		stopped   error
	)
	rejected := make(map[int]error)
	for p, err := range paths {
		i := len(submitted)
		submitted = append(submitted, p)
		if err != nil {
			rejected[i] = err
			break
		}
		if stopped != nil {
			rejected[i] = stopped
			continue
		}
		if err := pool.Submit(workers.WorkItem{Index: i, Path: p}); err != nil {
			stopped = err
			if ctxErr := ctx.Err(); ctxErr != nil {
				stopped = ctxErr
			}
			rejected[i] = stopped
		}
	}

	pool.Shutdown()
	<-done

	results := make([]Result, len(submitted))
	for i, p := range submitted {
		res, ok := processed[i]
		if !ok {
			err := rejected[i]
			if err == nil {
				err = ctx.Err()
			}
			if err == nil {
				err = workers.ErrPoolCancelled
			}
			res = Failure(p, err)
		}
		results[i] = res
	}

	m := pool.Metrics()
	t.logger.Info(ctx, "Run complete",
		adapters.F("paths", len(results)),
		adapters.F("succeeded", m.Succeeded),
		adapters.F("failed", m.Failed),
		adapters.F("no_target", m.Skipped))

	return results, m
}

func (t *Toucher) process(ctx context.Context, item workers.WorkItem) workers.WorkResult {
	res, err := t.Touch(ctx, item.Path)

	wr := workers.WorkResult{
		Index: item.Index,
		Path:  item.Path,
		Size:  res.Size,
		Err:   err,
		Value: res,
	}
	switch {
	case err == nil:
		wr.Outcome = workers.OutcomeSucceeded
	case errors.Is(err, common.ErrNoTarget):
		wr.Outcome = workers.OutcomeSkipped
	default:
		wr.Outcome = workers.OutcomeFailed
	}

	if err != nil {
		t.logger.Warn(ctx, "Touch failed", adapters.F("path", item.Path), adapters.F("error", err.Error()))
	}
	return wr
}

// Failures counts results that were not delivered.
func Failures(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}

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

// Package workers runs touch jobs on a bounded set of goroutines.
package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
)

var (
	// ErrPoolShuttingDown is returned by Submit after Shutdown.
	ErrPoolShuttingDown = errors.New("worker pool is shutting down")

	// ErrPoolCancelled is returned by Submit once the pool context is done.
	ErrPoolCancelled = errors.New("worker pool context cancelled")
)

// WorkItem is one path to touch. Index is its position in the input.
type WorkItem struct {
	Index int
	Path  string
}

// Outcome classifies a processed item.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	// OutcomeSkipped means the bucket had no notification target.
	OutcomeSkipped
)

// WorkResult is the outcome of one WorkItem.
type WorkResult struct {
	Index   int
	Path    string
	Outcome Outcome
	Size    int64
	Err     error
	// Value carries processor specific data back to the submitter.
	Value any
}

// Processor handles a single item.
type Processor func(context.Context, WorkItem) WorkResult

// Pool manages a fixed number of workers pulling from a shared queue.
type Pool struct {
	workerCount int
	workQueue   chan WorkItem
	resultQueue chan WorkResult
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      adapters.Logger
	limiter     *rate.Limiter

	shuttingDown atomic.Bool

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	bytes     atomic.Int64
}

// Config contains configuration for the pool.
type Config struct {
	WorkerCount int
	QueueSize   int
	Logger      adapters.Logger
	// RatePerSecond caps how many items start per second across all
	// workers. Zero or less means unlimited.
	RatePerSecond float64
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers.
func NewPool(ctx context.Context, config Config) *Pool {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.WorkerCount * 2
	}
	if config.Logger == nil {
		config.Logger = adapters.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workerCount: config.WorkerCount,
		workQueue:   make(chan WorkItem, config.QueueSize),
		resultQueue: make(chan WorkResult, config.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      config.Logger,
	}
	if config.RatePerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start(processor Processor) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i, processor)
	}
}

func (p *Pool) worker(id int, processor Processor) {
	defer p.wg.Done()

	p.logger.Debug(p.ctx, "Worker started", adapters.F("worker_id", id))

	for {
		select {
		case <-p.ctx.Done():
			return

		case item, ok := <-p.workQueue:
			if !ok {
				return
			}

			var result WorkResult
			if err := p.wait(); err != nil {
				result = WorkResult{Index: item.Index, Path: item.Path, Outcome: OutcomeFailed, Err: err}
			} else {
				result = processor(p.ctx, item)
			}
			p.record(result)

			select {
			case p.resultQueue <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) wait() error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(p.ctx)
}

func (p *Pool) record(result WorkResult) {
	p.processed.Add(1)
	switch result.Outcome {
	case OutcomeSucceeded:
		p.succeeded.Add(1)
		p.bytes.Add(result.Size)
	case OutcomeSkipped:
		p.skipped.Add(1)
	default:
		p.failed.Add(1)
	}
}

// Submit queues an item, blocking while the queue is full.
func (p *Pool) Submit(item WorkItem) error {
	if p.shuttingDown.Load() {
		return ErrPoolShuttingDown
	}
	if p.ctx.Err() != nil {
		return ErrPoolCancelled
	}

	select {
	case <-p.ctx.Done():
		return ErrPoolCancelled
	case p.workQueue <- item:
		return nil
	}
}

// Results returns the channel results are delivered on. It is closed by Shutdown.
func (p *Pool) Results() <-chan WorkResult {
	return p.resultQueue
}

// Shutdown stops accepting work, waits for queued items to finish and
// closes the result channel. Results must be drained concurrently.
func (p *Pool) Shutdown() {
	if !p.shuttingDown.CompareAndSwap(false, true) {
		return
	}

	close(p.workQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	m := p.Metrics()
	p.logger.Debug(context.Background(), "Worker pool shutdown complete",
		adapters.F("processed", m.Processed),
		adapters.F("succeeded", m.Succeeded),
		adapters.F("failed", m.Failed),
		adapters.F("skipped", m.Skipped))
}

// Metrics returns the current counters.
func (p *Pool) Metrics() Metrics {
	return Metrics{
		Processed: p.processed.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
		Bytes:     p.bytes.Load(),
	}
}

// Metrics contains counters about pool activity.
type Metrics struct {
	Processed int64 `json:"processed"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
	Bytes     int64 `json:"bytes"`
}

// Add returns the sum of two sets of counters.
func (m Metrics) Add(o Metrics) Metrics {
	return Metrics{
		Processed: m.Processed + o.Processed,
		Succeeded: m.Succeeded + o.Succeeded,
		Failed:    m.Failed + o.Failed,
		Skipped:   m.Skipped + o.Skipped,
		Bytes:     m.Bytes + o.Bytes,
	}
}

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

package cli

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/dispatch"
	"github.com/jeremyhahn/s3touch/pkg/event"
	"github.com/jeremyhahn/s3touch/pkg/factory"
	"github.com/jeremyhahn/s3touch/pkg/s3"
	"github.com/jeremyhahn/s3touch/pkg/target"
	"github.com/jeremyhahn/s3touch/pkg/touch"
	"github.com/jeremyhahn/s3touch/pkg/workers"
)

// CommandContext holds the context for executing commands.
type CommandContext struct {
	Config  *Config
	Logger  adapters.Logger
	RunID   string
	Toucher *touch.Toucher
}

// NewLogger builds the run logger from the configuration.
func NewLogger(cfg *Config, w io.Writer) (adapters.Logger, error) {
	level, err := adapters.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, ErrInvalidLogLevel
	}
	return adapters.NewLogger(adapters.Options{Output: w, Level: level, JSON: cfg.LogJSON}), nil
}

// NewCommandContext validates the configuration and connects to AWS.
func NewCommandContext(ctx context.Context, cfg *Config, logger adapters.Logger) (*CommandContext, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	clients, err := factory.New(ctx, cfg.FactoryOptions())
	if err != nil {
		return nil, err
	}

	return NewCommandContextWithClients(cfg, logger, clients.S3, clients.SNS, clients.Lambda), nil
}

// NewCommandContextWithClients wires a context over existing service clients.
// The configuration is assumed to be valid.
func NewCommandContextWithClients(cfg *Config, logger adapters.Logger, objects s3.API, topics dispatch.TopicAPI, functions dispatch.FunctionAPI) *CommandContext {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	runID := uuid.NewString()
	logger = logger.WithFields(adapters.F("run_id", runID))

	client := s3.New(objects, logger)
	toucher := touch.New(
		client,
		event.NewBuilder(cfg.Region),
		target.NewResolver(client, logger),
		dispatch.New(topics, functions, dispatch.WithLogger(logger), dispatch.WithDryRun(cfg.DryRun)),
		touch.WithLogger(logger),
		touch.WithOverride(cfg.Override()),
		touch.WithRequesterPays(cfg.RequesterPays),
		touch.WithRate(cfg.Rate),
	)

	return &CommandContext{
		Config:  cfg,
		Logger:  logger,
		RunID:   runID,
		Toucher: toucher,
	}
}

// Close releases resources held by the context.
func (c *CommandContext) Close() error {
	// The AWS clients hold no resources that need closing.
	return nil
}

// TouchCommand touches every path, or every object under each path when
// recursive is configured. It returns ErrTouchFailed alongside the full
// results when any path failed.
func (c *CommandContext) TouchCommand(ctx context.Context, paths []string) ([]touch.Result, workers.Metrics, error) {
	if len(paths) == 0 {
		return nil, workers.Metrics{}, ErrNoPaths
	}

	c.Logger.Info(ctx, "Starting run",
		adapters.F("paths", len(paths)),
		adapters.F("workers", c.Config.Workers),
		adapters.F("recursive", c.Config.Recursive),
		adapters.F("dry_run", c.Config.DryRun))

	var (
		results []touch.Result
		metrics workers.Metrics
	)
	if c.Config.Recursive {
		for i, prefix := range paths {
			if err := ctx.Err(); err != nil {
				for _, p := range paths[i:] {
					results = append(results, touch.Failure(p, err))
				}
				break
			}
			res, m := c.Toucher.TouchPrefix(ctx, prefix, c.Config.Workers)
			results = append(results, res...)
			metrics = metrics.Add(m)
		}
	} else {
		results, metrics = c.Toucher.TouchAll(ctx, paths, c.Config.Workers)
	}

	for bucket, e := range c.Toucher.Cache().Snapshot() {
		t, _ := e.Target()
		c.Logger.Debug(ctx, "Resolved bucket target",
			adapters.F("bucket", bucket),
			adapters.F("target", t.String()))
	}

	if touch.Failures(results) > 0 {
		return results, metrics, ErrTouchFailed
	}
	return results, metrics, nil
}

// EventCommand builds the notification for path without sending it.
func (c *CommandContext) EventCommand(ctx context.Context, path string) (event.Notification, error) {
	return c.Toucher.Event(ctx, path)
}

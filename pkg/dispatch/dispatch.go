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

// Package dispatch delivers synthetic notifications to SNS topics and Lambda functions.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/event"
	"github.com/jeremyhahn/s3touch/pkg/target"
)

// ErrUnknownTarget is returned for a target with no kind set.
var ErrUnknownTarget = errors.New("unknown target kind")

// TopicAPI is the subset of the SNS client used here.
type TopicAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// FunctionAPI is the subset of the Lambda client used here.
type FunctionAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Result describes an accepted delivery.
type Result struct {
	Target target.Target `json:"target"`
	// MessageID is set for topic deliveries.
	MessageID string `json:"message_id,omitempty"`
	// StatusCode is set for function deliveries (202 when accepted).
	StatusCode int32 `json:"status_code,omitempty"`
	DryRun     bool  `json:"dry_run,omitempty"`
}

// Dispatcher sends a notification to exactly one target.
type Dispatcher struct {
	topics    TopicAPI
	functions FunctionAPI
	logger    adapters.Logger
	dryRun    bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(logger adapters.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDryRun makes the dispatcher log deliveries instead of performing them.
func WithDryRun(dryRun bool) Option {
	return func(d *Dispatcher) {
		d.dryRun = dryRun
	}
}

// New creates a dispatcher over the given SNS and Lambda clients.
func New(topics TopicAPI, functions FunctionAPI, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		topics:    topics,
		functions: functions,
		logger:    adapters.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch serializes n and delivers it to t. Topic deliveries wait for the
// publish to be acknowledged; function deliveries use the asynchronous
// "Event" invocation type and return once the invocation is accepted.
func (d *Dispatcher) Dispatch(ctx context.Context, t target.Target, n event.Notification) (Result, error) {
	payload, err := n.Marshal()
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode event: %w", err)
	}

	if d.dryRun {
		d.logger.Info(ctx, "Dry run, event not sent",
			adapters.F("target", t.String()),
			adapters.F("payload", string(payload)))
		return Result{Target: t, DryRun: true}, nil
	}

	switch t.Kind {
	case target.KindTopic:
		return d.publish(ctx, t, payload)
	case target.KindFunction:
		return d.invoke(ctx, t, payload)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTarget, t.String())
	}
}

func (d *Dispatcher) publish(ctx context.Context, t target.Target, payload []byte) (Result, error) {
	out, err := d.topics.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.ID),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return Result{}, common.NewRemoteError(common.ErrPublishFailed, "could not send SNS message", err)
	}

	d.logger.Debug(ctx, "Published event",
		adapters.F("topic", t.ID),
		adapters.F("message_id", aws.ToString(out.MessageId)))

	return Result{Target: t, MessageID: aws.ToString(out.MessageId)}, nil
}

func (d *Dispatcher) invoke(ctx context.Context, t target.Target, payload []byte) (Result, error) {
	out, err := d.functions.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(t.ID),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return Result{}, common.NewRemoteError(common.ErrInvokeFailed, "could not trigger lambda", err)
	}

	if fnErr := aws.ToString(out.FunctionError); fnErr != "" {
		return Result{}, common.NewRemoteError(common.ErrInvokeFailed, "could not trigger lambda", fmt.Errorf("function error: %s", fnErr))
	}
	if out.StatusCode < 200 || out.StatusCode > 299 {
		return Result{}, common.NewRemoteError(common.ErrInvokeFailed, "could not trigger lambda", fmt.Errorf("unexpected status code %d", out.StatusCode))
	}

	d.logger.Debug(ctx, "Invoked function",
		adapters.F("function", t.ID),
		adapters.F("status", out.StatusCode))

	return Result{Target: t, StatusCode: out.StatusCode}, nil
}

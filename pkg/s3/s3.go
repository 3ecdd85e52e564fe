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

// Package s3 wraps the S3 calls the touch pipeline needs: object HEAD,
// bucket notification configuration and marker-based listing.
package s3

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/common"
)

// API is the subset of the S3 client used here.
//
//nolint:lll
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetBucketNotificationConfiguration(ctx context.Context, params *s3.GetBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketNotificationConfigurationOutput, error)
	ListObjects(ctx context.Context, params *s3.ListObjectsInput, optFns ...func(*s3.Options)) (*s3.ListObjectsOutput, error)
}

// Client performs the S3 side of a touch.
type Client struct {
	svc    API
	logger adapters.Logger
}

// New creates a Client over the given API. A nil logger discards output.
func New(svc API, logger adapters.Logger) *Client {
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}
	return &Client{svc: svc, logger: logger}
}

// FetchMetadata HEADs an object and returns its size and unquoted ETag.
// With requesterPays set the request declares the caller as payer.
func (c *Client) FetchMetadata(ctx context.Context, bucket, key string, requesterPays bool) (common.ObjectMetadata, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	out, err := c.svc.HeadObject(ctx, input)
	if err != nil {
		return common.ObjectMetadata{}, common.NewRemoteError(classifyHeadError(err), "could not HEAD object", err)
	}

	return common.ObjectMetadata{
		Size: aws.ToInt64(out.ContentLength),
		ETag: unquoteETag(aws.ToString(out.ETag)),
	}, nil
}

// NotificationTargets lists the topic and function destinations configured on a bucket.
type NotificationTargets struct {
	Topics    []string
	Functions []string
}

// NotificationTargets reads the bucket's notification configuration. Queue
// destinations are ignored. The remote error is returned unwrapped.
func (c *Client) NotificationTargets(ctx context.Context, bucket string) (NotificationTargets, error) {
	out, err := c.svc.GetBucketNotificationConfiguration(ctx, &s3.GetBucketNotificationConfigurationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return NotificationTargets{}, err
	}

	var targets NotificationTargets
	for _, tc := range out.TopicConfigurations {
		if arn := aws.ToString(tc.TopicArn); arn != "" {
			targets.Topics = append(targets.Topics, arn)
		}
	}
	for _, fc := range out.LambdaFunctionConfigurations {
		if arn := aws.ToString(fc.LambdaFunctionArn); arn != "" {
			targets.Functions = append(targets.Functions, arn)
		}
	}

	c.logger.Debug(ctx, "Read bucket notification configuration",
		adapters.F("bucket", bucket),
		adapters.F("topics", len(targets.Topics)),
		adapters.F("functions", len(targets.Functions)))

	return targets, nil
}

// classifyHeadError maps a HEAD failure onto the metadata error taxonomy.
func classifyHeadError(err error) error {
	switch common.ErrorCode(err) {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return common.ErrObjectNotFound
	case "AccessDenied", "Forbidden":
		return common.ErrAccessDenied
	}

	switch common.StatusCode(err) {
	case 404:
		return common.ErrObjectNotFound
	case 403:
		return common.ErrAccessDenied
	}

	return common.ErrTransient
}

// unquoteETag turns the quoted ETag header value into its bare token.
func unquoteETag(etag string) string {
	if unquoted, err := strconv.Unquote(etag); err == nil {
		return unquoted
	}
	return strings.Trim(etag, `"`)
}

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

// Package s3test provides an in-memory S3 API for tests of the s3touch
// packages.
package s3test

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Object is an object held by API.
type Object struct {
	Size int64
	// ETag is stored quoted, the way S3 returns it.
	ETag string
}

// API is an in-memory implementation of the s3 package's API interface. It
// is safe for concurrent use.
type API struct {
	mu sync.Mutex

	// Objects maps bucket -> key -> object.
	Objects map[string]map[string]Object

	// Notifications maps bucket -> notification configuration.
	Notifications map[string]*s3.GetBucketNotificationConfigurationOutput

	// RequesterPays marks buckets whose HEAD and list calls fail unless the
	// request declares the requester as payer.
	RequesterPays map[string]bool

	// Pages, when set for a bucket, are returned in order by ListObjects
	// instead of listing Objects.
	Pages map[string][]*s3.ListObjectsOutput

	HeadErr         error
	NotificationErr error
	ListErr         error
	// ListErrOnPage fails the Nth ListObjects call (1-based) with ListErr.
	ListErrOnPage int

	HeadCalls         int
	NotificationCalls int
	ListCalls         int
	// Markers records the Marker of every ListObjects call ("" for none).
	Markers []string
}

// NewAPI returns an empty API.
func NewAPI() *API {
	return &API{
		Objects:       make(map[string]map[string]Object),
		Notifications: make(map[string]*s3.GetBucketNotificationConfigurationOutput),
		RequesterPays: make(map[string]bool),
		Pages:         make(map[string][]*s3.ListObjectsOutput),
	}
}

// PutObject adds an object with a quoted ETag.
func (m *API) PutObject(bucket, key string, size int64, etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Objects[bucket] == nil {
		m.Objects[bucket] = make(map[string]Object)
	}
	m.Objects[bucket][key] = Object{Size: size, ETag: `"` + etag + `"`}
}

// SetTopic configures a bucket to notify the given topic.
func (m *API) SetTopic(bucket, arn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications[bucket] = &s3.GetBucketNotificationConfigurationOutput{
		TopicConfigurations: []types.TopicConfiguration{{TopicArn: aws.String(arn)}},
	}
}

// SetFunction configures a bucket to notify the given function.
func (m *API) SetFunction(bucket, arn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications[bucket] = &s3.GetBucketNotificationConfigurationOutput{
		LambdaFunctionConfigurations: []types.LambdaFunctionConfiguration{{LambdaFunctionArn: aws.String(arn)}},
	}
}

// HeadObject returns the size and ETag of a stored object.
func (m *API) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeadCalls++

	if m.HeadErr != nil {
		return nil, m.HeadErr
	}

	bucket := aws.ToString(params.Bucket)
	if m.RequesterPays[bucket] && params.RequestPayer != types.RequestPayerRequester {
		return nil, HTTPError(http.StatusForbidden, "AccessDenied", "Access Denied")
	}

	obj, ok := m.Objects[bucket][aws.ToString(params.Key)]
	if !ok {
		return nil, HTTPError(http.StatusNotFound, "NotFound", "")
	}

	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(obj.Size),
		ETag:          aws.String(obj.ETag),
	}, nil
}

// GetBucketNotificationConfiguration returns the bucket's configured targets.
func (m *API) GetBucketNotificationConfiguration(ctx context.Context, params *s3.GetBucketNotificationConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketNotificationConfigurationOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationCalls++

	if m.NotificationErr != nil {
		return nil, m.NotificationErr
	}
	if out, ok := m.Notifications[aws.ToString(params.Bucket)]; ok {
		return out, nil
	}
	return &s3.GetBucketNotificationConfigurationOutput{}, nil
}

// ListObjects lists one page of keys after the request marker.
func (m *API) ListObjects(ctx context.Context, params *s3.ListObjectsInput, optFns ...func(*s3.Options)) (*s3.ListObjectsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	m.Markers = append(m.Markers, aws.ToString(params.Marker))

	if m.ListErr != nil && (m.ListErrOnPage == 0 || m.ListErrOnPage == m.ListCalls) {
		return nil, m.ListErr
	}

	bucket := aws.ToString(params.Bucket)
	if m.RequesterPays[bucket] && params.RequestPayer != types.RequestPayerRequester {
		return nil, HTTPError(http.StatusForbidden, "AccessDenied", "Access Denied")
	}

	if pages, ok := m.Pages[bucket]; ok {
		idx := m.ListCalls - 1
		if idx >= len(pages) {
			return &s3.ListObjectsOutput{IsTruncated: aws.Bool(false)}, nil
		}
		return pages[idx], nil
	}

	out := &s3.ListObjectsOutput{IsTruncated: aws.Bool(false)}
	for _, key := range slices.Sorted(maps.Keys(m.Objects[bucket])) {
		if !strings.HasPrefix(key, aws.ToString(params.Prefix)) || key <= aws.ToString(params.Marker) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

// HTTPError builds an error shaped like the ones the SDK returns for a
// failed HTTP call with the given status, error code and message.
func HTTPError(status int, code, message string) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      &smithy.GenericAPIError{Code: code, Message: message},
		},
	}
}

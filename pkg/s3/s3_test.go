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

package s3

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/s3/s3test"
)

var _ API = (*s3test.API)(nil)

func TestClient_FetchMetadata(t *testing.T) {
	api := s3test.NewAPI()
	api.PutObject("mybucket", "dir/file.bin", 1024, "abc123")
	c := New(api, nil)

	md, err := c.FetchMetadata(context.Background(), "mybucket", "dir/file.bin", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), md.Size)
	assert.Equal(t, "abc123", md.ETag)
	assert.Equal(t, 1, api.HeadCalls)
}

func TestClient_FetchMetadata_MultipartETag(t *testing.T) {
	api := s3test.NewAPI()
	api.PutObject("b", "k", 5, "9b2cf535f27731c974343645a3985328-3")
	c := New(api, nil)

	md, err := c.FetchMetadata(context.Background(), "b", "k", false)
	require.NoError(t, err)
	assert.Equal(t, "9b2cf535f27731c974343645a3985328-3", md.ETag)
}

func TestClient_FetchMetadata_RequesterPays(t *testing.T) {
	api := s3test.NewAPI()
	api.PutObject("paid", "k", 10, "e")
	api.RequesterPays["paid"] = true
	c := New(api, nil)

	_, err := c.FetchMetadata(context.Background(), "paid", "k", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAccessDenied)

	md, err := c.FetchMetadata(context.Background(), "paid", "k", true)
	require.NoError(t, err)
	assert.Equal(t, int64(10), md.Size)
}

func TestClient_FetchMetadata_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind error
		wantMsg  string
	}{
		{
			name:     "not found uses status code",
			err:      s3test.HTTPError(http.StatusNotFound, "NotFound", ""),
			wantKind: common.ErrObjectNotFound,
			wantMsg:  `could not HEAD object ("404")`,
		},
		{
			name:     "no such bucket",
			err:      s3test.HTTPError(http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist"),
			wantKind: common.ErrObjectNotFound,
			wantMsg:  `could not HEAD object ("The specified bucket does not exist")`,
		},
		{
			name:     "forbidden",
			err:      s3test.HTTPError(http.StatusForbidden, "Forbidden", ""),
			wantKind: common.ErrAccessDenied,
			wantMsg:  `could not HEAD object ("403")`,
		},
		{
			name:     "throttled",
			err:      s3test.HTTPError(http.StatusServiceUnavailable, "SlowDown", "Please reduce your request rate."),
			wantKind: common.ErrTransient,
			wantMsg:  `could not HEAD object ("Please reduce your request rate.")`,
		},
		{
			name:     "network failure",
			err:      errors.New("dial tcp: connection refused"),
			wantKind: common.ErrTransient,
			wantMsg:  `could not HEAD object ("dial tcp: connection refused")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := s3test.NewAPI()
			api.HeadErr = tt.err
			c := New(api, nil)

			_, err := c.FetchMetadata(context.Background(), "b", "k", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestClient_FetchMetadata_MissingObject(t *testing.T) {
	c := New(s3test.NewAPI(), nil)

	_, err := c.FetchMetadata(context.Background(), "b", "missing", false)
	assert.ErrorIs(t, err, common.ErrObjectNotFound)
}

func TestClient_NotificationTargets(t *testing.T) {
	api := s3test.NewAPI()
	api.Notifications["mixed"] = &s3.GetBucketNotificationConfigurationOutput{
		TopicConfigurations: []types.TopicConfiguration{
			{TopicArn: aws.String("arn:aws:sns:us-east-1:1:a")},
			{TopicArn: nil},
		},
		LambdaFunctionConfigurations: []types.LambdaFunctionConfiguration{
			{LambdaFunctionArn: aws.String("arn:aws:lambda:us-east-1:1:function:f")},
		},
		QueueConfigurations: []types.QueueConfiguration{
			{QueueArn: aws.String("arn:aws:sqs:us-east-1:1:q")},
		},
	}
	c := New(api, nil)

	targets, err := c.NotificationTargets(context.Background(), "mixed")
	require.NoError(t, err)
	assert.Equal(t, []string{"arn:aws:sns:us-east-1:1:a"}, targets.Topics)
	assert.Equal(t, []string{"arn:aws:lambda:us-east-1:1:function:f"}, targets.Functions)

	empty, err := c.NotificationTargets(context.Background(), "unconfigured")
	require.NoError(t, err)
	assert.Empty(t, empty.Topics)
	assert.Empty(t, empty.Functions)
}

func TestClient_NotificationTargets_Error(t *testing.T) {
	api := s3test.NewAPI()
	remote := s3test.HTTPError(http.StatusForbidden, "AccessDenied", "Access Denied")
	api.NotificationErr = remote
	c := New(api, nil)

	_, err := c.NotificationTargets(context.Background(), "b")
	assert.Same(t, remote, err)
}

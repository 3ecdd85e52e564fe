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
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
	"github.com/jeremyhahn/s3touch/pkg/common"
	"github.com/jeremyhahn/s3touch/pkg/validation"
)

// List yields every object under an s3://bucket/prefix path in listing order.
// Pages are fetched one at a time as the sequence is consumed; the marker for
// the next page is the last key of the previous one. The first error (an
// invalid path or a failed page, the latter unwrapped) is yielded and ends
// the sequence.
func (c *Client) List(ctx context.Context, prefixPath string, requesterPays bool) iter.Seq2[common.ObjectPath, error] {
	return func(yield func(common.ObjectPath, error) bool) {
		prefix, err := validation.ParsePrefix(prefixPath)
		if err != nil {
			yield(common.ObjectPath{}, err)
			return
		}

		var marker *string
		for page := 1; ; page++ {
			input := &s3.ListObjectsInput{
				Bucket: aws.String(prefix.Bucket),
				Prefix: aws.String(prefix.Key),
				Marker: marker,
			}
			if requesterPays {
				input.RequestPayer = types.RequestPayerRequester
			}

			out, err := c.svc.ListObjects(ctx, input)
			if err != nil {
				yield(common.ObjectPath{}, err)
				return
			}

			c.logger.Debug(ctx, "Listed page",
				adapters.F("bucket", prefix.Bucket),
				adapters.F("prefix", prefix.Key),
				adapters.F("page", page),
				adapters.F("objects", len(out.Contents)))

			for _, obj := range out.Contents {
				if !yield(common.ObjectPath{Bucket: prefix.Bucket, Key: aws.ToString(obj.Key)}, nil) {
					return
				}
			}

			if !aws.ToBool(out.IsTruncated) {
				return
			}

			marker = nextMarker(out)
			if marker == nil {
				return
			}
		}
	}
}

// ListAll collects List into a slice, stopping at the first error.
func (c *Client) ListAll(ctx context.Context, prefixPath string, requesterPays bool) ([]common.ObjectPath, error) {
	var paths []common.ObjectPath
	for p, err := range c.List(ctx, prefixPath, requesterPays) {
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// nextMarker returns the key to resume listing after. It is the last key of
// the page; NextMarker is only consulted for an empty truncated page.
func nextMarker(out *s3.ListObjectsOutput) *string {
	if n := len(out.Contents); n > 0 {
		return aws.String(aws.ToString(out.Contents[n-1].Key))
	}
	if aws.ToString(out.NextMarker) != "" {
		return out.NextMarker
	}
	return nil
}

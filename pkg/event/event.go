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

// Package event builds the synthetic S3 notification delivered for a touched object.
// The envelope matches the records S3 itself emits so existing consumers
// handle replayed events without changes.
package event

import (
	"encoding/json"
	"time"

	"github.com/jeremyhahn/s3touch/pkg/common"
)

const (
	Version       = "2.0"
	Source        = "aws:s3"
	Name          = "ObjectCreated:CompleteMultipartUpload"
	SchemaVersion = "1.0"

	// TimeFormat is ISO-8601 in UTC with millisecond precision.
	TimeFormat = "2006-01-02T15:04:05.000Z"

	bucketARNPrefix = "arn:aws:s3:::"
)

// Notification is the top-level envelope.
type Notification struct {
	Records []Record `json:"Records"`
}

// Record is a single event record.
type Record struct {
	EventVersion string `json:"eventVersion"`
	EventSource  string `json:"eventSource"`
	AWSRegion    string `json:"awsRegion"`
	EventTime    string `json:"eventTime"`
	EventName    string `json:"eventName"`
	S3           Entity `json:"s3"`
}

// Entity describes the bucket and object the record is about.
type Entity struct {
	SchemaVersion string `json:"s3SchemaVersion"`
	Bucket        Bucket `json:"bucket"`
	Object        Object `json:"object"`
}

// Bucket identifies the bucket by name and ARN.
type Bucket struct {
	Name string `json:"name"`
	ARN  string `json:"arn"`
}

// Object carries the object's key, size and ETag.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	ETag string `json:"eTag"`
}

// Build assembles a one-record notification for the object.
func Build(bucket, key string, md common.ObjectMetadata, region string, now time.Time) Notification {
	return Notification{
		Records: []Record{{
			EventVersion: Version,
			EventSource:  Source,
			AWSRegion:    region,
			EventTime:    now.UTC().Format(TimeFormat),
			EventName:    Name,
			S3: Entity{
				SchemaVersion: SchemaVersion,
				Bucket: Bucket{
					Name: bucket,
					ARN:  bucketARNPrefix + bucket,
				},
				Object: Object{
					Key:  key,
					Size: md.Size,
					ETag: md.ETag,
				},
			},
		}},
	}
}

// Marshal encodes the notification as compact JSON.
func (n Notification) Marshal() ([]byte, error) {
	return json.Marshal(n)
}

// Parse decodes a notification previously produced by Marshal.
func Parse(data []byte) (Notification, error) {
	var n Notification
	err := json.Unmarshal(data, &n)
	return n, err
}

// Builder stamps notifications with a fixed region and a clock.
type Builder struct {
	Region string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewBuilder returns a Builder for the given region using the wall clock.
func NewBuilder(region string) *Builder {
	return &Builder{Region: region, Clock: time.Now}
}

// Build assembles a notification stamped with the current time.
func (b *Builder) Build(bucket, key string, md common.ObjectMetadata) Notification {
	clock := b.Clock
	if clock == nil {
		clock = time.Now
	}
	return Build(bucket, key, md, b.Region, clock())
}

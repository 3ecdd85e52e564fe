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

// Package common holds the types and errors shared by every stage of the
// touch pipeline.
package common

// Scheme is the only URI scheme accepted for object paths.
const Scheme = "s3"

// ObjectPath identifies a single object (or a listing prefix) in a bucket.
type ObjectPath struct {
	// Bucket is the name of the bucket holding the object
	Bucket string `json:"bucket"`

	// Key is the object key, without a leading separator
	Key string `json:"key"`
}

// String renders the path back into its s3://bucket/key form.
func (p ObjectPath) String() string {
	return Scheme + "://" + p.Bucket + "/" + p.Key
}

// ObjectMetadata is the subset of object attributes embedded in a synthetic event.
type ObjectMetadata struct {
	// Size is the object's content length in bytes
	Size int64 `json:"size"`

	// ETag is the unquoted entity tag reported by the store
	ETag string `json:"etag"`
}

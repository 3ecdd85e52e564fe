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

// Package validation parses and validates s3:// object paths. Every entry
// point (single touch, recursive listing, event preview) goes through here
// before any remote call is made.
package validation

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/s3touch/pkg/common"
)

// MaxKeyLength is the longest object key the store accepts, in bytes.
const MaxKeyLength = 1024

// ParsePath splits an s3://bucket/key path into its bucket and key.
// The key is returned exactly as written, minus the single leading separator.
func ParsePath(s string) (common.ObjectPath, error) {
	return parse(s)
}

// ParsePrefix splits an s3://bucket/prefix path for listing. The rules are
// the same as ParsePath: an empty prefix is rejected so a recursive run
// never silently expands to a whole bucket.
func ParsePrefix(s string) (common.ObjectPath, error) {
	return parse(s)
}

func parse(s string) (common.ObjectPath, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme != common.Scheme {
		return common.ObjectPath{}, invalid(s)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return common.ObjectPath{}, invalid(s)
	}

	if len(key) > MaxKeyLength {
		return common.ObjectPath{}, fmt.Errorf("%w: key too long (max %d bytes) in %q", common.ErrInvalidPath, MaxKeyLength, s)
	}

	return common.ObjectPath{Bucket: bucket, Key: key}, nil
}

func invalid(s string) error {
	return fmt.Errorf("%w: invalid S3 path %q", common.ErrInvalidPath, s)
}

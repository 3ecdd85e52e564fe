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

package common

import (
	"errors"
	"fmt"
	"strconv"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

var (
	// Input errors

	// ErrInvalidPath is returned when a path is not of the form s3://bucket/key.
	ErrInvalidPath = errors.New("invalid path")

	// ErrConflictingTargets is returned when both an explicit topic and an explicit function are given.
	ErrConflictingTargets = errors.New("topic and lambda overrides are mutually exclusive")

	// Metadata fetch errors

	// ErrObjectNotFound is returned when the object or its bucket does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied is returned when the caller may not read the object.
	ErrAccessDenied = errors.New("access denied")

	// ErrTransient is returned for any other metadata fetch failure.
	ErrTransient = errors.New("transient error")

	// Target resolution errors

	// ErrTargetLookupFailed is returned when the bucket notification configuration cannot be read.
	ErrTargetLookupFailed = errors.New("target lookup failed")

	// ErrNoTarget is returned when a bucket has neither a topic nor a function configured.
	ErrNoTarget = errors.New("no determinable target")

	// Dispatch errors

	// ErrPublishFailed is returned when publishing to a topic fails.
	ErrPublishFailed = errors.New("publish failed")

	// ErrInvokeFailed is returned when an asynchronous function invocation fails.
	ErrInvokeFailed = errors.New("invoke failed")
)

// RemoteError wraps a failed remote call with the category it maps to.
// errors.Is matches both Kind and the underlying Cause.
type RemoteError struct {
	Kind  error
	Op    string
	Cause error
}

// NewRemoteError wraps cause under the given category and operation description.
func NewRemoteError(kind error, op string, cause error) *RemoteError {
	return &RemoteError{Kind: kind, Op: op, Cause: cause}
}

// Error renders the operation followed by the remote message or status code.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (%q)", e.Op, RemoteDetail(e.Cause))
}

// Unwrap exposes both the category sentinel and the original error.
func (e *RemoteError) Unwrap() []error {
	return []error{e.Kind, e.Cause}
}

// RemoteDetail extracts the most useful human readable detail from an AWS
// error: the service message, then the HTTP status, then the error code.
func RemoteDetail(err error) string {
	if err == nil {
		return ""
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return msg
		}
	}

	if code := StatusCode(err); code != 0 {
		return strconv.Itoa(code)
	}

	if apiErr != nil && apiErr.ErrorCode() != "" {
		return apiErr.ErrorCode()
	}

	return err.Error()
}

// StatusCode returns the HTTP status code carried by an AWS error, or 0.
func StatusCode(err error) int {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// ErrorCode returns the service error code carried by an AWS error, or "".
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

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

import "errors"

var (
	// Configuration errors

	// ErrInvalidWorkers is returned when workers is less than one.
	ErrInvalidWorkers = errors.New("workers must be at least 1")

	// ErrInvalidRate is returned when rate is negative.
	ErrInvalidRate = errors.New("rate must not be negative")

	// ErrInvalidLogLevel is returned for an unknown log level.
	ErrInvalidLogLevel = errors.New("log-level must be one of debug, info, warn, error")

	// ErrUnsupportedOutputFormat is returned when an unsupported output format is specified.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// Command errors

	// ErrNoPaths is returned when a touch is requested without any paths.
	ErrNoPaths = errors.New("at least one S3 path is required")

	// ErrTouchFailed is returned when one or more paths could not be touched.
	ErrTouchFailed = errors.New("one or more paths failed")
)

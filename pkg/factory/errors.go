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

package factory

import "errors"

var (
	// ErrInvalidProxy is returned when the proxy setting is not an absolute URL.
	ErrInvalidProxy = errors.New("invalid proxy URL")

	// ErrIncompleteCredentials is returned when only one of the access key
	// and secret key is set.
	ErrIncompleteCredentials = errors.New("access key and secret key must be set together")
)

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

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the application version, set at build time with:
//
//	go build -ldflags "-X github.com/jeremyhahn/s3touch/pkg/version.Version=1.0.0"
var Version = ""

const devVersion = "0.1.0-dev"

// Get returns the application version. Without ldflags it falls back to the
// module version recorded by `go install`, then to a development version.
func Get() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return devVersion
}

// String returns the version line printed by `s3touch version`.
func String() string {
	return fmt.Sprintf("s3touch %s (%s %s/%s)", Get(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version, stamped at link time with
// -ldflags "-X github.com/staranto/gcpctl/internal/version.Version=...".
package version

// Version is the gcpctl release.
var Version = "0.0.0-dev"

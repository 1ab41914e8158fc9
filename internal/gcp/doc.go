// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package gcp builds the client options shared by every sample, resolves the
// project, and classifies the errors returned by the Google Cloud SDKs.
package gcp

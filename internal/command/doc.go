// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package command defines the gcpctl command tree: one command group per
// Google Cloud service and one subcommand per sample. It wires the output and
// connection flags, argument validation, client sessions and shell
// completion.
package command

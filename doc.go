// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// gcpctl is the main package for the gcpctl command line tool. It runs the
// Google Cloud client library samples, one command group per service, and
// expands argument sets from the config file before handing off to the
// command tree.
package main

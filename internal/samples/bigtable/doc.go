// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package bigtable holds the Cloud Bigtable samples: instance, cluster and
// app profile administration, table and column family management with GC
// rules, and the data API write, read and filter snippets.
package bigtable

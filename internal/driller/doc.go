// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package driller resolves dotted attribute paths against the JSON rows
// produced by list samples so filters and attrs can reach nested values.
package driller

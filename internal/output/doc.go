// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, transforms, sorts and renders the rows returned by
// the list samples as a table, json, yaml or the raw jsonapi document.
package output

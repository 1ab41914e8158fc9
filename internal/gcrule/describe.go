// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gcrule

import "cloud.google.com/go/bigtable"

// Describe turns a policy into a JSON friendly tree, for example
// {"union": [{"max_versions": 2}, {"max_age": "5d"}]}. A nil or never policy
// describes as an empty object.
func Describe(p bigtable.GCPolicy) map[string]any {
	switch v := p.(type) {
	case bigtable.MaxAgeGCPolicy:
		return map[string]any{"max_age": v.GetDurationString()}
	case bigtable.MaxVersionsGCPolicy:
		return map[string]any{"max_versions": int(v)}
	case bigtable.UnionGCPolicy:
		return map[string]any{"union": describeAll(v.Children)}
	case bigtable.IntersectionGCPolicy:
		return map[string]any{"intersection": describeAll(v.Children)}
	}
	return map[string]any{}
}

func describeAll(children []bigtable.GCPolicy) []any {
	out := make([]any, 0, len(children))
	for _, c := range children {
		out = append(out, Describe(c))
	}
	return out
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package differ renders before/after JSON documents as an ascii diff. It is
// used wherever a sample mutates a resource and shows what changed.
package differ

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Options controls the rendering of a diff.
type Options struct {
	Color          bool
	ShowArrayIndex bool
}

// Diff writes the difference between before and after to w. Either side may
// be any value that marshals to JSON. Scalars and arrays are wrapped in a
// {"value": ...} object because the comparer only accepts objects. The
// returned bool reports whether anything changed.
func Diff(w io.Writer, before, after any, opts Options) (bool, error) {
	left, err := toObject(before)
	if err != nil {
		return false, fmt.Errorf("failed to encode left side: %w", err)
	}
	right, err := toObject(after)
	if err != nil {
		return false, fmt.Errorf("failed to encode right side: %w", err)
	}

	return DiffJSON(w, left, right, opts)
}

// DiffJSON is Diff for documents that are already JSON objects.
func DiffJSON(w io.Writer, left, right []byte, opts Options) (bool, error) {
	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return false, fmt.Errorf("failed to compare: %w", err)
	}

	if !d.Modified() {
		fmt.Fprintln(w, "No differences.")
		return false, nil
	}

	var leftObject map[string]interface{}
	if err := json.Unmarshal(left, &leftObject); err != nil {
		return false, fmt.Errorf("failed to decode left side: %w", err)
	}

	f := formatter.NewAsciiFormatter(leftObject, formatter.AsciiFormatterConfig{
		ShowArrayIndex: opts.ShowArrayIndex,
		Coloring:       opts.Color,
	})
	text, err := f.Format(d)
	if err != nil {
		return false, fmt.Errorf("failed to format diff: %w", err)
	}

	_, err = io.WriteString(w, text)
	return true, err
}

func toObject(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		if json.Valid(t) && len(t) > 0 && t[0] == '{' {
			return t, nil
		}
		if json.Valid(t) {
			return []byte(fmt.Sprintf(`{"value":%s}`, t)), nil
		}
		v = string(t)
	case string:
		if json.Valid([]byte(t)) && len(t) > 0 && t[0] == '{' {
			return []byte(t), nil
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0] == '{' {
		return b, nil
	}
	return json.Marshal(map[string]any{"value": v})
}

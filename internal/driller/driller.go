// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package driller

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var indexRegex = regexp.MustCompile(`\[(\d+)\]`)

// Driller resolves a dotted path, with optional [n] indexes, against a JSON
// document. A single element array met along the way is drilled through
// implicitly so that labels.key works whether or not the API wrapped the
// value in a list. A missing key or out of range index yields a zero Result.
func Driller(raw string, path string) gjson.Result {
	current := gjson.Parse(raw)

	for _, segment := range strings.Split(path, ".") {
		name := segment
		var indexes []int
		if i := strings.Index(segment, "["); i >= 0 {
			name = segment[:i]
			for _, m := range indexRegex.FindAllStringSubmatch(segment[i:], -1) {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return gjson.Result{}
				}
				indexes = append(indexes, n)
			}
		}

		if current.IsArray() {
			elems := current.Array()
			if len(elems) != 1 {
				return gjson.Result{}
			}
			current = elems[0]
		}

		if name != "" {
			current = current.Get(escape(name))
			if !current.Exists() {
				return gjson.Result{}
			}
		}

		for _, idx := range indexes {
			if !current.IsArray() {
				return gjson.Result{}
			}
			elems := current.Array()
			if idx >= len(elems) {
				return gjson.Result{}
			}
			current = elems[idx]
		}
	}

	if current.IsArray() {
		if elems := current.Array(); len(elems) == 1 {
			return elems[0]
		}
	}

	return current
}

// escape protects gjson path syntax characters that may legitimately appear
// in a key, such as the label key app.kubernetes.io/name.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"
)

// chopPrefixes shortens every string attribute of dataset whose values are
// resource names with a shared leading path.
func chopPrefixes(dataset []map[string]interface{}) {
	if len(dataset) == 0 {
		return
	}
	for attribute := range dataset[0] {
		chopPrefix(dataset, attribute)
	}
}

// chopPrefix finds common leading slash-delimited segments in the given
// attribute of dataset values. URLs are left alone. If at least 50% of entries share at least 2
// common leading segments, those segments (and the trailing slash) are
// replaced with "..".
func chopPrefix(dataset []map[string]interface{}, attribute string) {
	if len(dataset) == 0 {
		return
	}

	// Collect the segmented values with their indices.
	type segmentedValue struct {
		idx      int
		value    string
		segments []string
	}
	var segmented []segmentedValue
	maxSegments := 0
	for i, entry := range dataset {
		str, ok := entry[attribute].(string)
		if !ok || !strings.Contains(str, "/") || strings.Contains(str, "://") {
			continue
		}
		segs := strings.Split(str, "/")
		segmented = append(segmented, segmentedValue{idx: i, value: str, segments: segs})
		maxSegments = max(maxSegments, len(segs))
	}

	// One value has nothing to share its prefix with.
	if len(segmented) < 2 {
		return
	}

	threshold := (len(segmented) + 1) / 2

	// Find the longest common prefix of segments that appears in at least 50%.
	// The last segment is the resource id and is never chopped.
	var commonSegments []string
	for segIdx := 0; segIdx < maxSegments-1; segIdx++ {
		segmentCounts := make(map[string]int)
		for _, sv := range segmented {
			if segIdx < len(sv.segments)-1 {
				segmentCounts[sv.segments[segIdx]]++
			}
		}

		var bestSegment string
		var bestCount int
		for seg, count := range segmentCounts {
			if count > bestCount || (count == bestCount && seg < bestSegment) {
				bestSegment = seg
				bestCount = count
			}
		}

		if bestCount < threshold {
			break
		}
		commonSegments = append(commonSegments, bestSegment)
	}

	if len(commonSegments) < 2 {
		return
	}

	prefixToRemove := strings.Join(commonSegments, "/") + "/"
	for _, sv := range segmented {
		if strings.HasPrefix(sv.value, prefixToRemove) {
			dataset[sv.idx][attribute] = ".." + sv.value[len(prefixToRemove):]
		}
	}
}

// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

// Attr is one column of a list sample's output. Key is the path of the value
// in the row, under .attributes unless it was given with a leading dot.
type Attr struct {
	Key string
	// Include is false for attrs only used to filter or sort.
	Include bool
	// OutputKey is the json/yaml key and the text column title.
	OutputKey     string
	TransformSpec string
}

// Transform letters. Digits in a spec truncate the value, or elide its
// middle when negative.
const (
	specLocalTime = "tT"
	specLower     = "lL"
	specUpper     = "uU"
	specLastSeg   = "nN"
	specBytes     = "bB"
)

var lengthRE = regexp.MustCompile(`-?\d+`)

// Transform applies the attr's TransformSpec to value. Only strings are
// transformed, except that b also formats numbers.
func (a *Attr) Transform(value interface{}) interface{} {
	var result string
	switch v := value.(type) {
	case string:
		result = v
	case float64, int, int64:
		if !strings.ContainsAny(a.TransformSpec, specBytes) {
			return value
		}
		result = fmt.Sprint(v)
	default:
		return value
	}

	if strings.ContainsAny(a.TransformSpec, specBytes) {
		result = humanBytes(result)
	}

	if strings.ContainsAny(a.TransformSpec, specLocalTime) {
		result = a.localTime(result)
	}

	// projects/p/topics/t becomes t. URLs are left alone.
	if strings.ContainsAny(a.TransformSpec, specLastSeg) && !strings.Contains(result, "://") {
		result = result[strings.LastIndex(result, "/")+1:]
	}

	// The case letter that comes last wins so an attr's own spec overrides a
	// global one prepended to it. IOW... --attrs '*::U,name::l' is lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, specLower)
	lastU := strings.LastIndexAny(a.TransformSpec, specUpper)
	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Same for length. The last number wins.
	if match := lengthRE.FindAllString(a.TransformSpec, -1); len(match) != 0 {
		l, _ := strconv.Atoi(match[len(match)-1])
		result = clip(result, l)
	}

	return result
}

// localTime renders an RFC 3339 timestamp in GCPCTL_TZ, or TZ. Without
// either the value is returned as is.
func (a *Attr) localTime(value string) string {
	tz := os.Getenv("GCPCTL_TZ")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "" {
		return value
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Debugf("unknown timezone %q", tz)
		return value
	}
	// Timestamps from the APIs often carry nanoseconds.
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		log.Error("failed to parse time: " + value)
		a.TransformSpec = strings.Map(func(r rune) rune {
			if strings.ContainsRune(specLocalTime, r) {
				return -1
			}
			return r
		}, a.TransformSpec)
		return value
	}
	return t.In(loc).Format("2006-01-02T15:04:05MST")
}

// humanBytes formats a byte count such as a storage object or backup size.
// Values that are not a count are returned as is.
func humanBytes(value string) string {
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n < 0 {
		return value
	}
	return humanize.Bytes(uint64(n))
}

// clip truncates value to l runes, or keeps both ends around ".." when l is
// negative.
func clip(value string, l int) string {
	abs := int(math.Abs(float64(l)))
	if len(value) <= abs {
		return value
	}
	if l >= 0 {
		return value[:l]
	}
	keep := abs/2 - 1
	if keep < 0 {
		keep = 0
	}
	return value[:keep] + ".." + value[len(value)-keep:]
}

type AttrList []Attr

// Return a string representation of the AttrList.  This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// parseSpec parses one key[:output[:transform]] spec of --attrs. A key
// starting with ! is kept for filtering and sorting but not shown. The
// output key defaults to the last dotted segment of the key.
func parseSpec(spec string) Attr {
	fields := strings.SplitN(spec, ":", 3)

	attr := Attr{Include: true, Key: strings.TrimSpace(fields[0])}
	if strings.HasPrefix(attr.Key, "!") {
		attr.Include = false
		attr.Key = attr.Key[1:]
	}
	if attr.Key == "*" {
		attr.Include = false
	}

	switch {
	case len(fields) == 1:
		attr.OutputKey = attr.Key[strings.LastIndex(attr.Key, ".")+1:]
	case strings.TrimSpace(fields[1]) != "":
		attr.OutputKey = strings.TrimSpace(fields[1])
	default:
		attr.OutputKey = attr.Key
	}

	if len(fields) == 3 {
		attr.TransformSpec = strings.TrimSpace(fields[2])
	}
	return attr
}

// Set parses the comma separated specs of --attrs into the list. A spec
// naming an attr already in the list, usually one of the sample's defaults,
// updates it in place.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

specloop:
	for _, spec := range strings.Split(value, ",") {
		attr := parseSpec(spec)

		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		// A leading . addresses the root of the row, where .id is the
		// resource's short name. Anything else is under .attributes.
		if strings.HasPrefix(attr.Key, ".") {
			attr.Key = attr.Key[1:]
		} else if attr.Key != "*" {
			attr.Key = "attributes." + attr.Key
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec prepends the spec of the "*" attr, if any, to the
// spec of every attr so that --attrs '*::U' upper-cases every column.
func (alist *AttrList) SetGlobalTransformSpec() error {
	idx := slices.IndexFunc(*alist, func(a Attr) bool { return a.Key == "*" })
	if idx < 0 || (*alist)[idx].TransformSpec == "" {
		return nil
	}

	spec := (*alist)[idx].TransformSpec
	for i := range *alist {
		(*alist)[i].TransformSpec = spec + "," + (*alist)[i].TransformSpec
	}
	return nil
}

func (a *AttrList) Type() string {
	return "list"
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/gcpctl/internal/attrs"
	"github.com/staranto/gcpctl/internal/driller"
)

// filterRegex splits a filter into key, operand and target. The operand is
// one of = ^ ~ < > @ / %, optionally negated with a leading !.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/%])(.*)$`)

// Filter is one parsed --filter expression. A Key starting with _ is a
// server-side filter. It is handed to the list RPC by ServerFilter and
// skipped by FilterDataset.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

func (f Filter) serverSide() bool {
	return strings.HasPrefix(f.Key, "_")
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs are logged and skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter
	if spec == "" {
		return filters
	}

	delim := ","
	if d, ok := os.LookupEnv("GCPCTL_FILTER_DELIM"); ok {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		operand, negate := strings.CutPrefix(parts[2], "!")
		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: operand,
			Target:  parts[3],
		})
	}

	return filters
}

// ServerFilter renders the server-side filters of spec in the list filter
// syntax the Google Cloud APIs share, for example
// _labels.env=prod,_name@orders becomes labels.env = "prod" AND name:orders.
// Operands the APIs have no equivalent for are logged and dropped.
func ServerFilter(spec string) string {
	var terms []string
	for _, f := range BuildFilters(spec) {
		if !f.serverSide() {
			continue
		}
		key := strings.TrimPrefix(f.Key, "_")

		var term string
		switch f.Operand {
		case "=":
			term = fmt.Sprintf("%s = %q", key, f.Target)
		case "@":
			term = fmt.Sprintf("%s:%s", key, f.Target)
		case ">", "<":
			term = fmt.Sprintf("%s %s %q", key, f.Operand, f.Target)
		default:
			log.Error("unsupported server-side filter operand: " + f.Operand)
			continue
		}
		if f.Negate {
			term = "NOT " + term
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, " AND ")
}

// FilterDataset returns the rows of candidates that pass spec, each reduced
// to the attrs. Transforms are left to the output phase.
func FilterDataset(candidates gjson.Result, attrs attrs.AttrList, spec string) []map[string]interface{} {
	//nolint:prealloc
	var filteredResults []map[string]interface{}

	filters := BuildFilters(spec)

	for _, candidate := range candidates.Array() {
		if !applyFilters(candidate, attrs, filters) {
			continue
		}

		result := make(map[string]interface{}, len(attrs))
		for _, attr := range attrs {
			result[attr.OutputKey] = driller.Driller(candidate.Raw, attr.Key).Value()
		}
		filteredResults = append(filteredResults, result)
	}

	return filteredResults
}

// applyFilters returns true if the candidate row passes every client-side
// filter. A filter naming an unknown attr is reported and ignored.
func applyFilters(candidate gjson.Result, attrs attrs.AttrList, filters []Filter) bool {
	for _, filter := range filters {
		if filter.serverSide() {
			continue
		}

		var key string
		for _, attr := range attrs {
			if attr.OutputKey == filter.Key {
				key = attr.Key
				break
			}
		}
		if key == "" {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		value := driller.Driller(candidate.Raw, key).Value()
		if value == nil || !matches(value, filter) {
			return false
		}
	}

	return true
}

// matches dispatches on the type of value.
func matches(value interface{}, filter Filter) bool {
	switch v := value.(type) {
	case string:
		return checkStringOperand(v, filter)
	case bool:
		return checkStringOperand(strconv.FormatBool(v), filter)
	case float64:
		return checkNumericOperand(v, filter)
	case int:
		return checkNumericOperand(float64(v), filter)
	case int64:
		return checkNumericOperand(float64(v), filter)
	default:
		if filter.Operand == "@" {
			return checkContainsOperand(value, filter)
		}
		return true
	}
}

// checkContainsOperand evaluates @ against a list or a map. Against a map,
// such as resource labels, the target is a key or key=value.
func checkContainsOperand(value interface{}, filter Filter) bool {
	var found bool
	switch val := value.(type) {
	case []any:
		for _, item := range val {
			if item == filter.Target {
				found = true
				break
			}
		}
	case map[string]any:
		k, want, hasValue := strings.Cut(filter.Target, "=")
		got, ok := val[k]
		found = ok && (!hasValue || fmt.Sprint(got) == want)
	default:
		log.Error(fmt.Sprintf("unsupported type for contains filtering: %T", value))
		return false
	}
	return found != filter.Negate
}

// checkNumericOperand compares numerically. Supported operands are = > and
// <, each of which may be negated.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	var result bool
	switch filter.Operand {
	case "=":
		result = value == tgt
	case ">":
		result = value > tgt
	case "<":
		result = value < tgt
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
	return result != filter.Negate
}

// checkStringOperand evaluates the string operands. % matches a glob such as
// projects/*/topics/orders-*, where * stops at a /.
func checkStringOperand(value string, filter Filter) bool {
	var result bool
	switch filter.Operand {
	case "=":
		result = value == filter.Target
	case "~":
		result = strings.EqualFold(value, filter.Target)
	case "^":
		result = strings.HasPrefix(value, filter.Target)
	case ">":
		result = value > filter.Target
	case "<":
		result = value < filter.Target
	case "@":
		result = strings.Contains(value, filter.Target)
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		result = matched
	case "%":
		matched, err := path.Match(filter.Target, value)
		if err != nil {
			log.Error("invalid glob: " + filter.Target)
			return false
		}
		result = matched
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
	return result != filter.Negate
}

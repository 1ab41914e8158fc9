// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package gcrule parses Bigtable garbage collection rules written as HCL
// expressions, for example
//
//	union(max_versions(2), intersection(max_age("30d"), max_versions(1)))
//
// into bigtable.GCPolicy trees.
package gcrule

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigtable"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
)

// policyType carries a bigtable.GCPolicy through cty evaluation.
var policyType = cty.Capsule("gc_policy", reflect.TypeOf((*bigtable.GCPolicy)(nil)).Elem())

func policyVal(p bigtable.GCPolicy) cty.Value {
	return cty.CapsuleVal(policyType, &p)
}

func policyOf(v cty.Value) bigtable.GCPolicy {
	return *(v.EncapsulatedValue().(*bigtable.GCPolicy))
}

// Parse evaluates expr and returns the policy it describes.
func Parse(expr string) (bigtable.GCPolicy, error) {
	e, diags := hclsyntax.ParseExpression([]byte(expr), "gc-rule", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid gc rule %q: %s", expr, diags.Error())
	}

	v, diags := e.Value(&hcl.EvalContext{Functions: functions})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid gc rule %q: %s", expr, diags.Error())
	}

	if !v.Type().Equals(policyType) {
		return nil, fmt.Errorf("invalid gc rule %q: want a rule, got %s", expr, v.Type().FriendlyName())
	}
	return policyOf(v), nil
}

var functions = map[string]function.Function{
	"max_age": function.New(&function.Spec{
		Params: []function.Parameter{{Name: "age", Type: cty.String}},
		Type:   function.StaticReturnType(policyType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			d, err := ParseAge(args[0].AsString())
			if err != nil {
				return cty.NilVal, err
			}
			return policyVal(bigtable.MaxAgePolicy(d)), nil
		},
	}),
	"max_versions": function.New(&function.Spec{
		Params: []function.Parameter{{Name: "n", Type: cty.Number}},
		Type:   function.StaticReturnType(policyType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var n int
			if err := gocty.FromCtyValue(args[0], &n); err != nil {
				return cty.NilVal, err
			}
			if n < 1 {
				return cty.NilVal, fmt.Errorf("max_versions must be at least 1, got %d", n)
			}
			return policyVal(bigtable.MaxVersionsPolicy(n)), nil
		},
	}),
	"union":        compound("union", bigtable.UnionPolicy),
	"intersection": compound("intersection", bigtable.IntersectionPolicy),
	"never": function.New(&function.Spec{
		Type: function.StaticReturnType(policyType),
		Impl: func([]cty.Value, cty.Type) (cty.Value, error) {
			return policyVal(bigtable.NoGcPolicy()), nil
		},
	}),
}

func compound(name string, build func(...bigtable.GCPolicy) bigtable.GCPolicy) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "rules", Type: policyType},
		Type:     function.StaticReturnType(policyType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if len(args) == 0 {
				return cty.NilVal, fmt.Errorf("%s needs at least one rule", name)
			}
			sub := make([]bigtable.GCPolicy, 0, len(args))
			for _, a := range args {
				sub = append(sub, policyOf(a))
			}
			return policyVal(build(sub...)), nil
		},
	})
}

// ParseAge accepts Go durations plus a d suffix for days, as in "5d" or
// "1d12h".
func ParseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var days time.Duration
	if i := strings.Index(s, "d"); i >= 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		days = time.Duration(n) * 24 * time.Hour
		s = s[i+1:]
	}
	if s == "" {
		if days <= 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return days, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	return days + d, nil
}

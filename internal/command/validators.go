// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/urfave/cli/v3"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func MustBeTrueValidator(value any) error {
	if !value.(bool) {
		return errors.New("must be true")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	valid := false
	for _, v := range validOutputFlagValues {
		if v == value {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

var locationRE = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

// LocationValidator accepts region, zone and multi-region names such as
// us-central1, us-east1-b, global and nam3.
func LocationValidator(value any) error {
	if !locationRE.MatchString(value.(string)) {
		return fmt.Errorf("%q is not a location", value)
	}
	return nil
}

// ArgsValidator checks the positional arguments against the sample's
// argument spec. A name in brackets is optional and a name ending in ...
// takes the rest of the arguments.
func ArgsValidator(cmd *cli.Command, spec []string) error {
	got := cmd.Args().Len()

	required := 0
	variadic := false
	for _, name := range spec {
		optional := strings.HasPrefix(name, "[")
		if strings.HasSuffix(strings.TrimSuffix(name, "]"), "...") {
			variadic = true
		}
		if !optional {
			required++
		}
	}

	if got < required {
		return fmt.Errorf("%s: missing arguments, usage: %s", cmd.Name, usageArgs(spec))
	}
	if !variadic && got > len(spec) {
		return fmt.Errorf("%s: too many arguments, usage: %s", cmd.Name, usageArgs(spec))
	}
	return nil
}

func usageArgs(spec []string) string {
	parts := make([]string, 0, len(spec))
	for _, name := range spec {
		if strings.HasPrefix(name, "[") {
			parts = append(parts, name)
		} else {
			parts = append(parts, "<"+name+">")
		}
	}
	return strings.Join(parts, " ")
}

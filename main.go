// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/gcpctl/internal/cacheutil"
	"github.com/staranto/gcpctl/internal/command"
	"github.com/staranto/gcpctl/internal/config"
	mylog "github.com/staranto/gcpctl/internal/log"
	"github.com/staranto/gcpctl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	} else if ok {
		hours, _ := config.GetInt("cache.purge-hours", 7*24) //nolint:mnd
		if err := cacheutil.Purge(hours); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands a flag set from the config file into args. The
// set is named by an @set argument anywhere after the group, or is the
// group's "defaults" set when there is none. The expanded flags take the
// place of the @set, or follow the group.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the
	// preamble and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:2]...), "--help")
		}
	}

	// completion and flags ahead of any group take no sets.
	if args[1] == "completion" || strings.HasPrefix(args[1], "-") {
		return args
	}

	out := append([]string{}, args...)

	idx := 2
	set := "defaults"
	for i, a := range out[idx:] {
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			idx += i
			out = append(out[:idx], out[idx+1:]...)
			break
		}
	}

	setArgs, _ := config.GetStringSlice(out[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		out = append(out[:idx], append(parts, out[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, out)
	return out
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/config"
	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/meta"
)

// Builders lists the command group constructors in help order.
var Builders = []func(meta.Meta) *cli.Command{
	BigtableCommandBuilder,
	DatastoreCommandBuilder,
	DialogflowCommandBuilder,
	FirestoreCommandBuilder,
	IoTCommandBuilder,
	LanguageCommandBuilder,
	ParameterManagerCommandBuilder,
	PubSubCommandBuilder,
	SecretManagerCommandBuilder,
	SpannerCommandBuilder,
	StorageCommandBuilder,
	StorageTransferCommandBuilder,
	TranscoderCommandBuilder,
	VideoCommandBuilder,
}

// InitApp builds the gcpctl command tree for args. opts are appended to the
// client factory options of every sample.
func InitApp(ctx context.Context, args []string, opts ...gcp.Option) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the command
	// group and also the namespace key used when retrieving config values.
	// arg[1] could be -h/--help, so ignore it if it appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// No config file is the common case.
	cfg, _ := config.Load(ns)
	meta := meta.Meta{
		Args:           args,
		Config:         cfg,
		Context:        ctx,
		StartingDir:    sd,
		FactoryOptions: opts,
	}

	app := &cli.Command{
		Name:  "gcpctl",
		Usage: "Google Cloud client library samples",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "gcpctl version info",
				HideDefault: true,
			},
		},
		Metadata: map[string]any{
			"meta": meta,
		},
	}

	for _, build := range Builders {
		app.Commands = append(app.Commands, build(meta))
	}
	app.Commands = append(app.Commands, CompletionCommandBuilder(meta))

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sortFlags(cmd.Flags)
		for _, sub := range cmd.Commands {
			sortFlags(sub.Flags)
		}
	}

	return app, nil
}

func sortFlags(flags []cli.Flag) {
	sort.Slice(flags, func(i, j int) bool {
		return flags[i].Names()[0] < flags[j].Names()[0]
	})
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/config"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the schema of a list sample",
		HideDefault: true,
	}
}

func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// configSources returns the namespaced and global config file sources for
// key, in that order.
func configSources(ns, key string) []cli.ValueSource {
	return []cli.ValueSource{
		yaml.YAML(ns+"."+key, altsrc.StringSourcer(cfg.Source)),
		yaml.YAML(key, altsrc.StringSourcer(cfg.Source)),
	}
}

// NewGlobalFlags returns the output flags every command group carries.
// params[0] is the group name used as the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(configSources(params[0], "color")...),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.BoolFlag{
			Name:    "local",
			Usage:   "show timestamps in local time",
			Sources: cli.NewValueSourceChain(configSources(params[0], "local")...),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(configSources(params[0], "output")...),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "short",
			Usage:   "shorten resource names that share a leading path",
			Sources: cli.NewValueSourceChain(configSources(params[0], "short")...),
			Value:   true,
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(configSources(params[0], "titles")...),
			Value:   false,
		},
	}

	return
}

// NewGCPFlags returns the connection flags every command group carries.
// params[0] is the group name and params[1], when present, the service's
// default location. Groups without a location concept pass only the name.
func NewGCPFlags(params ...string) (flags []cli.Flag) {
	ns := params[0]

	flags = []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "project",
			Aliases: []string{"p"},
			Usage:   "project to run the sample in. Discovered from credentials when unset",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GCPCTL_PROJECT"),
				cli.EnvVar("GOOGLE_CLOUD_PROJECT"),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:  "credentials",
			Usage: "service account key file. Application Default Credentials when unset",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GOOGLE_APPLICATION_CREDENTIALS"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "endpoint",
			Usage:   "service endpoint override, e.g. an emulator",
			Sources: cli.NewValueSourceChain(),
		}),
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "write per-RPC prometheus metrics to this file on exit",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("GCPCTL_METRICS_FILE"),
			),
		},
	}

	if len(params) > 1 {
		flags = append(flags, NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "location",
			Aliases: []string{"l"},
			Usage:   "location of the resources",
			Sources: cli.NewValueSourceChain(),
			Value:   params[1],
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, LocationValidator)
			},
		}))
	}

	return
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas checks if the given executable is on the PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}

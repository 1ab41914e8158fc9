// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"

	pm "cloud.google.com/go/parametermanager/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/differ"
	"github.com/staranto/gcpctl/internal/meta"
	pmsample "github.com/staranto/gcpctl/internal/samples/parametermanager"
)

// openParameterManager opens a client on the endpoint of --location.
func openParameterManager(ctx context.Context, s *Session, cmd *cli.Command) (*pm.Client, error) {
	return pmsample.NewClient(ctx, s.Factory, cmd.String("location"))
}

type paramFunc func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error

func paramSample(name, usage string, args []string, fn paramFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  args,
		Run: WithProject(openParameterManager, func(ctx context.Context, w io.Writer, c *pm.Client, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, pmsample.Location{Project: project, Location: cmd.String("location")}, cmd)
		}),
	}
}

// paramIDSample builds a sample over <parameter>.
func paramIDSample(name, usage string, fn func(context.Context, io.Writer, *pm.Client, pmsample.Location, string) error) Sample {
	return paramSample(name, usage, []string{"parameter"},
		func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0))
		})
}

// versionSample builds a sample over <parameter> <version>.
func versionSample(name, usage string, fn func(context.Context, io.Writer, *pm.Client, pmsample.Location, string, string) error) Sample {
	return paramSample(name, usage, []string{"parameter", "version"},
		func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1))
		})
}

// versionDataSample builds a sample over <parameter> <version> and one more
// value.
func versionDataSample(name, usage, data string, fn func(context.Context, io.Writer, *pm.Client, pmsample.Location, string, string, string) error) Sample {
	return paramSample(name, usage, []string{"parameter", "version", data},
		func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
		})
}

// ParameterManagerCommandBuilder constructs the "parametermanager" command
// group.
func ParameterManagerCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:     "parametermanager",
		Usage:    "Parameter Manager samples",
		Location: pmsample.DefaultLocation,
		Meta:     meta,
		Samples: []Sample{
			versionSample("quickstart", "create a JSON parameter and version, then read it back", pmsample.Quickstart),
			paramSample("regional-quickstart", "quickstart against a regional endpoint", []string{"parameter", "version"},
				func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
					if loc.Location == "" || loc.Location == pmsample.DefaultLocation {
						return fmt.Errorf("%s: --location must name a region", cmd.Name)
					}
					return pmsample.Quickstart(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1))
				}),

			// Parameters.
			paramIDSample("create-param", "create an unformatted parameter", pmsample.CreateParam),
			paramSample("create-structured-param", "create a parameter with a format", []string{"parameter"},
				func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
					format, err := pmsample.ParseFormat(cmd.String("format"))
					if err != nil {
						return err
					}
					return pmsample.CreateStructuredParam(ctx, w, c, loc, arg(cmd, 0), format)
				}).WithFlags(&cli.StringFlag{Name: "format", Usage: "UNFORMATTED, YAML or JSON", Value: "JSON"}),
			paramSample("create-param-with-kms-key", "create a parameter encrypted with a Cloud KMS key", []string{"parameter", "kms-key"},
				func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
					return pmsample.CreateParamWithKMSKey(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1))
				}),
			paramSample("update-param-kms-key", "change a parameter's Cloud KMS key", []string{"parameter", "kms-key"},
				func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
					return pmsample.UpdateParamKMSKey(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1))
				}),
			paramIDSample("remove-param-kms-key", "drop a parameter's Cloud KMS key", pmsample.RemoveParamKMSKey),
			paramIDSample("get-param", "print a parameter", pmsample.GetParam),
			List("list-params", "list the parameters of a location", nil, nil,
				ListWithProject(openParameterManager, func(ctx context.Context, c *pm.Client, project string, cmd *cli.Command) ([]*pmsample.Parameter, error) {
					return pmsample.ListParams(ctx, c, pmsample.Location{Project: project, Location: cmd.String("location")})
				})),
			paramIDSample("delete-param", "delete a parameter", pmsample.DeleteParam),

			// Versions.
			versionDataSample("create-param-version", "create a version with a plain payload", "data", pmsample.CreateParamVersion),
			versionDataSample("create-structured-param-version", "create a version with a JSON payload", "json", pmsample.CreateStructuredParamVersion),
			versionDataSample("create-param-version-with-secret", "create a version that references a secret version", "secret-version", pmsample.CreateParamVersionWithSecret),
			versionSample("get-param-version", "print a version", pmsample.GetParamVersion),
			List("list-param-versions", "list a parameter's versions", []string{"parameter"}, nil,
				ListWithProject(openParameterManager, func(ctx context.Context, c *pm.Client, project string, cmd *cli.Command) ([]*pmsample.Version, error) {
					return pmsample.ListParamVersions(ctx, c, pmsample.Location{Project: project, Location: cmd.String("location")}, arg(cmd, 0))
				})),
			versionSample("render-param-version", "print a version with its secret references resolved", pmsample.RenderParamVersion),
			versionSample("enable-param-version", "enable a version", pmsample.EnableParamVersion),
			versionSample("disable-param-version", "disable a version", pmsample.DisableParamVersion),
			versionSample("delete-param-version", "delete a version", pmsample.DeleteParamVersion),
			paramSample("compare-param-versions", "diff the rendered payloads of two versions", []string{"parameter", "a", "b"},
				func(ctx context.Context, w io.Writer, c *pm.Client, loc pmsample.Location, cmd *cli.Command) error {
					_, err := pmsample.CompareParamVersions(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2),
						differ.Options{Color: cmd.Bool("color")})
					return err
				}),
		},
	}).Build()
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"

	sm "cloud.google.com/go/secretmanager/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/filters"
	"github.com/staranto/gcpctl/internal/meta"
	smsample "github.com/staranto/gcpctl/internal/samples/secretmanager"
)

// openSecretManager opens a client on the endpoint of --location.
func openSecretManager(ctx context.Context, s *Session, cmd *cli.Command) (*sm.Client, error) {
	return smsample.NewClient(ctx, s.Factory, cmd.String("location"))
}

type secretFunc func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error

func secretSample(name, usage string, args []string, fn secretFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  args,
		Run: WithProject(openSecretManager, func(ctx context.Context, w io.Writer, c *sm.Client, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, smsample.Location{Project: project, Location: cmd.String("location")}, cmd)
		}),
	}
}

func secretIDSample(name, usage string, fn func(context.Context, io.Writer, *sm.Client, smsample.Location, string) error) Sample {
	return secretSample(name, usage, []string{"secret"},
		func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0))
		})
}

// secretVersionSample builds a sample over <secret> [version], the version
// defaulting to latest.
func secretVersionSample(name, usage string, fn func(context.Context, io.Writer, *sm.Client, smsample.Location, string, string) error) Sample {
	return secretSample(name, usage, []string{"secret", "[version]"},
		func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0), argOr(cmd, 1, "latest"))
		})
}

// labelsSample builds a sample over <secret> <key=value...>.
func labelsSample(name, usage string, fn func(context.Context, io.Writer, *sm.Client, smsample.Location, string, map[string]string) error) Sample {
	return secretSample(name, usage, []string{"secret", "key=value..."},
		func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error {
			labels, err := parseMetadata(rest(cmd, 1))
			if err != nil {
				return err
			}
			return fn(ctx, w, c, loc, arg(cmd, 0), labels)
		})
}

func memberSample(name, usage string, fn func(context.Context, io.Writer, *sm.Client, smsample.Location, string, string) error) Sample {
	return secretSample(name, usage, []string{"secret", "member"},
		func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error {
			return fn(ctx, w, c, loc, arg(cmd, 0), arg(cmd, 1))
		})
}

// SecretManagerCommandBuilder constructs the "secretmanager" command group.
// A --location other than global uses the regional endpoint.
func SecretManagerCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:     "secretmanager",
		Usage:    "Secret Manager samples",
		Location: "global",
		Meta:     meta,
		Samples: []Sample{
			// Secrets.
			secretIDSample("create-secret", "create a secret", smsample.CreateSecret),
			labelsSample("create-secret-with-labels", "create a labelled secret", smsample.CreateSecretWithLabels),
			labelsSample("update-secret", "replace a secret's labels", smsample.UpdateSecret),
			secretIDSample("get-secret", "print a secret", smsample.GetSecret),
			List("list-secrets", "list the secrets of the project or location", nil,
				[]cli.Flag{
					&cli.StringFlag{Name: "filter-expr", Usage: "raw server-side filter, e.g. labels.env:prod. Defaults to the _ terms of --filter"},
				},
				ListWithProject(openSecretManager, func(ctx context.Context, c *sm.Client, project string, cmd *cli.Command) ([]*smsample.SecretRow, error) {
					loc := smsample.Location{Project: project, Location: cmd.String("location")}
					expr := cmd.String("filter-expr")
					if expr == "" {
						expr = filters.ServerFilter(cmd.String("filter"))
					}
					return smsample.ListSecrets(ctx, c, loc, expr)
				})),
			secretIDSample("delete-secret", "delete a secret and its versions", smsample.DeleteSecret),

			// Versions.
			secretSample("add-secret-version", "add a version with a checksummed payload", []string{"secret", "data"},
				func(ctx context.Context, w io.Writer, c *sm.Client, loc smsample.Location, cmd *cli.Command) error {
					return smsample.AddSecretVersion(ctx, w, c, loc, arg(cmd, 0), []byte(arg(cmd, 1)))
				}),
			secretVersionSample("access-secret-version", "print a version's payload after checking its checksum", smsample.AccessSecretVersion),
			secretVersionSample("get-secret-version", "print a version's metadata", smsample.GetSecretVersion),
			List("list-secret-versions", "list a secret's versions", []string{"secret"}, nil,
				ListWithProject(openSecretManager, func(ctx context.Context, c *sm.Client, project string, cmd *cli.Command) ([]*smsample.VersionRow, error) {
					loc := smsample.Location{Project: project, Location: cmd.String("location")}
					return smsample.ListSecretVersions(ctx, c, loc, arg(cmd, 0))
				})),
			secretVersionSample("disable-secret-version", "disable a version", smsample.DisableSecretVersion),
			secretVersionSample("enable-secret-version", "enable a version", smsample.EnableSecretVersion),
			secretVersionSample("destroy-secret-version", "destroy a version's payload", smsample.DestroySecretVersion),

			// IAM.
			memberSample("iam-grant-access", "grant a member the secret accessor role", smsample.IAMGrantAccess),
			memberSample("iam-revoke-access", "revoke a member's secret accessor role", smsample.IAMRevokeAccess),
		},
	}).Build()
}

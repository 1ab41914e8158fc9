// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	bt "cloud.google.com/go/bigtable"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	btsample "github.com/staranto/gcpctl/internal/samples/bigtable"
)

var openInstanceAdmin = FromFactory(btsample.NewInstanceAdminClient)

// openTableAdmin opens a table admin client on the instance named by the
// first argument.
func openTableAdmin(ctx context.Context, s *Session, cmd *cli.Command) (*bt.AdminClient, error) {
	return btsample.NewAdminClient(ctx, s.Factory, arg(cmd, 0))
}

// openData opens a data client on the instance named by the first argument.
func openData(ctx context.Context, s *Session, cmd *cli.Command) (*bt.Client, error) {
	return btsample.NewClient(ctx, s.Factory, arg(cmd, 0))
}

// btClients holds the admin and data clients of the samples that need both.
type btClients struct {
	admin  *bt.AdminClient
	client *bt.Client
}

func (c *btClients) Close() error {
	return errors.Join(c.client.Close(), c.admin.Close())
}

func openBoth(ctx context.Context, s *Session, cmd *cli.Command) (*btClients, error) {
	admin, err := openTableAdmin(ctx, s, cmd)
	if err != nil {
		return nil, err
	}
	client, err := openData(ctx, s, cmd)
	if err != nil {
		admin.Close() //nolint:errcheck
		return nil, err
	}
	return &btClients{admin: admin, client: client}, nil
}

func zoneFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "zone",
		Usage:   "zone of the cluster",
		Value:   btsample.DefaultZone,
		Sources: cli.NewValueSourceChain(configSources("bigtable", "zone")...),
		Validator: func(value string) error {
			return FlagValidators(value, LocationValidator)
		},
	}
}

func nodesFlag(def int) cli.Flag {
	return &cli.IntFlag{Name: "nodes", Usage: "number of serve nodes", Value: def}
}

func instanceAdminRun(fn func(context.Context, io.Writer, *bt.InstanceAdminClient, *cli.Command) error) RunFunc {
	return With(openInstanceAdmin, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.InstanceAdminClient) error {
		return fn(ctx, s.Out, c, cmd)
	})
}

// instanceArgSample builds an instance admin sample over <instance> and one
// more identifier.
func instanceArgSample(name, usage, second string, fn func(context.Context, io.Writer, *bt.InstanceAdminClient, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"instance", second},
		Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
			return fn(ctx, w, c, arg(cmd, 0), arg(cmd, 1))
		}),
	}
}

func tableAdminSample(name, usage string, args []string, fn func(context.Context, io.Writer, *bt.AdminClient, *cli.Command) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  append([]string{"instance"}, args...),
		Run: With(openTableAdmin, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.AdminClient) error {
			return fn(ctx, s.Out, c, cmd)
		}),
	}
}

func writeSample(name, usage string, fn func(context.Context, io.Writer, *bt.Client, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"instance", "table"},
		Run: With(openData, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.Client) error {
			return fn(ctx, s.Out, c, arg(cmd, 1))
		}),
	}
}

func bothSample(name, usage string, fn func(context.Context, io.Writer, *bt.AdminClient, *bt.Client, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"instance", "table"},
		Run: With(openBoth, func(ctx context.Context, s *Session, cmd *cli.Command, c *btClients) error {
			return fn(ctx, s.Out, c.admin, c.client, arg(cmd, 1))
		}),
	}
}

func nodes(cmd *cli.Command) int32 {
	return int32(cmd.Int("nodes")) //nolint:gosec
}

// BigtableCommandBuilder constructs the "bigtable" command group.
func BigtableCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "bigtable",
		Usage: "Cloud Bigtable samples",
		Meta:  meta,
		Samples: []Sample{
			// Instances.
			{
				Name:  "create-dev-instance",
				Usage: "create a development instance",
				Args:  []string{"instance", "cluster"},
				Flags: []cli.Flag{zoneFlag()},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.CreateDevInstance(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd.String("zone"))
				}),
			},
			{
				Name:  "create-production-instance",
				Usage: "create a production instance",
				Args:  []string{"instance", "cluster"},
				Flags: []cli.Flag{zoneFlag(), nodesFlag(1)},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.CreateProductionInstance(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd.String("zone"), nodes(cmd))
				}),
			},
			List("list-instances", "list the project's instances", nil, nil,
				ListWith(openInstanceAdmin, func(ctx context.Context, _ *Session, _ *cli.Command, c *bt.InstanceAdminClient) ([]*btsample.Instance, error) {
					return btsample.ListInstances(ctx, os.Stderr, c)
				})),
			{
				Name:  "get-instance",
				Usage: "print an instance",
				Args:  []string{"instance"},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.GetInstance(ctx, w, c, arg(cmd, 0))
				}),
			},
			{
				Name:  "delete-instance",
				Usage: "delete an instance",
				Args:  []string{"instance"},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.DeleteInstance(ctx, w, c, arg(cmd, 0))
				}),
			},

			// Clusters.
			{
				Name:  "create-cluster",
				Usage: "add a cluster to an instance",
				Args:  []string{"instance", "cluster"},
				Flags: []cli.Flag{zoneFlag(), nodesFlag(3)},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.CreateCluster(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd.String("zone"), nodes(cmd))
				}),
			},
			{
				Name:  "create-cluster-autoscale",
				Usage: "add an autoscaling cluster to an instance",
				Args:  []string{"instance", "cluster"},
				Flags: []cli.Flag{zoneFlag()},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.CreateClusterAutoscale(ctx, w, c, arg(cmd, 0), arg(cmd, 1), cmd.String("zone"))
				}),
			},
			instanceArgSample("update-cluster-autoscale", "change a cluster's autoscaling limits", "cluster", btsample.UpdateClusterAutoscale),
			{
				Name:  "update-cluster-nodes",
				Usage: "resize a cluster",
				Args:  []string{"instance", "cluster", "nodes"},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					n, err := argInt(cmd, 2)
					if err != nil {
						return err
					}
					return btsample.UpdateClusterNodes(ctx, w, c, arg(cmd, 0), arg(cmd, 1), int32(n)) //nolint:gosec
				}),
			},
			List("list-clusters", "list an instance's clusters", []string{"instance"}, nil,
				ListWith(openInstanceAdmin, func(ctx context.Context, _ *Session, cmd *cli.Command, c *bt.InstanceAdminClient) ([]*btsample.Cluster, error) {
					return btsample.ListClusters(ctx, os.Stderr, c, arg(cmd, 0))
				})),
			instanceArgSample("delete-cluster", "remove a cluster from an instance", "cluster", btsample.DeleteCluster),

			// App profiles.
			instanceArgSample("create-app-profile", "create a multi-cluster app profile", "profile", btsample.CreateAppProfile),
			{
				Name:  "update-app-profile",
				Usage: "route an app profile to one cluster",
				Args:  []string{"instance", "cluster", "profile"},
				Run: instanceAdminRun(func(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, cmd *cli.Command) error {
					return btsample.UpdateAppProfile(ctx, w, c, arg(cmd, 0), arg(cmd, 1), arg(cmd, 2))
				}),
			},
			List("list-app-profiles", "list an instance's app profiles", []string{"instance"}, nil,
				ListWith(openInstanceAdmin, func(ctx context.Context, _ *Session, cmd *cli.Command, c *bt.InstanceAdminClient) ([]*btsample.AppProfile, error) {
					return btsample.ListAppProfiles(ctx, c, arg(cmd, 0))
				})),
			instanceArgSample("delete-app-profile", "delete an app profile", "profile", btsample.DeleteAppProfile),

			// Tables.
			tableAdminSample("run-table-operations", "walk through table and column family administration", []string{"table"},
				func(ctx context.Context, w io.Writer, c *bt.AdminClient, cmd *cli.Command) error {
					return btsample.RunTableOperations(ctx, w, c, arg(cmd, 1))
				}),
			tableAdminSample("create-table", "create a table", []string{"table"},
				func(ctx context.Context, w io.Writer, c *bt.AdminClient, cmd *cli.Command) error {
					return btsample.CreateTable(ctx, w, c, arg(cmd, 1))
				}),
			List("list-tables", "list an instance's tables", []string{"instance"}, nil,
				ListWith(openTableAdmin, func(ctx context.Context, _ *Session, _ *cli.Command, c *bt.AdminClient) ([]*btsample.Table, error) {
					return btsample.ListTables(ctx, c)
				})),
			{
				Name:  "create-family",
				Usage: "create a column family",
				Args:  []string{"instance", "table", "family"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "gc-rule", Usage: "garbage collection rule, e.g. union(max_age(\"5d\"), max_versions(2))", Value: "never()"},
				},
				Run: With(openTableAdmin, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.AdminClient) error {
					return btsample.CreateFamily(ctx, s.Out, c, arg(cmd, 1), arg(cmd, 2), cmd.String("gc-rule"))
				}),
			},
			List("list-families", "list a table's column families", []string{"instance", "table"}, nil,
				ListWith(openTableAdmin, func(ctx context.Context, _ *Session, cmd *cli.Command, c *bt.AdminClient) ([]*btsample.Family, error) {
					return btsample.ListFamilies(ctx, c, arg(cmd, 1))
				})),
			tableAdminSample("update-gc-rule", "replace a column family's garbage collection rule", []string{"table", "family", "expr"},
				func(ctx context.Context, w io.Writer, c *bt.AdminClient, cmd *cli.Command) error {
					return btsample.UpdateGCRule(ctx, w, c, arg(cmd, 1), arg(cmd, 2), arg(cmd, 3))
				}),
			tableAdminSample("delete-family", "delete a column family", []string{"table", "family"},
				func(ctx context.Context, w io.Writer, c *bt.AdminClient, cmd *cli.Command) error {
					return btsample.DeleteFamily(ctx, w, c, arg(cmd, 1), arg(cmd, 2))
				}),
			tableAdminSample("delete-table", "delete a table", []string{"table"},
				func(ctx context.Context, w io.Writer, c *bt.AdminClient, cmd *cli.Command) error {
					return btsample.DeleteTable(ctx, w, c, arg(cmd, 1))
				}),

			// Data.
			bothSample("hello-world", "write, read and scan greetings, then drop the table", btsample.HelloWorld),
			bothSample("insert-update-rows", "create a table and upsert a row", btsample.InsertUpdateRows),
			writeSample("write-simple", "write one row", btsample.WriteSimple),
			writeSample("write-batch", "write two rows in one batch", btsample.WriteBatch),
			writeSample("write-increment", "increment a counter cell", btsample.WriteIncrement),
			writeSample("write-conditional", "write when a filter matches", btsample.WriteConditional),
			{
				Name:  "read",
				Usage: fmt.Sprintf("read rows, one of %v", btsample.ReadTypes),
				Args:  []string{"instance", "table", "read-type"},
				Run: With(openData, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.Client) error {
					return btsample.Read(ctx, s.Out, c, arg(cmd, 1), arg(cmd, 2))
				}),
			},
			{
				Name:  "filter",
				Usage: "read rows through a filter, the filter_* snippet names",
				Args:  []string{"instance", "table", "filter-type"},
				Run: With(openData, func(ctx context.Context, s *Session, cmd *cli.Command, c *bt.Client) error {
					return btsample.Filter(ctx, s.Out, c, arg(cmd, 1), arg(cmd, 2))
				}),
			},
		},
	}).Build()
}

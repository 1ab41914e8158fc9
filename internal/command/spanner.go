// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"io"
	"time"

	sp "cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	spsample "github.com/staranto/gcpctl/internal/samples/spanner"
)

var (
	openSpannerInstanceAdmin = FromFactory(spsample.NewInstanceAdmin)
	openSpannerDatabaseAdmin = FromFactory(spsample.NewDatabaseAdmin)
)

// spannerClient gives the data client the Close signature With expects.
type spannerClient struct {
	*sp.Client
}

func (c spannerClient) Close() error {
	c.Client.Close()
	return nil
}

// spannerClients holds the admin and data clients of the samples that need
// both.
type spannerClients struct {
	admin  *database.DatabaseAdminClient
	client *sp.Client
}

func (c *spannerClients) Close() error {
	c.client.Close()
	return c.admin.Close()
}

// spannerDatabase resolves <instance> <database> in the session's project.
func spannerDatabase(ctx context.Context, s *Session, cmd *cli.Command) (spsample.Database, error) {
	project, err := s.Project(ctx)
	if err != nil {
		return spsample.Database{}, err
	}
	return spsample.Database{Project: project, Instance: arg(cmd, 0), ID: arg(cmd, 1)}, nil
}

func openSpanner(ctx context.Context, s *Session, cmd *cli.Command) (spannerClient, error) {
	db, err := spannerDatabase(ctx, s, cmd)
	if err != nil {
		return spannerClient{}, err
	}
	c, err := spsample.NewClient(ctx, s.Factory, db)
	if err != nil {
		return spannerClient{}, err
	}
	return spannerClient{c}, nil
}

func openSpannerBoth(ctx context.Context, s *Session, cmd *cli.Command) (*spannerClients, error) {
	admin, err := openSpannerDatabaseAdmin(ctx, s, cmd)
	if err != nil {
		return nil, err
	}
	c, err := openSpanner(ctx, s, cmd)
	if err != nil {
		return nil, errors.Join(err, admin.Close())
	}
	return &spannerClients{admin: admin, client: c.Client}, nil
}

// dataSample builds a data sample over <instance> <database>.
func dataSample(name, usage string, args []string, fn func(context.Context, io.Writer, *sp.Client, *cli.Command) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  append([]string{"instance", "database"}, args...),
		Run: With(openSpanner, func(ctx context.Context, s *Session, cmd *cli.Command, c spannerClient) error {
			return fn(ctx, s.Out, c.Client, cmd)
		}),
	}
}

// simpleDataSample builds a data sample with no arguments of its own.
func simpleDataSample(name, usage string, fn func(context.Context, io.Writer, *sp.Client) error) Sample {
	return dataSample(name, usage, nil, func(ctx context.Context, w io.Writer, c *sp.Client, _ *cli.Command) error {
		return fn(ctx, w, c)
	})
}

type databaseFunc func(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db spsample.Database, cmd *cli.Command) error

// databaseSample builds a database admin sample over <instance> <database>.
func databaseSample(name, usage string, args []string, fn databaseFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  append([]string{"instance", "database"}, args...),
		Run: With(openSpannerDatabaseAdmin, func(ctx context.Context, s *Session, cmd *cli.Command, c *database.DatabaseAdminClient) error {
			db, err := spannerDatabase(ctx, s, cmd)
			if err != nil {
				return err
			}
			return fn(ctx, s.Out, c, db, cmd)
		}),
	}
}

func ddlSample(name, usage string, fn func(context.Context, io.Writer, *database.DatabaseAdminClient, spsample.Database) error) Sample {
	return databaseSample(name, usage, nil, func(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db spsample.Database, _ *cli.Command) error {
		return fn(ctx, w, c, db)
	})
}

func scheduleSample(name, usage string, fn func(context.Context, io.Writer, *database.DatabaseAdminClient, spsample.Database, string) error) Sample {
	return databaseSample(name, usage, []string{"schedule"}, func(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db spsample.Database, cmd *cli.Command) error {
		return fn(ctx, w, c, db, arg(cmd, 2))
	})
}

// pgTableSample builds a PostgreSQL sample over <instance> <database> <table>.
func pgTableSample(name, usage string, fn func(context.Context, io.Writer, *database.DatabaseAdminClient, *sp.Client, spsample.Database, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"instance", "database", "table"},
		Run: With(openSpannerBoth, func(ctx context.Context, s *Session, cmd *cli.Command, c *spannerClients) error {
			db, err := spannerDatabase(ctx, s, cmd)
			if err != nil {
				return err
			}
			return fn(ctx, s.Out, c.admin, c.client, db, arg(cmd, 2))
		}),
	}
}

func instanceSample(name, usage string, fn func(context.Context, io.Writer, *instance.InstanceAdminClient, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"instance"},
		Run: WithProject(openSpannerInstanceAdmin, func(ctx context.Context, w io.Writer, c *instance.InstanceAdminClient, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, arg(cmd, 0))
		}),
	}
}

// SpannerCommandBuilder constructs the "spanner" command group.
func SpannerCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "spanner",
		Usage: "Cloud Spanner samples",
		Meta:  meta,
		Samples: []Sample{
			// Instances and databases.
			instanceSample("create-instance", "create a one node instance", spsample.CreateInstance),
			instanceSample("create-instance-with-autoscaling", "create an autoscaling instance", spsample.CreateInstanceWithAutoscaling),
			List("list-instance-configs", "list the instance configurations", nil, nil,
				ListWithProject(openSpannerInstanceAdmin, func(ctx context.Context, c *instance.InstanceAdminClient, project string, _ *cli.Command) ([]*spsample.InstanceConfigRow, error) {
					return spsample.ListInstanceConfigs(ctx, c, project)
				})),
			ddlSample("create-database", "create a database with the Singers and Albums tables", spsample.CreateDatabase),
			ddlSample("create-pg-database", "create a PostgreSQL dialect database", spsample.CreatePGDatabase),

			// Data.
			simpleDataSample("insert-data", "insert singers and albums", spsample.InsertData),
			simpleDataSample("query-data", "query albums", spsample.QueryData),
			simpleDataSample("read-data", "read albums", spsample.ReadData),
			dataSample("read-stale-data", "read albums as of a while ago", nil,
				func(ctx context.Context, w io.Writer, c *sp.Client, cmd *cli.Command) error {
					return spsample.ReadStaleData(ctx, w, c, cmd.Duration("staleness"))
				}).WithFlags(&cli.DurationFlag{Name: "staleness", Usage: "how stale the read may be", Value: 15 * time.Second}),
			ddlSample("add-column", "add the MarketingBudget column", spsample.AddColumn),
			simpleDataSample("update-data", "set marketing budgets", spsample.UpdateData),
			simpleDataSample("query-data-with-new-column", "query marketing budgets", spsample.QueryDataWithNewColumn),
			simpleDataSample("read-write-transaction", "move budget between albums in a transaction", spsample.ReadWriteTransaction),

			// Indexes.
			ddlSample("create-index", "create the AlbumsByAlbumTitle index", spsample.CreateIndex),
			dataSample("query-data-with-index", "query album titles in a range through the index", []string{"[start]", "[end]"},
				func(ctx context.Context, w io.Writer, c *sp.Client, cmd *cli.Command) error {
					return spsample.QueryDataWithIndex(ctx, w, c, argOr(cmd, 2, "Aardvark"), argOr(cmd, 3, "Goo"))
				}),
			simpleDataSample("read-data-with-index", "read album titles through the index", spsample.ReadDataWithIndex),
			ddlSample("create-storing-index", "create an index that stores MarketingBudget", spsample.CreateStoringIndex),
			simpleDataSample("read-data-with-storing-index", "read budgets through the storing index", spsample.ReadDataWithStoringIndex),
			simpleDataSample("read-only-transaction", "read twice in one read-only transaction", spsample.ReadOnlyTransaction),
			simpleDataSample("batch-query-data", "run a partitioned query concurrently", spsample.BatchQueryData),

			// Timestamps and DML.
			ddlSample("add-timestamp-column", "add a commit timestamp column", spsample.AddTimestampColumn),
			simpleDataSample("update-data-with-timestamp", "update budgets with a commit timestamp", spsample.UpdateDataWithTimestamp),
			simpleDataSample("query-data-with-timestamp", "query budgets with their commit timestamps", spsample.QueryDataWithTimestamp),
			simpleDataSample("write-data-with-dml", "insert singers with DML", spsample.WriteDataWithDML),
			simpleDataSample("write-data-with-dml-transaction", "move budget with DML in a transaction", spsample.WriteDataWithDMLTransaction),
			simpleDataSample("update-data-with-dml", "update a budget with DML", spsample.UpdateDataWithDML),
			simpleDataSample("delete-data-with-dml", "delete a singer with DML", spsample.DeleteDataWithDML),
			dataSample("query-with-struct", "find a singer through a struct parameter", []string{"[first]", "[last]"},
				func(ctx context.Context, w io.Writer, c *sp.Client, cmd *cli.Command) error {
					return spsample.QueryWithStruct(ctx, w, c, argOr(cmd, 2, "Elena"), argOr(cmd, 3, "Campbell"))
				}),

			// PostgreSQL.
			pgTableSample("pg-numeric-data-type", "store and query PostgreSQL numerics", spsample.PGNumericDataType),
			pgTableSample("pg-order-nulls", "order with NULLS FIRST and LAST", spsample.PGOrderNulls),
			simpleDataSample("pg-dml-getting-started-update", "update a PostgreSQL row with DML", spsample.PGDMLGettingStartedUpdate),

			// Backups.
			databaseSample("list-backups", "list backups through a series of filters", []string{"[backup]"},
				func(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db spsample.Database, cmd *cli.Command) error {
					return spsample.ListBackups(ctx, w, c, db, argOr(cmd, 2, db.ID))
				}),
			scheduleSample("create-backup-schedule", "create a daily full backup schedule", spsample.CreateBackupSchedule),
			scheduleSample("update-backup-schedule", "change a backup schedule", spsample.UpdateBackupSchedule),
			scheduleSample("get-backup-schedule", "print a backup schedule", spsample.GetBackupSchedule),
			List("list-backup-schedules", "list a database's backup schedules", []string{"instance", "database"}, nil,
				ListWith(openSpannerDatabaseAdmin, func(ctx context.Context, s *Session, cmd *cli.Command, c *database.DatabaseAdminClient) ([]*spsample.ScheduleRow, error) {
					db, err := spannerDatabase(ctx, s, cmd)
					if err != nil {
						return nil, err
					}
					return spsample.ListBackupSchedules(ctx, c, db)
				})),
			scheduleSample("delete-backup-schedule", "delete a backup schedule", spsample.DeleteBackupSchedule),
		},
	}).Build()
}

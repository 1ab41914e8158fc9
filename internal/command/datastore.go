// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"maps"
	"slices"

	ds "cloud.google.com/go/datastore"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	dssample "github.com/staranto/gcpctl/internal/samples/datastore"
)

var openDatastore = FromFactory(dssample.NewClient)

func datastoreSample(name, usage string, fn func(context.Context, io.Writer, *ds.Client) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Run: With(openDatastore, func(ctx context.Context, s *Session, _ *cli.Command, c *ds.Client) error {
			return fn(ctx, s.Out, c)
		}),
	}
}

func taskIDSample(name, usage string, fn func(context.Context, io.Writer, *ds.Client, int64) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"id"},
		Run: With(openDatastore, func(ctx context.Context, s *Session, cmd *cli.Command, c *ds.Client) error {
			id, err := argInt64(cmd, 0)
			if err != nil {
				return err
			}
			return fn(ctx, s.Out, c, id)
		}),
	}
}

// querySamples returns one sample per named Task query, in name order.
func querySamples() []Sample {
	samples := make([]Sample, 0, len(dssample.Queries))
	for _, name := range slices.Sorted(maps.Keys(dssample.Queries)) {
		samples = append(samples, Sample{
			Name:  name,
			Usage: "run the " + name + " query over Task",
			Run: With(openDatastore, func(ctx context.Context, s *Session, _ *cli.Command, c *ds.Client) error {
				return dssample.RunQuery(ctx, s.Out, c, name)
			}),
		})
	}
	return samples
}

// DatastoreCommandBuilder constructs the "datastore" command group.
func DatastoreCommandBuilder(meta meta.Meta) *cli.Command {
	samples := []Sample{
		// Task list tutorial.
		{
			Name:  "add-task",
			Usage: "add a task",
			Args:  []string{"description"},
			Run: With(openDatastore, func(ctx context.Context, s *Session, cmd *cli.Command, c *ds.Client) error {
				_, err := dssample.AddTask(ctx, s.Out, c, arg(cmd, 0))
				return err
			}),
		},
		List("list-tasks", "list tasks in creation order", nil, nil,
			ListWith(openDatastore, func(ctx context.Context, _ *Session, _ *cli.Command, c *ds.Client) ([]*dssample.TaskRow, error) {
				return dssample.ListTasks(ctx, c)
			})),
		taskIDSample("mark-done", "mark a task done", dssample.MarkDone),
		taskIDSample("delete-task", "delete a task", dssample.DeleteTask),

		// Entities.
		datastoreSample("upsert", "upsert the sample task", dssample.Upsert),
		datastoreSample("insert", "insert a task with a generated key", dssample.Insert),
		datastoreSample("lookup", "look up the sample task", dssample.Lookup),
		datastoreSample("update", "update the sample task in a transaction", dssample.Update),
		datastoreSample("delete", "delete the sample task", dssample.Delete),
		datastoreSample("batch-upsert", "upsert two tasks at once", dssample.BatchUpsert),
		datastoreSample("batch-lookup", "look up two tasks at once", dssample.BatchLookup),
		datastoreSample("batch-delete", "delete two tasks at once", dssample.BatchDelete),
	}

	// Queries.
	samples = append(samples, querySamples()...)
	samples = append(samples,
		datastoreSample("kindless-query", "query every kind by key", dssample.KindlessQuery),
		datastoreSample("keys-only-query", "query Task keys only", dssample.KeysOnlyQuery),
		datastoreSample("projection-query", "project priority and percent_complete", dssample.ProjectionQuery),
		datastoreSample("distinct-on", "query distinct categories", dssample.DistinctOn),
		Sample{
			Name:  "cursor-paging",
			Usage: "page through tasks with a cursor",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "page-size", Usage: "tasks per page", Value: 5},
				&cli.StringFlag{Name: "cursor", Usage: "cursor printed by the previous page"},
			},
			Run: With(openDatastore, func(ctx context.Context, s *Session, cmd *cli.Command, c *ds.Client) error {
				_, err := dssample.CursorPaging(ctx, s.Out, c, cmd.Int("page-size"), cmd.String("cursor"))
				return err
			}),
		},

		// Transactions.
		Sample{
			Name:  "transfer-funds",
			Usage: "move an amount between two accounts in a transaction",
			Args:  []string{"from", "to", "amount"},
			Run: With(openDatastore, func(ctx context.Context, s *Session, cmd *cli.Command, c *ds.Client) error {
				amount, err := argInt(cmd, 2)
				if err != nil {
					return err
				}
				return dssample.TransferFunds(ctx, s.Out, c, arg(cmd, 0), arg(cmd, 1), amount)
			}),
		},
		datastoreSample("get-or-create", "read the sample task or create it in a transaction", dssample.GetOrCreate),

		// Metadata.
		datastoreSample("namespace-query", "list namespaces", dssample.NamespaceQuery),
		datastoreSample("kind-query", "list kinds", dssample.KindQuery),
		datastoreSample("property-query", "list Task properties", dssample.PropertyQuery),
	)

	return (&GroupBuilder{
		Name:    "datastore",
		Usage:   "Cloud Datastore samples",
		Meta:    meta,
		Samples: samples,
	}).Build()
}

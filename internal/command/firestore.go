// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"

	fs "cloud.google.com/go/firestore"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	fssample "github.com/staranto/gcpctl/internal/samples/firestore"
)

var openFirestore = FromFactory(fssample.NewClient)

type firestoreFunc func(context.Context, io.Writer, *fs.Client) error

func firestoreSample(name, usage string, fn firestoreFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Run: With(openFirestore, func(ctx context.Context, s *Session, _ *cli.Command, c *fs.Client) error {
			return fn(ctx, s.Out, c)
		}),
	}
}

// printed drops the value of a sample that also prints it.
func printed[T any](fn func(context.Context, io.Writer, *fs.Client) (T, error)) firestoreFunc {
	return func(ctx context.Context, w io.Writer, c *fs.Client) error {
		_, err := fn(ctx, w, c)
		return err
	}
}

// FirestoreCommandBuilder constructs the "firestore" command group.
func FirestoreCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "firestore",
		Usage: "Cloud Firestore samples",
		Meta:  meta,
		Samples: []Sample{
			// Quickstart.
			{
				Name:  "initialize",
				Usage: "build a client",
				Run: func(ctx context.Context, s *Session, _ *cli.Command) error {
					return fssample.Initialize(ctx, s.Out, s.Factory)
				},
			},
			firestoreSample("add-data", "add two users", fssample.AddData),
			firestoreSample("retrieve-all-documents", "print every user", fssample.RetrieveAllDocuments),

			// Documents.
			firestoreSample("set-document", "set a city document", fssample.SetDocument),
			firestoreSample("add-doc-data-types", "write a document with every data type", fssample.AddDocDataTypes),
			firestoreSample("add-doc-with-auto-id", "add a city with a generated id", printed(fssample.AddDocWithAutoID)),
			firestoreSample("add-doc-after-auto-id", "reserve a generated id, then write the city", printed(fssample.AddDocAfterAutoID)),
			firestoreSample("create-cities", "write the cities used by the query samples", fssample.CreateCities),
			firestoreSample("get-document", "read one city", fssample.GetDocument),
			firestoreSample("get-multiple-docs", "read the capital cities", fssample.GetMultipleDocs),
			firestoreSample("get-all-docs", "read every city", fssample.GetAllDocs),
			firestoreSample("list-subcollections", "list a city's subcollections", fssample.ListSubcollections),

			// Queries.
			firestoreSample("simple-queries", "build equality and comparison queries", fssample.SimpleQueries),
			firestoreSample("array-membership", "query with array-contains", fssample.ArrayMembership),
			firestoreSample("array-membership-any", "query with array-contains-any", fssample.ArrayMembershipAny),
			firestoreSample("in-query", "query with in", fssample.InQuery),
			firestoreSample("not-in-query", "query with not-in", fssample.NotInQuery),
			firestoreSample("chained-query", "chain equality and range filters", fssample.ChainedQuery),
			firestoreSample("range-query", "combine range filters on one field", fssample.RangeQuery),
			firestoreSample("invalid-range-query", "print a query the server rejects", fssample.InvalidRangeQuery),
			firestoreSample("order-limit", "order and limit queries", fssample.OrderLimit),
			firestoreSample("collection-group-query", "query every landmarks subcollection", fssample.CollectionGroupQuery),

			// Cursors.
			firestoreSample("start-at-field", "start a query at a value", fssample.StartAtField),
			firestoreSample("end-at-field", "end a query at a value", fssample.EndAtField),
			firestoreSample("paginated-query", "page with the last document as cursor", fssample.PaginatedQuery),
			firestoreSample("multiple-cursor-conditions", "start at several field values", fssample.MultipleCursorConditions),

			// Updates and deletes.
			firestoreSample("update-doc", "update one field", fssample.UpdateDoc),
			firestoreSample("update-doc-array", "union into and remove from an array", fssample.UpdateDocArray),
			firestoreSample("update-doc-increment", "increment a number field", fssample.UpdateDocIncrement),
			firestoreSample("update-nested-fields", "update fields of a nested map", fssample.UpdateNestedFields),
			firestoreSample("update-server-timestamp", "set a field to the server time", fssample.UpdateServerTimestamp),
			firestoreSample("set-merge", "merge fields into a document", fssample.SetMerge),
			firestoreSample("delete-doc", "delete a document", fssample.DeleteDoc),
			firestoreSample("delete-field", "delete a field", fssample.DeleteField),
			{
				Name:  "delete-collection",
				Usage: "delete every document of a collection in batches",
				Args:  []string{"collection"},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "batch-size", Usage: "documents deleted per batch", Value: 100},
				},
				Run: With(openFirestore, func(ctx context.Context, s *Session, cmd *cli.Command, c *fs.Client) error {
					return fssample.DeleteCollection(ctx, s.Out, c, arg(cmd, 0), cmd.Int("batch-size"))
				}),
			},

			// Transactions.
			firestoreSample("run-transaction", "add one to a city's population", fssample.RunTransaction),
			firestoreSample("return-info-transaction", "return a value out of a transaction", fssample.ReturnInfoTransaction),
			firestoreSample("batch-write", "write several documents atomically", fssample.BatchWrite),

			// Distributed counter.
			{
				Name:  "counter-init",
				Usage: "create a sharded counter",
				Args:  []string{"shards"},
				Run: With(openFirestore, func(ctx context.Context, s *Session, cmd *cli.Command, c *fs.Client) error {
					n, err := argInt(cmd, 0)
					if err != nil {
						return err
					}
					return fssample.CounterInit(ctx, s.Out, c, n)
				}),
			},
			firestoreSample("counter-increment", "increment a random shard", fssample.CounterIncrement),
			firestoreSample("counter-get", "print the counter's total", printed(fssample.CounterGet)),
		},
	}).Build()
}

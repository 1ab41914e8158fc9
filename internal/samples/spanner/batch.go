// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"
	"sync"

	sp "cloud.google.com/go/spanner"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// BatchQueryData partitions a query over Singers and runs the partitions
// concurrently in one batch read-only transaction.
func BatchQueryData(ctx context.Context, w io.Writer, c *sp.Client) error {
	txn, err := c.BatchReadOnlyTransaction(ctx, sp.StrongRead())
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer txn.Close()

	stmt := sp.Statement{SQL: `SELECT SingerId, FirstName, LastName FROM Singers`}
	partitions, err := txn.PartitionQuery(ctx, stmt, sp.PartitionOptions{})
	if err != nil {
		return fmt.Errorf("failed to partition query: %w", err)
	}

	var (
		mu    sync.Mutex
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range partitions {
		g.Go(func() error {
			return txn.Execute(gctx, p).Do(func(row *sp.Row) error {
				var id int64
				var first, last sp.NullString
				if err := row.Columns(&id, &first, &last); err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				total++
				fmt.Fprintf(w, "SingerId: %d, FirstName: %s, LastName: %s\n", id, nullString(first), nullString(last))
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to execute partition: %w", err)
	}

	fmt.Fprintf(w, "Total Partitions: %s\n", humanize.Comma(int64(len(partitions))))
	fmt.Fprintf(w, "Total Records: %s\n", humanize.Comma(total))
	if len(partitions) > 0 {
		fmt.Fprintf(w, "Average Records Per Partition: %.2f\n", float64(total)/float64(len(partitions)))
	}
	return nil
}

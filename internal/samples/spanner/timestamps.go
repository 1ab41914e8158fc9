// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"

	sp "cloud.google.com/go/spanner"
)

// UpdateDataWithTimestamp sets new budgets on albums (1,1) and (2,2) and
// stamps both rows with the commit timestamp.
func UpdateDataWithTimestamp(ctx context.Context, w io.Writer, c *sp.Client) error {
	cols := []string{"SingerId", "AlbumId", "MarketingBudget", "LastUpdateTime"}
	_, err := c.Apply(ctx, []*sp.Mutation{
		sp.Update("Albums", cols, []any{1, 1, 1000000, sp.CommitTimestamp}),
		sp.Update("Albums", cols, []any{2, 2, 750000, sp.CommitTimestamp}),
	})
	if err != nil {
		return fmt.Errorf("failed to update data: %w", err)
	}
	fmt.Fprintln(w, "Updated data.")
	return nil
}

// QueryDataWithTimestamp lists albums, most recently updated first.
func QueryDataWithTimestamp(ctx context.Context, w io.Writer, c *sp.Client) error {
	stmt := sp.Statement{SQL: `SELECT SingerId, AlbumId, MarketingBudget, LastUpdateTime
		FROM Albums ORDER BY LastUpdateTime DESC`}
	err := c.Single().Query(ctx, stmt).Do(func(row *sp.Row) error {
		var singerID, albumID int64
		var budget sp.NullInt64
		var updated sp.NullTime
		if err := row.Columns(&singerID, &albumID, &budget, &updated); err != nil {
			return err
		}
		fmt.Fprintf(w, "SingerId: %d, AlbumId: %d, MarketingBudget: %s, LastUpdateTime: %s\n",
			singerID, albumID, nullInt(budget), nullTime(updated))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to query albums: %w", err)
	}
	return nil
}

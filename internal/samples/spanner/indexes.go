// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"

	sp "cloud.google.com/go/spanner"
)

// QueryDataWithIndex selects albums whose title sorts in [start, end) and
// forces the AlbumsByAlbumTitle index.
func QueryDataWithIndex(ctx context.Context, w io.Writer, c *sp.Client, start, end string) error {
	stmt := sp.Statement{
		SQL: `SELECT AlbumId, AlbumTitle, MarketingBudget
			FROM Albums@{FORCE_INDEX=AlbumsByAlbumTitle}
			WHERE AlbumTitle >= @start AND AlbumTitle < @end`,
		Params: map[string]any{"start": start, "end": end},
	}
	err := c.Single().Query(ctx, stmt).Do(func(row *sp.Row) error {
		var albumID int64
		var title string
		var budget sp.NullInt64
		if err := row.Columns(&albumID, &title, &budget); err != nil {
			return err
		}
		fmt.Fprintf(w, "AlbumId: %d, AlbumTitle: %s, MarketingBudget: %s\n", albumID, title, nullInt(budget))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to query albums by title: %w", err)
	}
	return nil
}

// ReadDataWithIndex reads every album through AlbumsByAlbumTitle.
func ReadDataWithIndex(ctx context.Context, w io.Writer, c *sp.Client) error {
	iter := c.Single().ReadUsingIndex(ctx, "Albums", "AlbumsByAlbumTitle", sp.AllKeys(),
		[]string{"AlbumId", "AlbumTitle"})
	err := iter.Do(func(row *sp.Row) error {
		var albumID int64
		var title string
		if err := row.Columns(&albumID, &title); err != nil {
			return err
		}
		fmt.Fprintf(w, "AlbumId: %d, AlbumTitle: %s\n", albumID, title)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read albums by title: %w", err)
	}
	return nil
}

// ReadDataWithStoringIndex reads MarketingBudget straight from the
// AlbumsByAlbumTitle2 index.
func ReadDataWithStoringIndex(ctx context.Context, w io.Writer, c *sp.Client) error {
	iter := c.Single().ReadUsingIndex(ctx, "Albums", "AlbumsByAlbumTitle2", sp.AllKeys(),
		[]string{"AlbumId", "AlbumTitle", "MarketingBudget"})
	err := iter.Do(func(row *sp.Row) error {
		var albumID int64
		var title string
		var budget sp.NullInt64
		if err := row.Columns(&albumID, &title, &budget); err != nil {
			return err
		}
		fmt.Fprintf(w, "AlbumId: %d, AlbumTitle: %s, MarketingBudget: %s\n", albumID, title, nullInt(budget))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read albums by title: %w", err)
	}
	return nil
}

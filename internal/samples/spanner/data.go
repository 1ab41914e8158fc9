// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	sp "cloud.google.com/go/spanner"
)

// TransferAmount is the budget read-write-transaction moves between albums.
const TransferAmount = 200000

// ErrInsufficientBudget aborts a transfer when the source album can not
// cover TransferAmount.
var ErrInsufficientBudget = errors.New("insufficient marketing budget")

var (
	singerColumns = []string{"SingerId", "FirstName", "LastName"}
	albumColumns  = []string{"SingerId", "AlbumId", "AlbumTitle"}
)

type singer struct {
	id          int64
	first, last string
}

type album struct {
	singer, id int64
	title      string
}

var (
	sampleSingers = []singer{
		{1, "Marc", "Richards"},
		{2, "Catalina", "Smith"},
		{3, "Alice", "Trentor"},
		{4, "Lea", "Martin"},
		{5, "David", "Lomond"},
	}
	sampleAlbums = []album{
		{1, 1, "Total Junk"},
		{1, 2, "Go, Go, Go"},
		{2, 1, "Green"},
		{2, 2, "Forever Hold Your Peace"},
		{2, 3, "Terrified"},
	}
)

// InsertData writes the sample singers and albums with mutations.
func InsertData(ctx context.Context, w io.Writer, c *sp.Client) error {
	m := make([]*sp.Mutation, 0, len(sampleSingers)+len(sampleAlbums))
	for _, s := range sampleSingers {
		m = append(m, sp.InsertOrUpdate("Singers", singerColumns, []any{s.id, s.first, s.last}))
	}
	for _, a := range sampleAlbums {
		m = append(m, sp.InsertOrUpdate("Albums", albumColumns, []any{a.singer, a.id, a.title}))
	}
	if _, err := c.Apply(ctx, m); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}
	fmt.Fprintln(w, "Inserted data.")
	return nil
}

// printAlbums prints SingerId, AlbumId and AlbumTitle of every row.
func printAlbums(w io.Writer, iter *sp.RowIterator) error {
	return iter.Do(func(row *sp.Row) error {
		var singerID, albumID int64
		var title string
		if err := row.Columns(&singerID, &albumID, &title); err != nil {
			return err
		}
		fmt.Fprintf(w, "SingerId: %d, AlbumId: %d, AlbumTitle: %s\n", singerID, albumID, title)
		return nil
	})
}

// QueryData selects every album with SQL.
func QueryData(ctx context.Context, w io.Writer, c *sp.Client) error {
	stmt := sp.Statement{SQL: `SELECT SingerId, AlbumId, AlbumTitle FROM Albums`}
	if err := printAlbums(w, c.Single().Query(ctx, stmt)); err != nil {
		return fmt.Errorf("failed to query albums: %w", err)
	}
	return nil
}

// ReadData reads every album with the read API.
func ReadData(ctx context.Context, w io.Writer, c *sp.Client) error {
	iter := c.Single().Read(ctx, "Albums", sp.AllKeys(), albumColumns)
	if err := printAlbums(w, iter); err != nil {
		return fmt.Errorf("failed to read albums: %w", err)
	}
	return nil
}

// ReadStaleData reads albums as they were staleness ago. Stale reads are
// served without waiting for the latest writes.
func ReadStaleData(ctx context.Context, w io.Writer, c *sp.Client, staleness time.Duration) error {
	ro := c.ReadOnlyTransaction().WithTimestampBound(sp.ExactStaleness(staleness))
	defer ro.Close()

	if err := printAlbums(w, ro.Read(ctx, "Albums", sp.AllKeys(), albumColumns)); err != nil {
		return fmt.Errorf("failed to read albums: %w", err)
	}
	return nil
}

// UpdateData sets the marketing budget of albums (1,1) and (2,2).
func UpdateData(ctx context.Context, w io.Writer, c *sp.Client) error {
	cols := []string{"SingerId", "AlbumId", "MarketingBudget"}
	_, err := c.Apply(ctx, []*sp.Mutation{
		sp.Update("Albums", cols, []any{1, 1, 100000}),
		sp.Update("Albums", cols, []any{2, 2, 500000}),
	})
	if err != nil {
		return fmt.Errorf("failed to update data: %w", err)
	}
	fmt.Fprintln(w, "Updated data.")
	return nil
}

// QueryDataWithNewColumn selects MarketingBudget alongside the album keys.
func QueryDataWithNewColumn(ctx context.Context, w io.Writer, c *sp.Client) error {
	stmt := sp.Statement{SQL: `SELECT SingerId, AlbumId, MarketingBudget FROM Albums`}
	err := c.Single().Query(ctx, stmt).Do(func(row *sp.Row) error {
		var singerID, albumID int64
		var budget sp.NullInt64
		if err := row.Columns(&singerID, &albumID, &budget); err != nil {
			return err
		}
		fmt.Fprintf(w, "SingerId: %d, AlbumId: %d, MarketingBudget: %s\n", singerID, albumID, nullInt(budget))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to query albums: %w", err)
	}
	return nil
}

func readBudget(ctx context.Context, txn *sp.ReadWriteTransaction, key sp.Key) (int64, error) {
	row, err := txn.ReadRow(ctx, "Albums", key, []string{"MarketingBudget"})
	if err != nil {
		return 0, err
	}
	var budget sp.NullInt64
	if err := row.Column(0, &budget); err != nil {
		return 0, err
	}
	return budget.Int64, nil
}

// ReadWriteTransaction moves TransferAmount of marketing budget from album
// (2,2) to album (1,1). The transaction is rolled back when album (2,2) can
// not cover the amount.
func ReadWriteTransaction(ctx context.Context, w io.Writer, c *sp.Client) error {
	_, err := c.ReadWriteTransaction(ctx, func(ctx context.Context, txn *sp.ReadWriteTransaction) error {
		second, err := readBudget(ctx, txn, sp.Key{2, 2})
		if err != nil {
			return err
		}
		if second < TransferAmount {
			return fmt.Errorf("album (2,2) has %d: %w", second, ErrInsufficientBudget)
		}
		first, err := readBudget(ctx, txn, sp.Key{1, 1})
		if err != nil {
			return err
		}

		first += TransferAmount
		second -= TransferAmount
		fmt.Fprintf(w, "Setting first album's budget to %d and the second album's budget to %d.\n", first, second)

		cols := []string{"SingerId", "AlbumId", "MarketingBudget"}
		return txn.BufferWrite([]*sp.Mutation{
			sp.Update("Albums", cols, []any{1, 1, first}),
			sp.Update("Albums", cols, []any{2, 2, second}),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to transfer budget: %w", err)
	}
	fmt.Fprintln(w, "Transaction complete.")
	return nil
}

// ReadOnlyTransaction runs a query and a read that see the same snapshot.
func ReadOnlyTransaction(ctx context.Context, w io.Writer, c *sp.Client) error {
	ro := c.ReadOnlyTransaction()
	defer ro.Close()

	stmt := sp.Statement{SQL: `SELECT SingerId, AlbumId, AlbumTitle FROM Albums`}
	if err := printAlbums(w, ro.Query(ctx, stmt)); err != nil {
		return fmt.Errorf("failed to query albums: %w", err)
	}
	if err := printAlbums(w, ro.Read(ctx, "Albums", sp.AllKeys(), albumColumns)); err != nil {
		return fmt.Errorf("failed to read albums: %w", err)
	}
	return nil
}

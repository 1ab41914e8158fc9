// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"

	sp "cloud.google.com/go/spanner"
)

// execDML runs one DML statement in a read-write transaction and returns
// the affected row count.
func execDML(ctx context.Context, c *sp.Client, stmt sp.Statement) (int64, error) {
	var n int64
	_, err := c.ReadWriteTransaction(ctx, func(ctx context.Context, txn *sp.ReadWriteTransaction) error {
		var err error
		n, err = txn.Update(ctx, stmt)
		return err
	})
	return n, err
}

// WriteDataWithDML inserts four singers with a single INSERT.
func WriteDataWithDML(ctx context.Context, w io.Writer, c *sp.Client) error {
	n, err := execDML(ctx, c, sp.Statement{SQL: `INSERT Singers (SingerId, FirstName, LastName) VALUES
		(12, 'Melissa', 'Garcia'),
		(13, 'Russell', 'Morales'),
		(14, 'Jacqueline', 'Long'),
		(15, 'Dylan', 'Shaw')`})
	if err != nil {
		return fmt.Errorf("failed to insert singers: %w", err)
	}
	fmt.Fprintf(w, "Inserted %d row(s).\n", n)
	return nil
}

// UpdateDataWithDML doubles the marketing budget of album (1,1).
func UpdateDataWithDML(ctx context.Context, w io.Writer, c *sp.Client) error {
	n, err := execDML(ctx, c, sp.Statement{SQL: `UPDATE Albums SET MarketingBudget = MarketingBudget * 2
		WHERE SingerId = 1 and AlbumId = 1`})
	if err != nil {
		return fmt.Errorf("failed to update album: %w", err)
	}
	fmt.Fprintf(w, "Updated %d row(s).\n", n)
	return nil
}

// DeleteDataWithDML deletes the singer named Alice.
func DeleteDataWithDML(ctx context.Context, w io.Writer, c *sp.Client) error {
	n, err := execDML(ctx, c, sp.Statement{SQL: `DELETE FROM Singers WHERE FirstName = 'Alice'`})
	if err != nil {
		return fmt.Errorf("failed to delete singer: %w", err)
	}
	fmt.Fprintf(w, "Deleted %d row(s).\n", n)
	return nil
}

func queryBudget(ctx context.Context, txn *sp.ReadWriteTransaction, sql string, singerID, albumID int64) (int64, error) {
	stmt := sp.Statement{
		SQL:    sql,
		Params: map[string]any{"singer": singerID, "album": albumID},
	}
	var budget sp.NullInt64
	err := txn.Query(ctx, stmt).Do(func(row *sp.Row) error {
		return row.Column(0, &budget)
	})
	return budget.Int64, err
}

// WriteDataWithDMLTransaction moves TransferAmount of budget from album
// (2,2) to album (1,1) with DML inside one transaction.
func WriteDataWithDMLTransaction(ctx context.Context, w io.Writer, c *sp.Client) error {
	const (
		read   = `SELECT MarketingBudget FROM Albums WHERE SingerId = @singer AND AlbumId = @album`
		update = `UPDATE Albums SET MarketingBudget = @budget WHERE SingerId = @singer AND AlbumId = @album`
	)
	_, err := c.ReadWriteTransaction(ctx, func(ctx context.Context, txn *sp.ReadWriteTransaction) error {
		second, err := queryBudget(ctx, txn, read, 2, 2)
		if err != nil {
			return err
		}
		if second < TransferAmount {
			return fmt.Errorf("album (2,2) has %d: %w", second, ErrInsufficientBudget)
		}
		first, err := queryBudget(ctx, txn, read, 1, 1)
		if err != nil {
			return err
		}

		for _, u := range []struct {
			singer, album, budget int64
		}{
			{1, 1, first + TransferAmount},
			{2, 2, second - TransferAmount},
		} {
			if _, err := txn.Update(ctx, sp.Statement{
				SQL:    update,
				Params: map[string]any{"budget": u.budget, "singer": u.singer, "album": u.album},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to transfer budget: %w", err)
	}
	fmt.Fprintln(w, "Transaction complete.")
	return nil
}

// singerName is bound as a STRUCT query parameter.
type singerName struct {
	FirstName string
	LastName  string
}

// QueryWithStruct finds a singer by comparing (FirstName, LastName) with a
// struct parameter.
func QueryWithStruct(ctx context.Context, w io.Writer, c *sp.Client, first, last string) error {
	stmt := sp.Statement{
		SQL:    `SELECT SingerId FROM Singers WHERE (FirstName, LastName) = @name`,
		Params: map[string]any{"name": singerName{FirstName: first, LastName: last}},
	}
	err := c.Single().Query(ctx, stmt).Do(func(row *sp.Row) error {
		var id int64
		if err := row.Columns(&id); err != nil {
			return err
		}
		fmt.Fprintf(w, "SingerId: %d\n", id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to query singer: %w", err)
	}
	return nil
}

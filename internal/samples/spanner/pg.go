// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"

	sp "cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
)

// PGNumericDataType creates table with a PostgreSQL NUMERIC column and
// inserts a value, a NULL and a NaN into it.
func PGNumericDataType(ctx context.Context, w io.Writer, adm *database.DatabaseAdminClient, c *sp.Client, db Database, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		VenueId  bigint NOT NULL PRIMARY KEY,
		Name     varchar(1024) NOT NULL,
		Revenues numeric
	)`, table)
	if err := updateDDL(ctx, w, adm, db, ddl); err != nil {
		return err
	}

	insert := fmt.Sprintf(`INSERT INTO %s (VenueId, Name, Revenues) VALUES ($1, $2, $3)`, table)
	for _, v := range []struct {
		id      int64
		name    string
		revenue sp.PGNumeric
		suffix  string
	}{
		{1, "Venue 1", sp.PGNumeric{Numeric: "3150.25", Valid: true}, ""},
		{2, "Venue 2", sp.PGNumeric{}, " with NULL revenue"},
		{3, "Venue 4", sp.PGNumeric{Numeric: "NaN", Valid: true}, " with NaN revenue"},
	} {
		n, err := execDML(ctx, c, sp.Statement{
			SQL:    insert,
			Params: map[string]any{"p1": v.id, "p2": v.name, "p3": v.revenue},
		})
		if err != nil {
			return fmt.Errorf("failed to insert venue %d: %w", v.id, err)
		}
		fmt.Fprintf(w, "Inserted %d venue(s)%s.\n", n, v.suffix)
	}
	return nil
}

// PGOrderNulls shows where PostgreSQL sorts NULLs: last ascending, first
// descending, unless NULLS FIRST or NULLS LAST says otherwise.
func PGOrderNulls(ctx context.Context, w io.Writer, adm *database.DatabaseAdminClient, c *sp.Client, db Database, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		SingerId bigint NOT NULL PRIMARY KEY,
		Name     varchar(1024)
	)`, table)
	if err := updateDDL(ctx, w, adm, db, ddl); err != nil {
		return err
	}
	fmt.Fprintln(w, "Singers table created...")

	cols := []string{"SingerId", "Name"}
	if _, err := c.Apply(ctx, []*sp.Mutation{
		sp.Insert(table, cols, []any{1, "Bruce"}),
		sp.Insert(table, cols, []any{2, "Alice"}),
		sp.Insert(table, cols, []any{3, sp.NullString{}}),
	}); err != nil {
		return fmt.Errorf("failed to insert singers: %w", err)
	}
	fmt.Fprintln(w, "Added 3 singers")

	for _, order := range []string{
		"Name",
		"Name DESC",
		"Name NULLS FIRST",
		"Name DESC NULLS LAST",
	} {
		stmt := sp.Statement{SQL: fmt.Sprintf("SELECT SingerId, Name FROM %s ORDER BY %s", table, order)}
		err := c.Single().Query(ctx, stmt).Do(func(row *sp.Row) error {
			var id int64
			var name sp.NullString
			if err := row.Columns(&id, &name); err != nil {
				return err
			}
			fmt.Fprintf(w, "SingerId: %d, Name: %s\n", id, nullString(name))
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query singers: %w", err)
		}
	}
	return nil
}

// PGDMLGettingStartedUpdate moves TransferAmount of budget from album (2,2)
// to album (1,1) with PostgreSQL DML sent as one batch.
func PGDMLGettingStartedUpdate(ctx context.Context, w io.Writer, c *sp.Client) error {
	const (
		read   = `SELECT MarketingBudget FROM Albums WHERE SingerId = $1 AND AlbumId = $2`
		update = `UPDATE Albums SET MarketingBudget = $1 WHERE SingerId = $2 AND AlbumId = $3`
	)
	budget := func(ctx context.Context, txn *sp.ReadWriteTransaction, singer, album int64) (int64, error) {
		var b sp.NullInt64
		err := txn.Query(ctx, sp.Statement{
			SQL:    read,
			Params: map[string]any{"p1": singer, "p2": album},
		}).Do(func(row *sp.Row) error {
			return row.Column(0, &b)
		})
		return b.Int64, err
	}

	_, err := c.ReadWriteTransaction(ctx, func(ctx context.Context, txn *sp.ReadWriteTransaction) error {
		second, err := budget(ctx, txn, 2, 2)
		if err != nil {
			return err
		}
		if second < TransferAmount {
			return fmt.Errorf("album (2,2) has %d: %w", second, ErrInsufficientBudget)
		}
		first, err := budget(ctx, txn, 1, 1)
		if err != nil {
			return err
		}

		_, err = txn.BatchUpdate(ctx, []sp.Statement{
			{SQL: update, Params: map[string]any{"p1": first + TransferAmount, "p2": int64(1), "p3": int64(1)}},
			{SQL: update, Params: map[string]any{"p1": second - TransferAmount, "p2": int64(2), "p3": int64(2)}},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to transfer budget: %w", err)
	}
	fmt.Fprintln(w, "Marketing budget updated.")
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	bt "cloud.google.com/go/bigtable"

	"github.com/staranto/gcpctl/internal/gcp"
)

// StatsFamily is the family the write, read and filter samples use.
const StatsFamily = "stats_summary"

var greetings = []string{"Hello World!", "Hello Cloud Bigtable!", "Hello Go!"}

// HelloWorld creates a table, writes three greetings, reads them back and
// deletes the table again.
func HelloWorld(ctx context.Context, w io.Writer, admin *bt.AdminClient, client *bt.Client, table string) error {
	const (
		family = "cf1"
		column = "greeting"
	)

	fmt.Fprintf(w, "Creating a Table: %s\n", table)
	_, err := admin.TableInfo(ctx, table)
	switch {
	case gcp.IsNotFound(err):
		fmt.Fprintf(w, "Creating the %s table\n", table)
		if err := admin.CreateTable(ctx, table); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		if err := admin.CreateColumnFamily(ctx, table, family); err != nil {
			return fmt.Errorf("failed to create column family %s: %w", family, err)
		}
		fmt.Fprintf(w, "Created table %s\n", table)
	case err != nil:
		return fmt.Errorf("failed to get table %s: %w", table, err)
	default:
		fmt.Fprintf(w, "Table %s already exists\n", table)
	}

	tbl := client.Open(table)

	fmt.Fprintln(w, "Writing some greetings to the table.")
	muts := make([]*bt.Mutation, len(greetings))
	keys := make([]string, len(greetings))
	for i, g := range greetings {
		muts[i] = bt.NewMutation()
		muts[i].Set(family, column, bt.Now(), []byte(g))
		keys[i] = fmt.Sprintf("greeting%d", i)
	}
	errs, err := tbl.ApplyBulk(ctx, keys, muts)
	if err != nil {
		return fmt.Errorf("failed to apply bulk row mutation: %w", err)
	}
	for i, e := range errs {
		if e != nil {
			return fmt.Errorf("failed to write row %s: %w", keys[i], e)
		}
	}

	fmt.Fprintln(w, "Getting a single greeting by row key.")
	row, err := tbl.ReadRow(ctx, "greeting0", bt.RowFilter(bt.LatestNFilter(1)))
	if err != nil {
		return fmt.Errorf("failed to read row greeting0: %w", err)
	}
	for _, item := range row[family] {
		fmt.Fprintf(w, "%s\n", item.Value)
	}

	fmt.Fprintln(w, "Scanning for all greetings:")
	err = tbl.ReadRows(ctx, bt.PrefixRange("greeting"), func(row bt.Row) bool {
		for _, item := range row[family] {
			fmt.Fprintf(w, "%s\n", item.Value)
		}
		return true
	}, bt.RowFilter(bt.LatestNFilter(1)))
	if err != nil {
		return fmt.Errorf("failed to scan rows: %w", err)
	}

	return DeleteTable(ctx, w, admin, table)
}

// InsertUpdateRows creates table with family cf1 and upserts one cell. It
// stops early when the table already exists.
func InsertUpdateRows(ctx context.Context, w io.Writer, admin *bt.AdminClient, client *bt.Client, table string) error {
	const family = "cf1"

	fmt.Fprintf(w, "Creating table %s\n", table)
	err := admin.CreateTable(ctx, table)
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Table %s already exists.\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	fmt.Fprintf(w, "Table %s created\n", table)

	fmt.Fprintf(w, "Creating column family %s\n", family)
	if err := admin.CreateColumnFamily(ctx, table, family); err != nil {
		return fmt.Errorf("failed to create column family %s: %w", family, err)
	}

	fmt.Fprintln(w, "Inserting data in the table")
	mut := bt.NewMutation()
	mut.Set(family, "cq5", bt.Now(), []byte("Value5"))
	if err := client.Open(table).Apply(ctx, "rk5", mut); err != nil {
		return fmt.Errorf("failed to insert row rk5: %w", err)
	}
	fmt.Fprintln(w, "Data inserted successfully!")
	return nil
}

func int64Bytes(n int64) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, n)
	return buf.Bytes()
}

// WriteSimple writes a single phone row.
func WriteSimple(ctx context.Context, w io.Writer, client *bt.Client, table string) error {
	ts := bt.Now()
	mut := bt.NewMutation()
	mut.Set(StatsFamily, "connected_cell", ts, int64Bytes(1))
	mut.Set(StatsFamily, "connected_wifi", ts, int64Bytes(1))
	mut.Set(StatsFamily, "os_build", ts, []byte("PQ2A.190405.003"))

	rowKey := "phone#4c410523#20190501"
	if err := client.Open(table).Apply(ctx, rowKey, mut); err != nil {
		return fmt.Errorf("failed to write row %s: %w", rowKey, err)
	}
	fmt.Fprintf(w, "Successfully wrote row: %s\n", rowKey)
	return nil
}

// WriteBatch writes two tablet rows in one bulk request.
func WriteBatch(ctx context.Context, w io.Writer, client *bt.Client, table string) error {
	ts := bt.Now()
	builds := []string{"12155.0.0-rc1", "12145.0.0-rc6"}
	keys := []string{"tablet#a0b81f74#20190501", "tablet#a0b81f74#20190502"}

	muts := make([]*bt.Mutation, len(keys))
	for i := range keys {
		muts[i] = bt.NewMutation()
		muts[i].Set(StatsFamily, "connected_cell", ts, int64Bytes(1))
		muts[i].Set(StatsFamily, "connected_wifi", ts, int64Bytes(1))
		muts[i].Set(StatsFamily, "os_build", ts, []byte(builds[i]))
	}

	errs, err := client.Open(table).ApplyBulk(ctx, keys, muts)
	if err != nil {
		return fmt.Errorf("failed to apply bulk row mutation: %w", err)
	}
	for i, e := range errs {
		if e != nil {
			return fmt.Errorf("failed to write row %s: %w", keys[i], e)
		}
	}
	fmt.Fprintf(w, "Successfully wrote 2 rows: %s\n", keys)
	return nil
}

// WriteIncrement decrements connected_wifi on the phone row.
func WriteIncrement(ctx context.Context, w io.Writer, client *bt.Client, table string) error {
	rowKey := "phone#4c410523#20190501"
	rmw := bt.NewReadModifyWrite()
	rmw.Increment(StatsFamily, "connected_wifi", -1)

	if _, err := client.Open(table).ApplyReadModifyWrite(ctx, rowKey, rmw); err != nil {
		return fmt.Errorf("failed to increment row %s: %w", rowKey, err)
	}
	fmt.Fprintf(w, "Successfully updated row: %s\n", rowKey)
	return nil
}

// WriteConditional tags the phone row as android when its os_build looks
// like a PQ2A build.
func WriteConditional(ctx context.Context, w io.Writer, client *bt.Client, table string) error {
	rowKey := "phone#4c410523#20190501"
	filter := bt.ChainFilters(
		bt.FamilyFilter(StatsFamily),
		bt.ColumnFilter("os_build"),
		bt.ValueFilter(`PQ2A\..*`),
	)

	mut := bt.NewMutation()
	mut.Set(StatsFamily, "os_name", bt.Now(), []byte("android"))

	var matched bool
	cond := bt.NewCondMutation(filter, mut, nil)
	if err := client.Open(table).Apply(ctx, rowKey, cond, bt.GetCondMutationResult(&matched)); err != nil {
		return fmt.Errorf("failed to apply conditional mutation to %s: %w", rowKey, err)
	}
	if !matched {
		fmt.Fprintf(w, "Row %s did not match, os_name unchanged\n", rowKey)
		return nil
	}
	fmt.Fprintf(w, "Successfully updated row's os_name: %s\n", rowKey)
	return nil
}

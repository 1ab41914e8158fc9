// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	bt "cloud.google.com/go/bigtable"

	"github.com/staranto/gcpctl/internal/differ"
	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/gcrule"
)

const fiveDays = 5 * 24 * time.Hour

// Table is a row of list-tables.
type Table struct {
	ID string `jsonapi:"primary,tables"`
}

// Family is a row of list-families.
type Family struct {
	ID     string `jsonapi:"primary,families"`
	GCRule string `jsonapi:"attr,gc-rule"`
}

// sampleFamilies are the families run-table-operations creates, in order.
var sampleFamilies = []struct {
	name   string
	label  string
	policy bt.GCPolicy
}{
	{"cf1", "MaxAge", bt.MaxAgePolicy(fiveDays)},
	{"cf2", "MaxVersions", bt.MaxVersionsPolicy(2)},
	{"cf3", "Union", bt.UnionPolicy(bt.MaxVersionsPolicy(2), bt.MaxAgePolicy(fiveDays))},
	{"cf4", "Intersection", bt.IntersectionPolicy(bt.MaxAgePolicy(fiveDays), bt.MaxVersionsPolicy(2))},
	{"cf5", "Nested", bt.UnionPolicy(
		bt.MaxVersionsPolicy(10),
		bt.IntersectionPolicy(bt.MaxAgePolicy(30*24*time.Hour), bt.MaxVersionsPolicy(2)),
	)},
}

// RunTableOperations walks through the table admin API: create the table
// when missing, create one family per GC rule flavour, print them, update
// cf1's rule and finally drop cf2.
func RunTableOperations(ctx context.Context, w io.Writer, c *bt.AdminClient, table string) error {
	fmt.Fprintf(w, "Checking if table %s exists\n", table)
	_, err := c.TableInfo(ctx, table)
	switch {
	case gcp.IsNotFound(err):
		fmt.Fprintf(w, "Table does not exist. Creating table %s\n", table)
		if err := c.CreateTable(ctx, table); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		fmt.Fprintf(w, "Created table %s\n", table)
	case err != nil:
		return fmt.Errorf("failed to get table %s: %w", table, err)
	default:
		fmt.Fprintf(w, "Table %s already exists\n", table)
	}

	fmt.Fprintln(w, "Listing tables in current project:")
	tables, err := c.Tables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	for _, t := range tables {
		fmt.Fprintf(w, "\t%s\n", t)
	}

	for _, f := range sampleFamilies {
		fmt.Fprintf(w, "Creating column family %s with %s GC Rule...\n", f.name, f.label)
		err := c.CreateColumnFamilyWithConfig(ctx, table, f.name, bt.Family{GCPolicy: f.policy})
		if gcp.IsAlreadyExists(err) {
			fmt.Fprintf(w, "Column family %s already exists.\n", f.name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create column family %s: %w", f.name, err)
		}
		fmt.Fprintf(w, "Created column family %s with %s GC Rule.\n", f.name, f.label)
	}

	fmt.Fprintln(w, "Printing ID and GC Rule for all column families")
	families, err := familyInfos(ctx, c, table)
	if err != nil {
		return err
	}
	for _, fi := range families {
		printFamily(w, fi)
	}

	fmt.Fprintln(w, "Updating column family cf1 GC rule...")
	if err := updateGCRule(ctx, w, c, table, "cf1", bt.MaxVersionsPolicy(1)); err != nil {
		return err
	}
	fmt.Fprintln(w, "Updated column family cf1 GC rule")

	fmt.Fprintln(w, "Print updated column family cf1 GC rule...")
	if fi, ok, err := familyInfo(ctx, c, table, "cf1"); err != nil {
		return err
	} else if ok {
		printFamily(w, fi)
	}

	fmt.Fprintln(w, "Delete a column family cf2...")
	if err := c.DeleteColumnFamily(ctx, table, "cf2"); err != nil {
		return fmt.Errorf("failed to delete column family cf2: %w", err)
	}
	fmt.Fprintln(w, "Column family cf2 deleted successfully.")
	return nil
}

func printFamily(w io.Writer, fi bt.FamilyInfo) {
	fmt.Fprintf(w, "Column Family: %s\n", fi.Name)
	fmt.Fprintf(w, "\tGC Rule: %s\n", fi.GCPolicy)
}

func familyInfos(ctx context.Context, c *bt.AdminClient, table string) ([]bt.FamilyInfo, error) {
	ti, err := c.TableInfo(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", table, err)
	}
	fis := ti.FamilyInfos
	sort.Slice(fis, func(i, j int) bool { return fis[i].Name < fis[j].Name })
	return fis, nil
}

func familyInfo(ctx context.Context, c *bt.AdminClient, table, family string) (bt.FamilyInfo, bool, error) {
	fis, err := familyInfos(ctx, c, table)
	if err != nil {
		return bt.FamilyInfo{}, false, err
	}
	for _, fi := range fis {
		if fi.Name == family {
			return fi, true, nil
		}
	}
	return bt.FamilyInfo{}, false, nil
}

// updateGCRule swaps a family's policy and writes a diff of the rule trees.
func updateGCRule(ctx context.Context, w io.Writer, c *bt.AdminClient, table, family string, policy bt.GCPolicy) error {
	before, ok, err := familyInfo(ctx, c, table, family)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("column family %s not found in table %s", family, table)
	}

	if err := c.SetGCPolicy(ctx, table, family, policy); err != nil {
		return fmt.Errorf("failed to update column family %s: %w", family, err)
	}

	_, err = differ.Diff(w,
		map[string]any{"family": family, "gc_rule": gcrule.Describe(before.FullGCPolicy)},
		map[string]any{"family": family, "gc_rule": gcrule.Describe(policy)},
		differ.Options{},
	)
	return err
}

// CreateTable creates table with family cf1 unless it already exists.
func CreateTable(ctx context.Context, w io.Writer, c *bt.AdminClient, table string) error {
	fmt.Fprintf(w, "Creating a Table: %s\n", table)
	_, err := c.TableInfo(ctx, table)
	if err == nil {
		fmt.Fprintf(w, "Table %s already exists\n", table)
		return nil
	}
	if !gcp.IsNotFound(err) {
		return fmt.Errorf("failed to get table %s: %w", table, err)
	}

	if err := c.CreateTable(ctx, table); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	if err := c.CreateColumnFamily(ctx, table, "cf1"); err != nil {
		return fmt.Errorf("failed to create column family cf1: %w", err)
	}
	fmt.Fprintf(w, "Created table %s\n", table)
	return nil
}

// ListTables returns the tables of the client's instance.
func ListTables(ctx context.Context, c *bt.AdminClient) ([]*Table, error) {
	names, err := c.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	sort.Strings(names)

	rows := make([]*Table, 0, len(names))
	for _, n := range names {
		rows = append(rows, &Table{ID: n})
	}
	return rows, nil
}

// CreateFamily adds a family whose GC rule is given as a gcrule expression.
func CreateFamily(ctx context.Context, w io.Writer, c *bt.AdminClient, table, family, rule string) error {
	policy, err := gcrule.Parse(rule)
	if err != nil {
		return err
	}

	err = c.CreateColumnFamilyWithConfig(ctx, table, family, bt.Family{GCPolicy: policy})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Column family %s already exists.\n", family)
		return nil
	}
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Table %s does not exist.\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create column family %s: %w", family, err)
	}
	fmt.Fprintf(w, "Created column family %s with GC Rule: %s\n", family, policy)
	return nil
}

// ListFamilies returns the families of table with their GC rules.
func ListFamilies(ctx context.Context, c *bt.AdminClient, table string) ([]*Family, error) {
	fis, err := familyInfos(ctx, c, table)
	if err != nil {
		return nil, err
	}

	rows := make([]*Family, 0, len(fis))
	for _, fi := range fis {
		rows = append(rows, &Family{ID: fi.Name, GCRule: fi.GCPolicy})
	}
	return rows, nil
}

// UpdateGCRule replaces a family's GC rule and prints what changed.
func UpdateGCRule(ctx context.Context, w io.Writer, c *bt.AdminClient, table, family, rule string) error {
	policy, err := gcrule.Parse(rule)
	if err != nil {
		return err
	}
	if err := updateGCRule(ctx, w, c, table, family, policy); err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated column family %s GC rule\n", family)
	return nil
}

// DeleteFamily drops a family and all of its data.
func DeleteFamily(ctx context.Context, w io.Writer, c *bt.AdminClient, table, family string) error {
	err := c.DeleteColumnFamily(ctx, table, family)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Column family %s does not exist.\n", family)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete column family %s: %w", family, err)
	}
	fmt.Fprintf(w, "Column family %s deleted successfully.\n", family)
	return nil
}

// DeleteTable drops a table.
func DeleteTable(ctx context.Context, w io.Writer, c *bt.AdminClient, table string) error {
	fmt.Fprintf(w, "Attempting to delete table %s.\n", table)
	err := c.DeleteTable(ctx, table)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Table %s does not exists\n", table)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", table, err)
	}
	fmt.Fprintf(w, "Deleted %s table.\n", table)
	return nil
}

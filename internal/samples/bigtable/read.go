// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	bt "cloud.google.com/go/bigtable"
)

type reader func(ctx context.Context, w io.Writer, tbl *bt.Table) error

func rowsReader(rs bt.RowSet, opts ...bt.ReadOption) reader {
	return func(ctx context.Context, w io.Writer, tbl *bt.Table) error {
		return tbl.ReadRows(ctx, rs, rowPrinter(w), opts...)
	}
}

// rowReader reads a single row. A missing row still prints its key.
func rowReader(key string, opts ...bt.ReadOption) reader {
	return func(ctx context.Context, w io.Writer, tbl *bt.Table) error {
		row, err := tbl.ReadRow(ctx, key, opts...)
		if err != nil {
			return err
		}
		printRow(w, key, row)
		return nil
	}
}

// ReadTypes lists the read snippets in the order they are documented.
var ReadTypes = []string{
	"read_row", "read_row_partial", "read_rows", "read_row_range",
	"read_row_ranges", "read_prefix", "read_filter",
}

var readers = map[string]reader{
	"read_row":         rowReader("phone#4c410523#20190501"),
	"read_row_partial": rowReader("phone#4c410523#20190501", bt.RowFilter(bt.ColumnFilter("os_build"))),
	"read_rows":        rowsReader(bt.RowList{"phone#4c410523#20190501", "phone#4c410523#20190502"}),
	"read_row_range":   rowsReader(bt.NewRange("phone#4c410523#20190501", "phone#4c410523#201906201")),
	"read_row_ranges": rowsReader(bt.RowRangeList{
		bt.NewRange("phone#4c410523#20190501", "phone#4c410523#201906201"),
		bt.NewRange("phone#5c10102#20190501", "phone#5c10102#201906201"),
	}),
	"read_prefix": rowsReader(bt.PrefixRange("phone#")),
	"read_filter": rowsReader(bt.InfiniteRange(""), bt.RowFilter(bt.ValueFilter("PQ2A.*$"))),
}

// Read runs one of the ReadTypes snippets against table and prints every
// row it returns.
func Read(ctx context.Context, w io.Writer, client *bt.Client, table, readType string) error {
	r, ok := readers[readType]
	if !ok {
		return fmt.Errorf("invalid read type %s, must be one of: %s", readType, strings.Join(ReadTypes, ", "))
	}
	if err := r(ctx, w, client.Open(table)); err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	return nil
}

// FilterTypes lists the filter snippets in the order they are documented.
var FilterTypes = []string{
	"filter_limit_row_sample", "filter_limit_row_regex",
	"filter_limit_cells_per_col", "filter_limit_cells_per_row",
	"filter_limit_cells_per_row_offset", "filter_limit_col_family_regex",
	"filter_limit_col_qualifier_regex", "filter_limit_col_range",
	"filter_limit_value_range", "filter_limit_value_regex",
	"filter_limit_timestamp_range", "filter_limit_block_all",
	"filter_limit_pass_all", "filter_modify_strip_value",
	"filter_modify_apply_label", "filter_composing_chain",
	"filter_composing_interleave", "filter_composing_condition",
}

// newFilter builds the filter for name. The timestamp range is relative to
// now, so filters are built per call.
func newFilter(name string, now time.Time) (bt.Filter, bool) {
	switch name {
	case "filter_limit_row_sample":
		return bt.RowSampleFilter(.75), true
	case "filter_limit_row_regex":
		return bt.RowKeyFilter(".*#20190501$"), true
	case "filter_limit_cells_per_col":
		return bt.LatestNFilter(2), true
	case "filter_limit_cells_per_row":
		return bt.CellsPerRowLimitFilter(2), true
	case "filter_limit_cells_per_row_offset":
		return bt.CellsPerRowOffsetFilter(2), true
	case "filter_limit_col_family_regex":
		return bt.FamilyFilter("stats_.*$"), true
	case "filter_limit_col_qualifier_regex":
		return bt.ColumnFilter("connected_.*$"), true
	case "filter_limit_col_range":
		return bt.ColumnRangeFilter("cell_plan", "data_plan_01gb", "data_plan_10gb"), true
	case "filter_limit_value_range":
		return bt.ValueRangeFilter([]byte("PQ2A.190405"), []byte("PQ2A.190406")), true
	case "filter_limit_value_regex":
		return bt.ValueFilter("PQ2A.*$"), true
	case "filter_limit_timestamp_range":
		return bt.TimestampRangeFilterMicros(0, bt.Time(now.Add(-time.Hour))), true
	case "filter_limit_block_all":
		return bt.BlockAllFilter(), true
	case "filter_limit_pass_all":
		return bt.PassAllFilter(), true
	case "filter_modify_strip_value":
		return bt.StripValueFilter(), true
	case "filter_modify_apply_label":
		return bt.LabelFilter("labelled"), true
	case "filter_composing_chain":
		return bt.ChainFilters(bt.LatestNFilter(1), bt.FamilyFilter("cell_plan")), true
	case "filter_composing_interleave":
		return bt.InterleaveFilters(bt.ValueFilter("1"), bt.ColumnFilter("os_build")), true
	case "filter_composing_condition":
		return bt.ConditionFilter(
			bt.ChainFilters(bt.ValueFilter("1"), bt.ColumnFilter("data_plan_10gb")),
			bt.LabelFilter("passed-filter"),
			bt.LabelFilter("filtered-out"),
		), true
	}
	return nil, false
}

// Filter scans table through one of the FilterTypes filters.
func Filter(ctx context.Context, w io.Writer, client *bt.Client, table, filterType string) error {
	f, ok := newFilter(filterType, time.Now())
	if !ok {
		return fmt.Errorf("invalid filter type %s, must be one of: %s", filterType, strings.Join(FilterTypes, ", "))
	}
	err := client.Open(table).ReadRows(ctx, bt.InfiniteRange(""), rowPrinter(w), bt.RowFilter(f))
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}
	return nil
}

func rowPrinter(w io.Writer) func(bt.Row) bool {
	return func(row bt.Row) bool {
		printRow(w, row.Key(), row)
		return true
	}
}

// printRow writes a row family by family. Cells print as
// "<qualifier>: <value> @<timestamp>" with any labels appended.
func printRow(w io.Writer, key string, row bt.Row) {
	fmt.Fprintf(w, "Reading data for row %s\n", key)

	families := make([]string, 0, len(row))
	for f := range row {
		families = append(families, f)
	}
	sort.Strings(families)

	for _, f := range families {
		fmt.Fprintf(w, "Column Family %s\n", f)
		for _, item := range row[f] {
			qualifier := strings.TrimPrefix(item.Column, f+":")
			labels := ""
			if len(item.Labels) > 0 {
				labels = fmt.Sprintf(" [%s]", strings.Join(item.Labels, ","))
			}
			fmt.Fprintf(w, "\t%s: %s @%d%s\n", qualifier, item.Value, item.Timestamp, labels)
		}
	}
	fmt.Fprintln(w)
}

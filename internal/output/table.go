// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"

	"github.com/staranto/gcpctl/internal/config"
)

// tableStyle is the look of a text table, read from the config file.
type tableStyle struct {
	header  lipgloss.Style
	even    lipgloss.Style
	odd     lipgloss.Style
	padding int
	border  lipgloss.Border
}

func newTableStyle(color bool) tableStyle {
	base := lipgloss.NewStyle().Align(lipgloss.Left)
	ts := tableStyle{header: base, even: base, odd: base, border: lipgloss.HiddenBorder()}

	if color {
		header, even, odd := getColors("colors")
		ts.header = ts.header.Foreground(lipgloss.Color(header))
		ts.even = ts.even.Foreground(lipgloss.Color(even))
		ts.odd = ts.odd.Foreground(lipgloss.Color(odd))
	}

	ts.padding, _ = config.GetInt("padding", 1)
	if rounded, _ := config.GetBool("borders", false); rounded {
		ts.border = lipgloss.RoundedBorder()
	}
	return ts
}

func (ts tableStyle) cell(row, col int) lipgloss.Style {
	style := ts.odd
	switch {
	case row == table.HeaderRow:
		style = ts.header
	case row%2 == 0:
		style = ts.even
	}
	if col > 0 {
		style = style.PaddingLeft(ts.padding)
	}
	return style
}

func (ts tableStyle) table(rows [][]string) *table.Table {
	return table.New().
		Border(ts.border).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		StyleFunc(ts.cell).
		Rows(rows...)
}

// getColors returns the header, even row and odd row colours under key.
// The defaults are the Google blue, white and green.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(key+".title", "#4285f4")
	even, _ = config.GetString(key+".even", "#ffffff")
	odd, _ = config.GetString(key+".odd", "#34a853")
	return
}

// DumpExamples renders a two column table of samples and what they do. The
// service command groups use it when invoked without a sample.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}
	if w == nil {
		w = os.Stdout
	}

	rows := make([][]string, 0, len(examples))
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	plain := lipgloss.NewStyle()
	ts := tableStyle{header: plain, even: plain, odd: plain, border: lipgloss.HiddenBorder(), padding: 1}
	t := ts.table(rows).Headers("Sample", "Description").BorderHeader(false)
	fmt.Fprintln(w, t)
}

// writeTable renders rows with one column per included attr. Headers are
// shown with --titles.
func writeTable(w io.Writer, rows []map[string]interface{}, cols []string, titles bool, ts tableStyle) {
	if len(rows) == 0 {
		return
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = InterfaceToString(r[c], "-")
		}
		cells = append(cells, line)
	}

	t := ts.table(cells)
	if titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(cols...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/gcpctl/internal/attrs"
	"github.com/staranto/gcpctl/internal/filters"
)

type renderer func(w io.Writer, rows []map[string]interface{}, al attrs.AttrList, cmd *cli.Command) error

var renderers = map[string]renderer{
	"json": renderJSON,
	"yaml": renderYAML,
	"text": renderText,
}

// SliceDiceSpit runs a list sample's jsonapi document through --filter, the
// --attrs transforms and --sort, then renders it per --output. parent is the
// gjson path of the row array. postProcess, when not nil, sees the final
// rows before they are rendered.
func SliceDiceSpit(raw bytes.Buffer,
	al attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer,
	postProcess func([]map[string]interface{}) error) {

	if w == nil {
		w = os.Stdout
	}

	format := cmd.String("output")
	if format == "raw" {
		_, _ = w.Write(raw.Bytes())
		return
	}

	doc := gjson.ParseBytes(raw.Bytes())
	if parent != "" {
		doc = doc.Get(parent)
	}

	// Filter first so the following passes work on the smaller dataset.
	rows := filters.FilterDataset(doc, al, cmd.String("filter"))

	if cmd.Bool("local") {
		for i := range al {
			al[i].TransformSpec += "t"
		}
	}
	transformRows(rows, al)

	SortDataset(rows, cmd.String("sort"))

	if postProcess != nil {
		if err := postProcess(rows); err != nil {
			log.WithError(err).Error("post-processing rows")
		}
	}

	render, ok := renderers[format]
	if !ok {
		render = renderText
	}
	if err := render(w, rows, al, cmd); err != nil {
		log.WithError(err).Errorf("rendering %s", format)
	}
}

func transformRows(rows []map[string]interface{}, al attrs.AttrList) {
	for _, a := range al {
		if a.TransformSpec == "" {
			continue
		}
		for _, row := range rows {
			row[a.OutputKey] = a.Transform(row[a.OutputKey])
		}
	}
}

func renderJSON(w io.Writer, rows []map[string]interface{}, _ attrs.AttrList, _ *cli.Command) error {
	// encoding/json sorts map keys, so columns come out alphabetically.
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderYAML(w io.Writer, rows []map[string]interface{}, _ attrs.AttrList, _ *cli.Command) error {
	b, err := yaml.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func renderText(w io.Writer, rows []map[string]interface{}, al attrs.AttrList, cmd *cli.Command) error {
	var cols []string
	for _, a := range al {
		if a.Include {
			cols = append(cols, a.OutputKey)
		}
	}
	writeTable(w, rows, cols, cmd.Bool("titles"), newTableStyle(cmd.Bool("color")))
	return nil
}

// InterfaceToString converts a row value to its table cell. Zero values
// render as emptyValue, "" by default.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return empty
	}

	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		// Row values are counts, sizes and node numbers, so no decimals.
		return strconv.FormatFloat(v, 'f', 0, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}

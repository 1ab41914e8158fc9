// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/apex/log"
)

// Tag is one jsonapi attr of a row type, as listed by --schema. Name is
// dotted when the attr sits inside a nested struct.
type Tag struct {
	Kind     string
	Name     string
	Encoding string
}

// NewTag parses a jsonapi struct tag. Only attr tags are kept; anything else
// yields the zero Tag. holder prefixes the name of nested attrs.
func NewTag(holder string, raw string) Tag {
	kind, rest, _ := strings.Cut(raw, ",")
	if kind != "attr" {
		return Tag{}
	}

	tag := Tag{Kind: kind}
	name, encoding, _ := strings.Cut(rest, ",")
	if name != "" && holder != "" {
		name = holder + "." + name
	}
	tag.Name = name
	tag.Encoding = encoding
	return tag
}

// Print renders the tag as it is typed in --attrs.
func (t Tag) Print() string {
	return t.Name
}

// DumpSchema lists the attrs of a list sample's row type.
func DumpSchema(w io.Writer, prefix string, typ reflect.Type) {
	if w == nil {
		w = os.Stdout
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	tags := DumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("no attrs on %s", typ.Name())
		return
	}
	slices.SortFunc(tags, func(a, b Tag) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	fmt.Fprintf(w, "Schema for %s --\n", typ.Name())
	for _, tag := range tags {
		fmt.Fprintln(w, tag.Print())
	}
	fmt.Fprint(w, `
Row attributes that are directly available to the --attrs flag. The
resource name is always available as .id. For the complete row, including
the jsonapi envelope, use --output=raw.
`)
}

const maxSchemaDepth = 1

// DumpSchemaWalker collects the attr tags of typ, descending one level into
// struct and *struct fields so nested attrs show up as parent.child.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	var tags []Tag

	for _, field := range reflect.VisibleFields(typ) {
		if len(field.Index) > 1 {
			continue
		}
		raw, ok := field.Tag.Lookup("jsonapi")
		if !ok {
			continue
		}
		tag := NewTag(holder, raw)
		if tag.Kind == "" {
			continue
		}
		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			tags = append(tags, DumpSchemaWalker(tag.Name, ft, depth+1)...)
		}
	}

	return tags
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	ds "cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
)

// Queries maps each query sample to the query it runs against Task.
var Queries = map[string]func() *ds.Query{
	"basic-query": func() *ds.Query {
		return ds.NewQuery("Task").
			FilterField("done", "=", false).
			FilterField("priority", ">=", 4).
			Order("-priority")
	},
	"property-filter": func() *ds.Query {
		return ds.NewQuery("Task").FilterField("done", "=", false)
	},
	"composite-filter": func() *ds.Query {
		return ds.NewQuery("Task").
			FilterField("done", "=", false).
			FilterField("priority", "=", 4)
	},
	"key-filter": func() *ds.Query {
		return ds.NewQuery("Task").FilterField("__key__", ">", ds.NameKey("Task", "someTask", nil))
	},
	"ascending-sort": func() *ds.Query {
		return ds.NewQuery("Task").Order("created")
	},
	"descending-sort": func() *ds.Query {
		return ds.NewQuery("Task").Order("-created")
	},
	"multi-sort": func() *ds.Query {
		return ds.NewQuery("Task").Order("-priority").Order("created")
	},
	"ancestor-query": func() *ds.Query {
		return ds.NewQuery("Task").Ancestor(ds.NameKey("TaskList", "default", nil))
	},
	"limit": func() *ds.Query {
		return ds.NewQuery("Task").Limit(5)
	},
}

// RunQuery runs one of the Queries samples and prints every task it
// returns.
func RunQuery(ctx context.Context, w io.Writer, c *ds.Client, name string) error {
	build, ok := Queries[name]
	if !ok {
		return fmt.Errorf("unknown query %s", name)
	}

	n := 0
	it := c.Run(ctx, build())
	for {
		var task Task
		key, err := it.Next(&task)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", name, err)
		}
		printTask(w, key, &task)
		n++
	}
	fmt.Fprintf(w, "Found %d tasks.\n", n)
	return nil
}

// KindlessQuery returns entities of every kind whose key sorts after
// Task:someTask.
func KindlessQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	last := ds.NameKey("Task", "someTask", nil)
	keys, err := c.GetAll(ctx, ds.NewQuery("").FilterField("__key__", ">", last).KeysOnly(), nil)
	if err != nil {
		return fmt.Errorf("failed to run kindless query: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(w, keyString(k))
	}
	return nil
}

// KeysOnlyQuery lists task keys without their properties.
func KeysOnlyQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys, err := c.GetAll(ctx, ds.NewQuery("Task").KeysOnly(), nil)
	if err != nil {
		return fmt.Errorf("failed to run keys only query: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(w, keyString(k))
	}
	return nil
}

// ProjectionQuery reads only priority and percent_complete.
func ProjectionQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	var tasks []Task
	q := ds.NewQuery("Task").Project("priority", "percent_complete")
	if _, err := c.GetAll(ctx, q, &tasks); err != nil {
		return fmt.Errorf("failed to run projection query: %w", err)
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "priority: %d, percent_complete: %g\n", t.Priority, t.PercentComplete)
	}
	return nil
}

// DistinctOn returns one task per category.
func DistinctOn(ctx context.Context, w io.Writer, c *ds.Client) error {
	var tasks []Task
	q := ds.NewQuery("Task").
		Project("category", "priority").
		DistinctOn("category").
		Order("category").
		Order("priority")
	if _, err := c.GetAll(ctx, q, &tasks); err != nil {
		return fmt.Errorf("failed to run distinct on query: %w", err)
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "category: %s, priority: %d\n", t.Category, t.Priority)
	}
	return nil
}

// CursorPaging prints one page of tasks and the cursor of the next page.
func CursorPaging(ctx context.Context, w io.Writer, c *ds.Client, pageSize int, cursor string) (string, error) {
	q := ds.NewQuery("Task").Limit(pageSize)
	if cursor != "" {
		cur, err := ds.DecodeCursor(cursor)
		if err != nil {
			return "", fmt.Errorf("invalid cursor: %w", err)
		}
		q = q.Start(cur)
	}

	it := c.Run(ctx, q)
	for {
		var task Task
		key, err := it.Next(&task)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to page tasks: %w", err)
		}
		printTask(w, key, &task)
	}

	next, err := it.Cursor()
	if err != nil {
		return "", fmt.Errorf("failed to get cursor: %w", err)
	}
	fmt.Fprintf(w, "Next page cursor: %s\n", next.String())
	return next.String(), nil
}

// NamespaceQuery lists the namespaces in the database.
func NamespaceQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys, err := c.GetAll(ctx, ds.NewQuery("__namespace__").KeysOnly(), nil)
	if err != nil {
		return fmt.Errorf("failed to list namespaces: %w", err)
	}
	for _, k := range keys {
		name := k.Name
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintln(w, name)
	}
	return nil
}

// KindQuery lists the kinds in the database.
func KindQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys, err := c.GetAll(ctx, ds.NewQuery("__kind__").KeysOnly(), nil)
	if err != nil {
		return fmt.Errorf("failed to list kinds: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k.Name)
	}
	return nil
}

// PropertyQuery lists indexed properties as kind.property.
func PropertyQuery(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys, err := c.GetAll(ctx, ds.NewQuery("__property__").KeysOnly(), nil)
	if err != nil {
		return fmt.Errorf("failed to list properties: %w", err)
	}
	for _, k := range keys {
		kind := ""
		if k.Parent != nil {
			kind = k.Parent.Name
		}
		fmt.Fprintf(w, "%s.%s\n", kind, k.Name)
	}
	return nil
}

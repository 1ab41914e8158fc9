// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"fmt"
	"io"

	fs "cloud.google.com/go/firestore"
)

// StartAtField returns cities from a population of one million upwards.
func StartAtField(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"start at population 1000000 field query cursor.",
		c.Collection("cities").OrderBy("population", fs.Asc).StartAt(1000000),
	})
}

// EndAtField returns cities up to a population of one million.
func EndAtField(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"end at population 1000000 field query cursor.",
		c.Collection("cities").OrderBy("population", fs.Asc).EndAt(1000000),
	})
}

// PaginatedQuery reads the first page of three cities and then the page
// that starts after its last document.
func PaginatedQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	first := c.Collection("cities").OrderBy("population", fs.Asc).Limit(3)
	docs, err := first.Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to read first page: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No cities found.")
		return nil
	}

	last := docs[len(docs)-1]
	next := c.Collection("cities").OrderBy("population", fs.Asc).StartAfter(last.Data()["population"]).Limit(3)
	return runQueries(ctx, w, describedQuery{"paginated query cursor.", next})
}

// MultipleCursorConditions uses a cursor on one and on two order fields.
func MultipleCursorConditions(ctx context.Context, w io.Writer, c *fs.Client) error {
	cities := c.Collection("cities")
	return runQueries(ctx, w,
		describedQuery{"start at Springfield query cursor.", cities.OrderBy("name", fs.Asc).StartAt("Springfield")},
		describedQuery{"start at Springfield, Missouri query cursor.", cities.OrderBy("name", fs.Asc).OrderBy("state", fs.Asc).StartAt("Springfield", "Missouri")},
	)
}

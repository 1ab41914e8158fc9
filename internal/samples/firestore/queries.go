// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"fmt"
	"io"

	fs "cloud.google.com/go/firestore"
)

// describedQuery pairs a query with the text printed next to its results.
type describedQuery struct {
	desc string
	q    fs.Query
}

func runQueries(ctx context.Context, w io.Writer, queries ...describedQuery) error {
	for _, dq := range queries {
		err := each(dq.q.Documents(ctx), func(doc *fs.DocumentSnapshot) error {
			fmt.Fprintf(w, "Document %s returned by %s\n", doc.Ref.ID, dq.desc)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", dq.desc, err)
		}
	}
	return nil
}

// SimpleQueries runs one equality and two range queries.
func SimpleQueries(ctx context.Context, w io.Writer, c *fs.Client) error {
	cities := c.Collection("cities")
	return runQueries(ctx, w,
		describedQuery{"query state=CA", cities.Where("state", "==", "CA")},
		describedQuery{"query population>1000000", cities.Where("population", ">", 1000000)},
		describedQuery{"query name>=San Francisco", cities.Where("name", ">=", "San Francisco")},
	)
}

// ArrayMembership finds cities whose regions contain west_coast.
func ArrayMembership(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"query regions array-contains west_coast",
		c.Collection("cities").Where("regions", "array-contains", "west_coast"),
	})
}

// ArrayMembershipAny finds cities on either coast.
func ArrayMembershipAny(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"query regions array-contains-any [west_coast, east_coast]",
		c.Collection("cities").Where("regions", "array-contains-any", []string{"west_coast", "east_coast"}),
	})
}

// InQuery matches against a list of values.
func InQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"query country in [USA, Japan]",
		c.Collection("cities").Where("country", "in", []string{"USA", "Japan"}),
	})
}

// NotInQuery excludes a list of values.
func NotInQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"query country not-in [USA, Japan]",
		c.Collection("cities").Where("country", "not-in", []string{"USA", "Japan"}),
	})
}

// ChainedQuery combines equality filters, and an equality with a range.
// The second needs a composite index.
func ChainedQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	cities := c.Collection("cities")
	return runQueries(ctx, w,
		describedQuery{"query state=CA and name=San Francisco", cities.Where("state", "==", "CA").Where("name", "==", "San Francisco")},
		describedQuery{"query state=CA and population<1000000", cities.Where("state", "==", "CA").Where("population", "<", 1000000)},
	)
}

// RangeQuery ranges over a single field.
func RangeQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	return runQueries(ctx, w, describedQuery{
		"query CA<=state<=IN",
		c.Collection("cities").Where("state", ">=", "CA").Where("state", "<=", "IN"),
	})
}

// InvalidRangeQuery builds, but never runs, a query with range filters on
// two fields.
func InvalidRangeQuery(_ context.Context, w io.Writer, c *fs.Client) error {
	_ = c.Collection("cities").Where("state", ">=", "CA").Where("population", ">", 1000000)
	fmt.Fprintln(w, "Invalid range query: state>=CA and population>1000000")
	return nil
}

// OrderLimit runs the order-by and limit variations.
func OrderLimit(ctx context.Context, w io.Writer, c *fs.Client) error {
	cities := c.Collection("cities")
	return runQueries(ctx, w,
		describedQuery{"order by name with limit query", cities.OrderBy("name", fs.Asc).Limit(3)},
		describedQuery{"order by name descending with limit query", cities.OrderBy("name", fs.Desc).Limit(3)},
		describedQuery{"order by state and descending population query", cities.OrderBy("state", fs.Asc).OrderBy("population", fs.Desc)},
		describedQuery{"where order by limit query", cities.Where("population", ">", 2500000).OrderBy("population", fs.Asc).Limit(2)},
		describedQuery{"range with order by query", cities.Where("population", ">", 2500000).OrderBy("population", fs.Asc)},
	)
}

// landmarks is the data collection-group-query seeds under each city.
var landmarks = []struct {
	city string
	name string
	kind string
}{
	{"SF", "Golden Gate Bridge", "bridge"},
	{"SF", "Legion of Honor", "museum"},
	{"LA", "Griffith Park", "park"},
	{"LA", "The Getty", "museum"},
	{"DC", "Lincoln Memorial", "memorial"},
	{"DC", "National Air and Space Museum", "museum"},
	{"TOK", "Ueno Park", "park"},
	{"TOK", "National Museum of Nature and Science", "museum"},
	{"BJ", "Jingshan Park", "park"},
	{"BJ", "Beijing Ancient Observatory", "museum"},
}

// CollectionGroupQuery seeds a landmarks subcollection under every city and
// then queries all of them at once for museums.
func CollectionGroupQuery(ctx context.Context, w io.Writer, c *fs.Client) error {
	for _, l := range landmarks {
		_, _, err := c.Collection("cities").Doc(l.city).Collection("landmarks").Add(ctx, map[string]interface{}{
			"name": l.name,
			"type": l.kind,
		})
		if err != nil {
			return fmt.Errorf("failed to add landmark %s: %w", l.name, err)
		}
	}
	fmt.Fprintln(w, "Added example landmarks collections to the cities collection.")

	q := c.CollectionGroup("landmarks").Where("type", "==", "museum")
	err := each(q.Documents(ctx), func(doc *fs.DocumentSnapshot) error {
		fmt.Fprintf(w, "%s => %v\n", doc.Ref.Path, doc.Data()["name"])
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to query landmarks: %w", err)
	}
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package firestore holds the Cloud Firestore samples. Most of them work on
// the cities collection that create-cities seeds.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewClient returns a Firestore client for the factory's project and the
// (default) database.
func NewClient(ctx context.Context, f *gcp.Factory) (*fs.Client, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	c, err := fs.NewClient(ctx, project, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return c, nil
}

// Initialize only proves a client can be built.
func Initialize(ctx context.Context, w io.Writer, f *gcp.Factory) error {
	c, err := NewClient(ctx, f)
	if err != nil {
		return err
	}
	defer c.Close()

	project, _ := f.Project(ctx)
	fmt.Fprintf(w, "Created Cloud Firestore client with project ID: %s\n", project)
	return nil
}

// City is a document of the cities collection. A nil State is stored as
// null so ordering by state still returns the city.
type City struct {
	Name       string   `firestore:"name"`
	State      *string  `firestore:"state"`
	Country    string   `firestore:"country"`
	Capital    bool     `firestore:"capital"`
	Population int64    `firestore:"population"`
	Density    int64    `firestore:"density"`
	Regions    []string `firestore:"regions"`
}

func state(s string) *string { return &s }

// cities is the data create-cities writes, keyed by document id.
var cities = map[string]City{
	"SF":  {Name: "San Francisco", State: state("CA"), Country: "USA", Capital: false, Population: 860000, Density: 18000, Regions: []string{"west_coast", "norcal"}},
	"LA":  {Name: "Los Angeles", State: state("CA"), Country: "USA", Capital: false, Population: 3900000, Density: 8300, Regions: []string{"west_coast", "socal"}},
	"DC":  {Name: "Washington D.C.", Country: "USA", Capital: true, Population: 680000, Density: 11300, Regions: []string{"east_coast"}},
	"TOK": {Name: "Tokyo", Country: "Japan", Capital: true, Population: 9000000, Density: 16000, Regions: []string{"kanto", "honshu"}},
	"BJ":  {Name: "Beijing", Country: "China", Capital: true, Population: 21500000, Density: 3500, Regions: []string{"jingjinji", "hebei"}},
}

// printData prints a document's fields in key order.
func printData(w io.Writer, data map[string]interface{}) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "\t[%s] => %v\n", k, data[k])
	}
}

// each calls fn for every document the iterator yields.
func each(it *fs.DocumentIterator, fn func(*fs.DocumentSnapshot) error) error {
	defer it.Stop()
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	fs "cloud.google.com/go/firestore"
)

// ErrPopulationTooBig aborts return-info-transaction.
var ErrPopulationTooBig = errors.New("sorry! population is too big")

func population(doc *fs.DocumentSnapshot) (int64, error) {
	v, err := doc.DataAt("population")
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("population of %s is a %T", doc.Ref.ID, v)
}

// RunTransaction adds one to SF's population.
func RunTransaction(ctx context.Context, w io.Writer, c *fs.Client) error {
	sf := c.Collection("cities").Doc("SF")
	err := c.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		doc, err := tx.Get(sf)
		if err != nil {
			return err
		}
		pop, err := population(doc)
		if err != nil {
			return err
		}
		return tx.Update(sf, []fs.Update{{Path: "population", Value: pop + 1}})
	})
	if err != nil {
		return fmt.Errorf("failed to run transaction: %w", err)
	}
	fmt.Fprintln(w, "Ran a simple transaction to update the population field in the SF document in the cities collection.")
	return nil
}

// ReturnInfoTransaction adds one to SF's population only while it stays at
// or below one million.
func ReturnInfoTransaction(ctx context.Context, w io.Writer, c *fs.Client) error {
	sf := c.Collection("cities").Doc("SF")
	var updated int64
	err := c.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		doc, err := tx.Get(sf)
		if err != nil {
			return err
		}
		pop, err := population(doc)
		if err != nil {
			return err
		}
		updated = pop + 1
		if updated > 1000000 {
			return ErrPopulationTooBig
		}
		return tx.Update(sf, []fs.Update{{Path: "population", Value: updated}})
	})
	if err != nil {
		return fmt.Errorf("failed to update population: %w", err)
	}
	fmt.Fprintln(w, "Population updated successfully.")
	return nil
}

// BatchWrite sets, updates and deletes three documents atomically.
func BatchWrite(ctx context.Context, w io.Writer, c *fs.Client) error {
	cities := c.Collection("cities")
	err := c.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		if err := tx.Set(cities.Doc("NYC"), map[string]interface{}{"name": "New York City"}); err != nil {
			return err
		}
		if err := tx.Update(cities.Doc("SF"), []fs.Update{{Path: "population", Value: 1000000}}); err != nil {
			return err
		}
		return tx.Delete(cities.Doc("DC"))
	})
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	fmt.Fprintln(w, "Batch write successfully completed.")
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"fmt"
	"io"

	fs "cloud.google.com/go/firestore"
)

// UpdateDoc makes DC a capital.
func UpdateDoc(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("cities").Doc("DC").Update(ctx, []fs.Update{{Path: "capital", Value: true}})
	if err != nil {
		return fmt.Errorf("failed to update DC: %w", err)
	}
	fmt.Fprintln(w, "Updated the capital field of the DC document in the cities collection.")
	return nil
}

// UpdateDocArray adds a region to DC and then removes another.
func UpdateDocArray(ctx context.Context, w io.Writer, c *fs.Client) error {
	dc := c.Collection("cities").Doc("DC")
	if _, err := dc.Update(ctx, []fs.Update{{Path: "regions", Value: fs.ArrayUnion("greater_virginia")}}); err != nil {
		return fmt.Errorf("failed to update DC regions: %w", err)
	}
	if _, err := dc.Update(ctx, []fs.Update{{Path: "regions", Value: fs.ArrayRemove("east_coast")}}); err != nil {
		return fmt.Errorf("failed to update DC regions: %w", err)
	}
	fmt.Fprintln(w, "Updated the regions field of the DC document in the cities collection.")
	return nil
}

// UpdateDocIncrement adds 50 to DC's population on the server.
func UpdateDocIncrement(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("cities").Doc("DC").Update(ctx, []fs.Update{{Path: "population", Value: fs.Increment(50)}})
	if err != nil {
		return fmt.Errorf("failed to update DC population: %w", err)
	}
	fmt.Fprintln(w, "Updated the population of the DC document in the cities collection.")
	return nil
}

// UpdateNestedFields writes a user with a nested map and then updates one
// nested field by path.
func UpdateNestedFields(ctx context.Context, w io.Writer, c *fs.Client) error {
	frank := c.Collection("users").Doc("frank")
	_, err := frank.Set(ctx, map[string]interface{}{
		"name": "Frank",
		"favorites": map[string]interface{}{
			"food":    "Pizza",
			"color":   "Blue",
			"subject": "Recess",
		},
		"age": 12,
	})
	if err != nil {
		return fmt.Errorf("failed to set frank: %w", err)
	}

	_, err = frank.Update(ctx, []fs.Update{
		{Path: "age", Value: 13},
		{Path: "favorites.color", Value: "Red"},
	})
	if err != nil {
		return fmt.Errorf("failed to update frank: %w", err)
	}
	fmt.Fprintln(w, "Updated the age and favorite color fields of the frank document in the users collection.")
	return nil
}

// UpdateServerTimestamp stamps objects/some-id with the commit time.
func UpdateServerTimestamp(ctx context.Context, w io.Writer, c *fs.Client) error {
	ref := c.Collection("objects").Doc("some-id")
	if _, err := ref.Set(ctx, map[string]interface{}{"timestamp": "pending"}); err != nil {
		return fmt.Errorf("failed to set some-id: %w", err)
	}
	if _, err := ref.Update(ctx, []fs.Update{{Path: "timestamp", Value: fs.ServerTimestamp}}); err != nil {
		return fmt.Errorf("failed to update some-id: %w", err)
	}
	fmt.Fprintln(w, "Updated the timestamp field of the some-id document in the objects collection.")
	return nil
}

// SetMerge merges a field into BJ without touching the rest.
func SetMerge(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("cities").Doc("BJ").Set(ctx, map[string]interface{}{"capital": true}, fs.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to merge BJ: %w", err)
	}
	fmt.Fprintln(w, "Set document data by merging it into the existing BJ document in the cities collection.")
	return nil
}

// DeleteDoc deletes cities/DC.
func DeleteDoc(ctx context.Context, w io.Writer, c *fs.Client) error {
	if _, err := c.Collection("cities").Doc("DC").Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete DC: %w", err)
	}
	fmt.Fprintln(w, "Deleted the DC document in the cities collection.")
	return nil
}

// DeleteField removes the capital field from BJ.
func DeleteField(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("cities").Doc("BJ").Update(ctx, []fs.Update{{Path: "capital", Value: fs.Delete}})
	if err != nil {
		return fmt.Errorf("failed to delete BJ capital: %w", err)
	}
	fmt.Fprintln(w, "Deleted the capital field from the BJ document in the cities collection.")
	return nil
}

// DeleteCollection deletes a collection batchSize documents at a time
// through a bulk writer.
func DeleteCollection(ctx context.Context, w io.Writer, c *fs.Client, collection string, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	col := c.Collection(collection)
	if col == nil {
		return fmt.Errorf("invalid collection path %s", collection)
	}

	for {
		docs, err := col.Limit(batchSize).Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", collection, err)
		}
		if len(docs) == 0 {
			return nil
		}

		bw := c.BulkWriter(ctx)
		jobs := make([]*fs.BulkWriterJob, 0, len(docs))
		for _, doc := range docs {
			fmt.Fprintf(w, "Deleting document %s\n", doc.Ref.ID)
			job, err := bw.Delete(doc.Ref)
			if err != nil {
				return fmt.Errorf("failed to queue delete of %s: %w", doc.Ref.ID, err)
			}
			jobs = append(jobs, job)
		}
		bw.End()

		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
		}
	}
}

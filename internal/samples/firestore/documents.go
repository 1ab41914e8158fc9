// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// AddData writes the two sample users.
func AddData(ctx context.Context, w io.Writer, c *fs.Client) error {
	users := []struct {
		id   string
		name string
		data map[string]interface{}
	}{
		{"alovelace", "lovelace", map[string]interface{}{"first": "Ada", "last": "Lovelace", "born": 1815}},
		{"aturing", "aturing", map[string]interface{}{"first": "Alan", "middle": "Mathison", "last": "Turing", "born": 1912}},
	}
	for _, u := range users {
		if _, err := c.Collection("users").Doc(u.id).Set(ctx, u.data); err != nil {
			return fmt.Errorf("failed to add user %s: %w", u.id, err)
		}
		fmt.Fprintf(w, "Added data to the %s document in the users collection.\n", u.name)
	}
	return nil
}

// RetrieveAllDocuments prints every user.
func RetrieveAllDocuments(ctx context.Context, w io.Writer, c *fs.Client) error {
	err := each(c.Collection("users").Documents(ctx), func(doc *fs.DocumentSnapshot) error {
		data := doc.Data()
		fmt.Fprintf(w, "User: %s\n", doc.Ref.ID)
		fmt.Fprintf(w, "First: %v\n", data["first"])
		if middle, ok := data["middle"]; ok {
			fmt.Fprintf(w, "Middle: %v\n", middle)
		}
		fmt.Fprintf(w, "Last: %v\n", data["last"])
		fmt.Fprintf(w, "Born: %v\n", data["born"])
		fmt.Fprintln(w)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to retrieve users: %w", err)
	}
	fmt.Fprintln(w, "Retrieved and printed out all documents from the users collection.")
	return nil
}

// SetDocument overwrites cities/LA.
func SetDocument(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("cities").Doc("LA").Set(ctx, map[string]interface{}{
		"name":    "Los Angeles",
		"state":   "CA",
		"country": "USA",
	})
	if err != nil {
		return fmt.Errorf("failed to set LA: %w", err)
	}
	fmt.Fprintln(w, "Set data for the LA document in the cities collection.")
	return nil
}

// AddDocDataTypes writes one document holding every supported value type.
func AddDocDataTypes(ctx context.Context, w io.Writer, c *fs.Client) error {
	_, err := c.Collection("data").Doc("one").Set(ctx, map[string]interface{}{
		"stringExample":  "Hello world!",
		"booleanExample": true,
		"numberExample":  3.14159265,
		"dateExample":    time.Now(),
		"arrayExample":   []interface{}{5, true, "hello"},
		"nullExample":    nil,
		"objectExample": map[string]interface{}{
			"a": 5,
			"b": true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set data/one: %w", err)
	}
	fmt.Fprintln(w, "Set multiple data-type data for the one document in the data collection.")
	return nil
}

// AddDocWithAutoID lets the server pick the new city's id.
func AddDocWithAutoID(ctx context.Context, w io.Writer, c *fs.Client) (string, error) {
	ref, _, err := c.Collection("cities").Add(ctx, map[string]interface{}{
		"name":    "Tokyo",
		"country": "Japan",
	})
	if err != nil {
		return "", fmt.Errorf("failed to add city: %w", err)
	}
	fmt.Fprintf(w, "Added document with ID: %s\n", ref.ID)
	return ref.ID, nil
}

// AddDocAfterAutoID reserves a reference first and writes it later.
func AddDocAfterAutoID(ctx context.Context, w io.Writer, c *fs.Client) (string, error) {
	ref := c.Collection("cities").NewDoc()
	if _, err := ref.Set(ctx, map[string]interface{}{"name": "Moscow", "country": "Russia"}); err != nil {
		return "", fmt.Errorf("failed to add city: %w", err)
	}
	fmt.Fprintf(w, "Added document with ID: %s\n", ref.ID)
	return ref.ID, nil
}

// CreateCities seeds the cities collection.
func CreateCities(ctx context.Context, w io.Writer, c *fs.Client) error {
	for id, city := range cities {
		if _, err := c.Collection("cities").Doc(id).Set(ctx, city); err != nil {
			return fmt.Errorf("failed to create city %s: %w", id, err)
		}
	}
	fmt.Fprintln(w, "Added example cities data to the cities collection.")
	return nil
}

// GetDocument prints cities/SF.
func GetDocument(ctx context.Context, w io.Writer, c *fs.Client) error {
	doc, err := c.Collection("cities").Doc("SF").Get(ctx)
	if gcp.IsNotFound(err) {
		fmt.Fprintln(w, "Document does not exist!")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get SF: %w", err)
	}
	fmt.Fprintln(w, "Document data:")
	printData(w, doc.Data())
	return nil
}

// GetMultipleDocs prints every capital.
func GetMultipleDocs(ctx context.Context, w io.Writer, c *fs.Client) error {
	q := c.Collection("cities").Where("capital", "==", true)
	err := each(q.Documents(ctx), func(doc *fs.DocumentSnapshot) error {
		fmt.Fprintf(w, "Document data for document %s:\n", doc.Ref.ID)
		printData(w, doc.Data())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get capitals: %w", err)
	}
	return nil
}

// GetAllDocs prints every city.
func GetAllDocs(ctx context.Context, w io.Writer, c *fs.Client) error {
	err := each(c.Collection("cities").Documents(ctx), func(doc *fs.DocumentSnapshot) error {
		fmt.Fprintf(w, "Document data for document %s:\n", doc.Ref.ID)
		printData(w, doc.Data())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get cities: %w", err)
	}
	return nil
}

// ListSubcollections prints the collections under cities/SF.
func ListSubcollections(ctx context.Context, w io.Writer, c *fs.Client) error {
	it := c.Collection("cities").Doc("SF").Collections(ctx)
	for {
		col, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list subcollections: %w", err)
		}
		fmt.Fprintf(w, "Found subcollection with id: %s\n", col.ID)
	}
}

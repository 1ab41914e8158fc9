// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package datastore holds the Cloud Datastore samples: the task list
// tutorial, entity CRUD, batch operations, queries, transactions and
// metadata queries.
package datastore

import (
	"context"
	"fmt"
	"io"
	"time"

	ds "cloud.google.com/go/datastore"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewClient returns a Datastore client for the factory's project.
func NewClient(ctx context.Context, f *gcp.Factory) (*ds.Client, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	c, err := ds.NewClient(ctx, project, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return c, nil
}

// Task is the entity every sample reads and writes.
type Task struct {
	Category        string    `datastore:"category,omitempty"`
	Done            bool      `datastore:"done"`
	Priority        int       `datastore:"priority,omitempty"`
	Description     string    `datastore:"description,noindex"`
	Created         time.Time `datastore:"created,omitempty"`
	PercentComplete float64   `datastore:"percent_complete,omitempty"`
	Tags            []string  `datastore:"tags,omitempty"`
	Collaborators   []string  `datastore:"collaborators,omitempty"`
}

func sampleTask() *Task {
	return &Task{
		Category:    "Personal",
		Done:        false,
		Priority:    4,
		Description: "Learn Cloud Datastore",
	}
}

// sampleTaskKey is the named key the concept samples share.
func sampleTaskKey() *ds.Key {
	return ds.NameKey("Task", "sampleTask", nil)
}

func printTask(w io.Writer, k *ds.Key, t *Task) {
	fmt.Fprintf(w, "Task %s\n", keyString(k))
	fmt.Fprintf(w, "\tcategory: %s\n", t.Category)
	fmt.Fprintf(w, "\tdone: %t\n", t.Done)
	fmt.Fprintf(w, "\tpriority: %d\n", t.Priority)
	fmt.Fprintf(w, "\tdescription: %s\n", t.Description)
	if !t.Created.IsZero() {
		fmt.Fprintf(w, "\tcreated: %s\n", t.Created.Format(time.RFC3339))
	}
	if t.PercentComplete != 0 {
		fmt.Fprintf(w, "\tpercent_complete: %g\n", t.PercentComplete)
	}
}

// keyString renders a key path as Kind:name/Kind:id.
func keyString(k *ds.Key) string {
	if k == nil {
		return ""
	}
	id := k.Name
	if id == "" {
		id = fmt.Sprint(k.ID)
	}
	s := k.Kind + ":" + id
	if k.Parent != nil {
		s = keyString(k.Parent) + "/" + s
	}
	return s
}

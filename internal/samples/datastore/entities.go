// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	ds "cloud.google.com/go/datastore"
)

// Upsert writes the sample task under its named key.
func Upsert(ctx context.Context, w io.Writer, c *ds.Client) error {
	key := sampleTaskKey()
	task := sampleTask()
	if _, err := c.Put(ctx, key, task); err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	printTask(w, key, task)
	return nil
}

// Insert writes the sample task under a new id. Insert fails if the entity
// already exists, so it runs in a transaction with an incomplete key.
func Insert(ctx context.Context, w io.Writer, c *ds.Client) error {
	task := sampleTask()
	var pending *ds.PendingKey
	commit, err := c.RunInTransaction(ctx, func(tx *ds.Transaction) error {
		var err error
		pending, err = tx.Put(ds.IncompleteKey("Task", nil), task)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	printTask(w, commit.Key(pending), task)
	return nil
}

// Lookup reads the sample task.
func Lookup(ctx context.Context, w io.Writer, c *ds.Client) error {
	key := sampleTaskKey()
	var task Task
	err := c.Get(ctx, key, &task)
	if errors.Is(err, ds.ErrNoSuchEntity) {
		fmt.Fprintf(w, "Task %s not found.\n", keyString(key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lookup task: %w", err)
	}
	printTask(w, key, &task)
	return nil
}

// Update raises the sample task's priority to 5 in a transaction.
func Update(ctx context.Context, w io.Writer, c *ds.Client) error {
	key := sampleTaskKey()
	var task Task
	_, err := c.RunInTransaction(ctx, func(tx *ds.Transaction) error {
		if err := tx.Get(key, &task); err != nil {
			return err
		}
		task.Priority = 5
		_, err := tx.Put(key, &task)
		return err
	})
	if errors.Is(err, ds.ErrNoSuchEntity) {
		fmt.Fprintf(w, "Task %s not found.\n", keyString(key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	printTask(w, key, &task)
	return nil
}

// Delete removes the sample task.
func Delete(ctx context.Context, w io.Writer, c *ds.Client) error {
	key := sampleTaskKey()
	if err := c.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	fmt.Fprintf(w, "Task %s deleted.\n", keyString(key))
	return nil
}

func batchKeys() []*ds.Key {
	return []*ds.Key{
		ds.NameKey("Task", "sampleTask1", nil),
		ds.NameKey("Task", "sampleTask2", nil),
	}
}

// BatchUpsert writes two tasks in one call.
func BatchUpsert(ctx context.Context, w io.Writer, c *ds.Client) error {
	tasks := []*Task{
		{Category: "Personal", Priority: 4, Description: "Learn Cloud Datastore"},
		{Category: "Work", Priority: 8, Description: "Integrate Cloud Datastore"},
	}
	keys := batchKeys()
	if _, err := c.PutMulti(ctx, keys, tasks); err != nil {
		return fmt.Errorf("failed to upsert tasks: %w", err)
	}
	fmt.Fprintf(w, "Upserted %d tasks.\n", len(keys))
	return nil
}

// BatchLookup reads both batch tasks. Missing entities are reported rather
// than failing the call.
func BatchLookup(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys := batchKeys()
	tasks := make([]*Task, len(keys))
	for i := range tasks {
		tasks[i] = &Task{}
	}
	err := c.GetMulti(ctx, keys, tasks)

	var multi ds.MultiError
	if err != nil && !errors.As(err, &multi) {
		return fmt.Errorf("failed to lookup tasks: %w", err)
	}
	for i, k := range keys {
		if multi != nil && multi[i] != nil {
			if errors.Is(multi[i], ds.ErrNoSuchEntity) {
				fmt.Fprintf(w, "Task %s not found.\n", keyString(k))
				continue
			}
			return fmt.Errorf("failed to lookup %s: %w", keyString(k), multi[i])
		}
		printTask(w, k, tasks[i])
	}
	return nil
}

// BatchDelete removes both batch tasks.
func BatchDelete(ctx context.Context, w io.Writer, c *ds.Client) error {
	keys := batchKeys()
	if err := c.DeleteMulti(ctx, keys); err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	fmt.Fprintf(w, "Deleted %d tasks.\n", len(keys))
	return nil
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	ds "cloud.google.com/go/datastore"
)

// TaskRow is a row of list-tasks.
type TaskRow struct {
	ID          int64     `jsonapi:"primary,tasks"`
	Description string    `jsonapi:"attr,description"`
	Done        bool      `jsonapi:"attr,done"`
	Created     time.Time `jsonapi:"attr,created,iso8601"`
}

// AddTask stores a new task and prints its allocated id.
func AddTask(ctx context.Context, w io.Writer, c *ds.Client, description string) (*ds.Key, error) {
	task := &Task{
		Description: description,
		Created:     time.Now().UTC(),
	}
	key, err := c.Put(ctx, ds.IncompleteKey("Task", nil), task)
	if err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	fmt.Fprintf(w, "Task %d created.\n", key.ID)
	return key, nil
}

// ListTasks returns every task ordered by creation time.
func ListTasks(ctx context.Context, c *ds.Client) ([]*TaskRow, error) {
	var tasks []*Task
	keys, err := c.GetAll(ctx, ds.NewQuery("Task").Order("created"), &tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	rows := make([]*TaskRow, 0, len(tasks))
	for i, t := range tasks {
		rows = append(rows, &TaskRow{
			ID:          keys[i].ID,
			Description: t.Description,
			Done:        t.Done,
			Created:     t.Created,
		})
	}
	return rows, nil
}

// MarkDone flags a task as done inside a transaction.
func MarkDone(ctx context.Context, w io.Writer, c *ds.Client, id int64) error {
	key := ds.IDKey("Task", id, nil)
	_, err := c.RunInTransaction(ctx, func(tx *ds.Transaction) error {
		var task Task
		if err := tx.Get(key, &task); err != nil {
			return err
		}
		task.Done = true
		_, err := tx.Put(key, &task)
		return err
	})
	if errors.Is(err, ds.ErrNoSuchEntity) {
		fmt.Fprintf(w, "Task %d not found.\n", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark task %d done: %w", id, err)
	}
	fmt.Fprintf(w, "Task %d marked as done.\n", id)
	return nil
}

// DeleteTask removes a task.
func DeleteTask(ctx context.Context, w io.Writer, c *ds.Client, id int64) error {
	if err := c.Delete(ctx, ds.IDKey("Task", id, nil)); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	fmt.Fprintf(w, "Task %d deleted.\n", id)
	return nil
}

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

// Account is the entity transfer-funds moves money between.
type Account struct {
	Balance int `datastore:"balance"`
}

// ErrInsufficientFunds aborts a transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// TransferFunds moves amount from one Account to another atomically.
func TransferFunds(ctx context.Context, w io.Writer, c *ds.Client, from, to string, amount int) error {
	fromKey := ds.NameKey("Account", from, nil)
	toKey := ds.NameKey("Account", to, nil)

	_, err := c.RunInTransaction(ctx, func(tx *ds.Transaction) error {
		keys := []*ds.Key{fromKey, toKey}
		accts := make([]Account, 2)
		if err := tx.GetMulti(keys, accts); err != nil {
			return err
		}
		if accts[0].Balance < amount {
			return ErrInsufficientFunds
		}
		accts[0].Balance -= amount
		accts[1].Balance += amount
		_, err := tx.PutMulti(keys, accts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to transfer %d from %s to %s: %w", amount, from, to, err)
	}
	fmt.Fprintf(w, "Transferred %d from %s to %s.\n", amount, from, to)
	return nil
}

// GetOrCreate reads the sample task, creating it in the same transaction
// when it does not exist.
func GetOrCreate(ctx context.Context, w io.Writer, c *ds.Client) error {
	key := sampleTaskKey()
	var task Task
	created := false
	_, err := c.RunInTransaction(ctx, func(tx *ds.Transaction) error {
		err := tx.Get(key, &task)
		if !errors.Is(err, ds.ErrNoSuchEntity) {
			return err
		}
		task = *sampleTask()
		created = true
		_, err = tx.Put(key, &task)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get or create task: %w", err)
	}
	if created {
		fmt.Fprintln(w, "Created task.")
	}
	printTask(w, key, &task)
	return nil
}

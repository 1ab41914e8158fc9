// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	fs "cloud.google.com/go/firestore"
)

// CounterCollection holds one document per shard of the distributed
// counter.
const CounterCollection = "samples/gcpctl/distributedCounters"

// Shard is one slice of the distributed counter.
type Shard struct {
	Count int64 `firestore:"Cnt"`
}

// CounterInit creates numShards empty shards.
func CounterInit(ctx context.Context, w io.Writer, c *fs.Client, numShards int) error {
	if numShards < 1 {
		return fmt.Errorf("number of shards must be at least 1, got %d", numShards)
	}
	col := c.Collection(CounterCollection)
	for i := 0; i < numShards; i++ {
		if _, err := col.Doc(strconv.Itoa(i)).Set(ctx, Shard{}); err != nil {
			return fmt.Errorf("failed to create shard %d: %w", i, err)
		}
	}
	fmt.Fprintf(w, "Created distributed counter with %d shards.\n", numShards)
	return nil
}

// CounterIncrement adds one to a randomly picked shard.
func CounterIncrement(ctx context.Context, w io.Writer, c *fs.Client) error {
	shards, err := c.Collection(CounterCollection).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to read shards: %w", err)
	}
	if len(shards) == 0 {
		return fmt.Errorf("counter has no shards, run counter-init first")
	}

	shard := shards[rand.IntN(len(shards))].Ref
	if _, err := shard.Update(ctx, []fs.Update{{Path: "Cnt", Value: fs.Increment(1)}}); err != nil {
		return fmt.Errorf("failed to increment shard %s: %w", shard.ID, err)
	}
	fmt.Fprintf(w, "Incremented shard %s.\n", shard.ID)
	return nil
}

// CounterGet sums every shard.
func CounterGet(ctx context.Context, w io.Writer, c *fs.Client) (int64, error) {
	var total int64
	err := each(c.Collection(CounterCollection).Documents(ctx), func(doc *fs.DocumentSnapshot) error {
		var s Shard
		if err := doc.DataTo(&s); err != nil {
			return err
		}
		total += s.Count
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read shards: %w", err)
	}
	fmt.Fprintln(w, total)
	return total, nil
}

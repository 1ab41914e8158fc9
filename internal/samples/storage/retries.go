// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// RetryBackoff and RetryAttempts configure configure-retries.
var RetryBackoff = gax.Backoff{
	Initial:    2 * time.Second,
	Max:        60 * time.Second,
	Multiplier: 3,
}

const RetryAttempts = 10

// retryable retries everything the SDK considers transient and, as a
// custom rule, 404s.
func retryable(err error) bool {
	return gcs.ShouldRetry(err) || gcp.IsNotFound(err)
}

// ConfigureRetries lists the bucket's objects through a handle that always
// retries, up to RetryAttempts times with RetryBackoff.
func ConfigureRetries(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	b := c.Bucket(bucket).Retryer(
		gcs.WithBackoff(RetryBackoff),
		gcs.WithPolicy(gcs.RetryAlways),
		gcs.WithMaxAttempts(RetryAttempts),
		gcs.WithErrorFunc(retryable),
	)

	it := b.Objects(ctx, nil)
	for {
		o, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects in %s: %w", bucket, err)
		}
		fmt.Fprintf(w, "Object: %s\n", o.Name)
	}
}

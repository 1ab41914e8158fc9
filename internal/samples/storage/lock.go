// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

// SetRetentionPolicy keeps objects of the bucket for period.
func SetRetentionPolicy(ctx context.Context, w io.Writer, c *gcs.Client, bucket string, period time.Duration) error {
	u := gcs.BucketAttrsToUpdate{RetentionPolicy: &gcs.RetentionPolicy{RetentionPeriod: period}}
	return updateBucket(ctx, w, c, bucket, u,
		fmt.Sprintf("Bucket %s retention period set to %d seconds", bucket, int64(period.Seconds())))
}

// RemoveRetentionPolicy drops an unlocked retention policy.
func RemoveRetentionPolicy(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	if a.RetentionPolicy != nil && a.RetentionPolicy.IsLocked {
		fmt.Fprintln(w, "Unable to remove retention period as retention policy is locked.")
		return nil
	}
	u := gcs.BucketAttrsToUpdate{RetentionPolicy: &gcs.RetentionPolicy{}}
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Removed bucket %s retention policy", bucket))
}

// LockRetentionPolicy makes the retention policy permanent. The lock is
// conditional on the metageneration read just before.
func LockRetentionPolicy(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	b := c.Bucket(bucket)
	a, err := b.Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	err = b.If(gcs.BucketConditions{MetagenerationMatch: a.MetaGeneration}).LockRetentionPolicy(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock retention policy of %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Bucket %s retention policy locked\n", bucket)
	return nil
}

// GetRetentionPolicy prints the retention period, effective time and lock
// state.
func GetRetentionPolicy(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Retention Policy for %s\n", bucket)
	p := a.RetentionPolicy
	if p == nil {
		fmt.Fprintln(w, "No retention policy")
		return nil
	}
	fmt.Fprintf(w, "Retention Period: %d\n", int64(p.RetentionPeriod.Seconds()))
	fmt.Fprintf(w, "Effective Time: %s\n", p.EffectiveTime.Format(timeFormat))
	if p.IsLocked {
		fmt.Fprintln(w, "Retention Policy is locked")
	}
	return nil
}

func updateObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string, u gcs.ObjectAttrsToUpdate, done string) error {
	_, err := c.Bucket(bucket).Object(object).Update(ctx, u)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintln(w, done)
	return nil
}

// SetTemporaryHold puts a temporary hold on the object.
func SetTemporaryHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	return updateObject(ctx, w, c, bucket, object, gcs.ObjectAttrsToUpdate{TemporaryHold: true},
		fmt.Sprintf("Temporary hold was set for %s", object))
}

// ReleaseTemporaryHold lifts the temporary hold.
func ReleaseTemporaryHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	return updateObject(ctx, w, c, bucket, object, gcs.ObjectAttrsToUpdate{TemporaryHold: false},
		fmt.Sprintf("Temporary hold was released for %s", object))
}

// SetEventBasedHold puts an event-based hold on the object.
func SetEventBasedHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	return updateObject(ctx, w, c, bucket, object, gcs.ObjectAttrsToUpdate{EventBasedHold: true},
		fmt.Sprintf("Event-based hold was set for %s", object))
}

// ReleaseEventBasedHold lifts the event-based hold.
func ReleaseEventBasedHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	return updateObject(ctx, w, c, bucket, object, gcs.ObjectAttrsToUpdate{EventBasedHold: false},
		fmt.Sprintf("Event-based hold was released for %s", object))
}

// EnableDefaultEventBasedHold holds every object created in the bucket.
func EnableDefaultEventBasedHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{DefaultEventBasedHold: true},
		fmt.Sprintf("Default event-based hold was enabled for %s", bucket))
}

// DisableDefaultEventBasedHold stops holding new objects.
func DisableDefaultEventBasedHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{DefaultEventBasedHold: false},
		fmt.Sprintf("Default event-based hold was disabled for %s", bucket))
}

// GetDefaultEventBasedHold prints whether new objects are held.
func GetDefaultEventBasedHold(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	state := "is not enabled"
	if a.DefaultEventBasedHold {
		state = "is enabled"
	}
	fmt.Fprintf(w, "Default event-based hold %s for %s\n", state, bucket)
	return nil
}

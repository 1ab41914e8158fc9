// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// BucketRow is a row of list-buckets.
type BucketRow struct {
	ID            string `jsonapi:"primary,buckets"`
	Location      string `jsonapi:"attr,location"`
	StorageClass  string `jsonapi:"attr,storage-class"`
	RequesterPays bool   `jsonapi:"attr,requester-pays"`
	Created       string `jsonapi:"attr,created"`
}

// ListBuckets returns the project's buckets.
func ListBuckets(ctx context.Context, c *gcs.Client, project string) ([]*BucketRow, error) {
	var rows []*BucketRow
	it := c.Buckets(ctx, project)
	for {
		b, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list buckets: %w", err)
		}
		rows = append(rows, &BucketRow{
			ID:            b.Name,
			Location:      b.Location,
			StorageClass:  b.StorageClass,
			RequesterPays: b.RequesterPays,
			Created:       b.Created.Format(timeFormat),
		})
	}
	return rows, nil
}

// CreateBucket creates a bucket with the default class and location.
func CreateBucket(ctx context.Context, w io.Writer, c *gcs.Client, project, bucket string) error {
	return createBucket(ctx, w, c, project, bucket, nil, fmt.Sprintf("Bucket %s created.", bucket))
}

// CreateBucketClassLocation creates a bucket in location with storageClass.
func CreateBucketClassLocation(ctx context.Context, w io.Writer, c *gcs.Client, project, bucket, storageClass, location string) error {
	attrs := &gcs.BucketAttrs{StorageClass: storageClass, Location: location}
	return createBucket(ctx, w, c, project, bucket, attrs,
		fmt.Sprintf("Created bucket %s in %s with storage class %s", bucket, location, storageClass))
}

// CreateBucketTurboReplication creates a dual-region bucket with the
// ASYNC_TURBO recovery point objective.
func CreateBucketTurboReplication(ctx context.Context, w io.Writer, c *gcs.Client, project, bucket, location string) error {
	attrs := &gcs.BucketAttrs{Location: location, RPO: gcs.RPOAsyncTurbo}
	return createBucket(ctx, w, c, project, bucket, attrs,
		fmt.Sprintf("Bucket with Turbo Replication set to 'ASYNC_TURBO' created: %s", bucket))
}

func createBucket(ctx context.Context, w io.Writer, c *gcs.Client, project, bucket string, attrs *gcs.BucketAttrs, done string) error {
	err := c.Bucket(bucket).Create(ctx, project, attrs)
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Bucket %s already exists.\n", bucket)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	fmt.Fprintln(w, done)
	return nil
}

// GetBucketMetadata prints the bucket's attributes.
func GetBucketMetadata(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}

	fmt.Fprintln(w, "Bucket Metadata:")
	fmt.Fprintf(w, "  name: %s\n", a.Name)
	fmt.Fprintf(w, "  location: %s\n", a.Location)
	fmt.Fprintf(w, "  locationType: %s\n", a.LocationType)
	fmt.Fprintf(w, "  storageClass: %s\n", a.StorageClass)
	fmt.Fprintf(w, "  timeCreated: %s\n", a.Created.Format(timeFormat))
	fmt.Fprintf(w, "  metageneration: %d\n", a.MetaGeneration)
	fmt.Fprintf(w, "  versioningEnabled: %t\n", a.VersioningEnabled)
	fmt.Fprintf(w, "  requesterPays: %t\n", a.RequesterPays)
	fmt.Fprintf(w, "  defaultEventBasedHold: %t\n", a.DefaultEventBasedHold)
	fmt.Fprintf(w, "  uniformBucketLevelAccess: %t\n", a.UniformBucketLevelAccess.Enabled)
	fmt.Fprintf(w, "  rpo: %s\n", rpoName(a.RPO))
	if a.Encryption != nil && a.Encryption.DefaultKMSKeyName != "" {
		fmt.Fprintf(w, "  defaultKmsKeyName: %s\n", a.Encryption.DefaultKMSKeyName)
	}
	if a.RetentionPolicy != nil {
		fmt.Fprintf(w, "  retentionPeriod: %d\n", int64(a.RetentionPolicy.RetentionPeriod.Seconds()))
	}
	for _, k := range slices.Sorted(maps.Keys(a.Labels)) {
		fmt.Fprintf(w, "  label %s: %s\n", k, a.Labels[k])
	}
	return nil
}

// DeleteBucket deletes an empty bucket.
func DeleteBucket(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	err := c.Bucket(bucket).Delete(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Bucket deleted: %s\n", bucket)
	return nil
}

// updateBucket applies u and prints done.
func updateBucket(ctx context.Context, w io.Writer, c *gcs.Client, bucket string, u gcs.BucketAttrsToUpdate, done string) error {
	_, err := c.Bucket(bucket).Update(ctx, u)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update bucket %s: %w", bucket, err)
	}
	fmt.Fprintln(w, done)
	return nil
}

// GetBucketLabels prints the labels as key: value lines.
func GetBucketLabels(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	for _, k := range slices.Sorted(maps.Keys(a.Labels)) {
		fmt.Fprintf(w, "%s: %s\n", k, a.Labels[k])
	}
	return nil
}

// AddBucketLabel sets label to value, replacing any previous value.
func AddBucketLabel(ctx context.Context, w io.Writer, c *gcs.Client, bucket, label, value string) error {
	var u gcs.BucketAttrsToUpdate
	u.SetLabel(label, value)
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Added label %s (%s) to %s", label, value, bucket))
}

// RemoveBucketLabel deletes label.
func RemoveBucketLabel(ctx context.Context, w io.Writer, c *gcs.Client, bucket, label string) error {
	var u gcs.BucketAttrsToUpdate
	u.DeleteLabel(label)
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Removed label %s from %s", label, bucket))
}

// EnableRequesterPays bills requests to the requester.
func EnableRequesterPays(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{RequesterPays: true},
		fmt.Sprintf("Requester pays has been enabled for %s", bucket))
}

// DisableRequesterPays bills requests to the bucket's project again.
func DisableRequesterPays(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{RequesterPays: false},
		fmt.Sprintf("Requester pays has been disabled for %s", bucket))
}

// GetRequesterPaysStatus prints whether requester pays is on.
func GetRequesterPaysStatus(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Requester Pays is %s for %s\n", enabled(a.RequesterPays), bucket)
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// EnableUniformBucketLevelAccess turns off object ACLs for the bucket.
func EnableUniformBucketLevelAccess(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	u := gcs.BucketAttrsToUpdate{UniformBucketLevelAccess: &gcs.UniformBucketLevelAccess{Enabled: true}}
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Uniform bucket-level access was enabled for %s", bucket))
}

// DisableUniformBucketLevelAccess turns object ACLs back on.
func DisableUniformBucketLevelAccess(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	u := gcs.BucketAttrsToUpdate{UniformBucketLevelAccess: &gcs.UniformBucketLevelAccess{Enabled: false}}
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Uniform bucket-level access was disabled for %s", bucket))
}

// GetUniformBucketLevelAccess prints the setting and, when enabled, the time
// it locks.
func GetUniformBucketLevelAccess(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	ubla := a.UniformBucketLevelAccess
	fmt.Fprintf(w, "Uniform bucket-level access is %s for %s\n", enabled(ubla.Enabled), bucket)
	if ubla.Enabled {
		fmt.Fprintf(w, "Bucket will be locked on %s\n", ubla.LockedTime.Format(timeFormat))
	}
	return nil
}

func rpoName(r gcs.RPO) string {
	if r == gcs.RPOAsyncTurbo {
		return "ASYNC_TURBO"
	}
	return "DEFAULT"
}

// SetRPOAsyncTurbo turns on turbo replication.
func SetRPOAsyncTurbo(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{RPO: gcs.RPOAsyncTurbo},
		fmt.Sprintf("Turbo Replication has been set to ASYNC_TURBO for %s.", bucket))
}

// SetRPODefault turns off turbo replication.
func SetRPODefault(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	return updateBucket(ctx, w, c, bucket, gcs.BucketAttrsToUpdate{RPO: gcs.RPODefault},
		fmt.Sprintf("Turbo Replication has been set to DEFAULT for %s.", bucket))
}

// GetRPO prints the recovery point objective.
func GetRPO(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	a, err := c.Bucket(bucket).Attrs(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get bucket %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "The bucket's RPO value is: %s.\n", rpoName(a.RPO))
	return nil
}

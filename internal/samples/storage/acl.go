// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// aclTarget names an ACL for messages. object is empty for bucket ACLs.
type aclTarget struct {
	handle *gcs.ACLHandle
	bucket string
	object string
	suffix string
}

func (t aclTarget) url() string {
	if t.object == "" {
		return "gs://" + t.bucket
	}
	return objectURL(t.bucket, t.object)
}

func bucketACL(c *gcs.Client, bucket string) aclTarget {
	return aclTarget{handle: c.Bucket(bucket).ACL(), bucket: bucket, suffix: "ACL"}
}

func defaultACL(c *gcs.Client, bucket string) aclTarget {
	return aclTarget{handle: c.Bucket(bucket).DefaultObjectACL(), bucket: bucket, suffix: "default ACL"}
}

func objectACL(c *gcs.Client, bucket, object string) aclTarget {
	return aclTarget{handle: c.Bucket(bucket).Object(object).ACL(), bucket: bucket, object: object, suffix: "ACL"}
}

// printACL prints entity: role lines. A non-empty entity limits the output
// to that entity.
func printACL(ctx context.Context, w io.Writer, t aclTarget, entity string) error {
	rules, err := t.handle.List(ctx)
	if notFound(w, err, t.bucket, t.object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list %s of %s: %w", t.suffix, t.url(), err)
	}
	for _, r := range rules {
		if entity != "" && string(r.Entity) != entity {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", r.Entity, r.Role)
	}
	return nil
}

func addRule(ctx context.Context, w io.Writer, t aclTarget, entity string, role gcs.ACLRole) error {
	err := t.handle.Set(ctx, gcs.ACLEntity(entity), role)
	if notFound(w, err, t.bucket, t.object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update %s of %s: %w", t.suffix, t.url(), err)
	}
	fmt.Fprintf(w, "Added %s (%s) to %s %s\n", entity, role, t.url(), t.suffix)
	return nil
}

func removeRule(ctx context.Context, w io.Writer, t aclTarget, entity string) error {
	err := t.handle.Delete(ctx, gcs.ACLEntity(entity))
	if notFound(w, err, t.bucket, t.object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update %s of %s: %w", t.suffix, t.url(), err)
	}
	fmt.Fprintf(w, "Deleted %s from %s %s\n", entity, t.url(), t.suffix)
	return nil
}

// PrintBucketACL prints the bucket ACL, or only entity's rule.
func PrintBucketACL(ctx context.Context, w io.Writer, c *gcs.Client, bucket, entity string) error {
	return printACL(ctx, w, bucketACL(c, bucket), entity)
}

// AddBucketOwner makes entity an owner of the bucket.
func AddBucketOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, entity string) error {
	return addRule(ctx, w, bucketACL(c, bucket), entity, gcs.RoleOwner)
}

// RemoveBucketOwner drops entity from the bucket ACL.
func RemoveBucketOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, entity string) error {
	return removeRule(ctx, w, bucketACL(c, bucket), entity)
}

// PrintObjectACL prints the object ACL, or only entity's rule.
func PrintObjectACL(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, entity string) error {
	return printACL(ctx, w, objectACL(c, bucket, object), entity)
}

// AddObjectOwner makes entity an owner of the object.
func AddObjectOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, entity string) error {
	return addRule(ctx, w, objectACL(c, bucket, object), entity, gcs.RoleOwner)
}

// RemoveObjectOwner drops entity from the object ACL.
func RemoveObjectOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, entity string) error {
	return removeRule(ctx, w, objectACL(c, bucket, object), entity)
}

// AddBucketDefaultOwner makes entity an owner of objects created later.
func AddBucketDefaultOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, entity string) error {
	return addRule(ctx, w, defaultACL(c, bucket), entity, gcs.RoleOwner)
}

// RemoveBucketDefaultOwner drops entity from the default object ACL.
func RemoveBucketDefaultOwner(ctx context.Context, w io.Writer, c *gcs.Client, bucket, entity string) error {
	return removeRule(ctx, w, defaultACL(c, bucket), entity)
}

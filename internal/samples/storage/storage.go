// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package storage holds the Cloud Storage samples: buckets, objects, ACLs,
// IAM, bucket lock, customer supplied and managed encryption, HMAC keys,
// signed URLs and retry configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"

	"github.com/staranto/gcpctl/internal/gcp"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// NewClient returns a JSON API client.
func NewClient(ctx context.Context, f *gcp.Factory) (*gcs.Client, error) {
	c, err := gcs.NewClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return c, nil
}

func objectURL(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// notFound prints the message for a missing bucket or object and reports
// whether err was one.
func notFound(w io.Writer, err error, bucket, object string) bool {
	switch {
	case errors.Is(err, gcs.ErrObjectNotExist):
		fmt.Fprintf(w, "Object %s not found.\n", objectURL(bucket, object))
		return true
	case errors.Is(err, gcs.ErrBucketNotExist), gcp.IsNotFound(err) && object == "":
		fmt.Fprintf(w, "Bucket %s not found.\n", bucket)
		return true
	case gcp.IsNotFound(err):
		fmt.Fprintf(w, "Object %s not found.\n", objectURL(bucket, object))
		return true
	}
	return false
}

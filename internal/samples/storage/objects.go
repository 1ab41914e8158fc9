// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/dustin/go-humanize"
	"google.golang.org/api/iterator"
)

// ObjectRow is a row of list-objects. With a delimiter, the common prefixes
// are rows too and have Prefix set.
type ObjectRow struct {
	ID          string `jsonapi:"primary,objects"`
	Bucket      string `jsonapi:"attr,bucket"`
	Size        int64  `jsonapi:"attr,size"`
	ContentType string `jsonapi:"attr,content-type"`
	Prefix      bool   `jsonapi:"attr,prefix"`
	Updated     string `jsonapi:"attr,updated"`
}

// ListObjects returns the objects of bucket under prefix. A non-empty
// delimiter groups deeper names into prefix rows.
func ListObjects(ctx context.Context, c *gcs.Client, bucket, prefix, delimiter string) ([]*ObjectRow, error) {
	var rows []*ObjectRow
	it := c.Bucket(bucket).Objects(ctx, &gcs.Query{Prefix: prefix, Delimiter: delimiter})
	for {
		o, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
		}
		if o.Prefix != "" {
			rows = append(rows, &ObjectRow{ID: o.Prefix, Bucket: bucket, Prefix: true})
			continue
		}
		rows = append(rows, &ObjectRow{
			ID:          o.Name,
			Bucket:      o.Bucket,
			Size:        o.Size,
			ContentType: o.ContentType,
			Updated:     o.Updated.Format(timeFormat),
		})
	}
	return rows, nil
}

// write streams r into object.
func write(ctx context.Context, o *gcs.ObjectHandle, r io.Reader, configure func(*gcs.Writer)) error {
	wc := o.NewWriter(ctx)
	if configure != nil {
		configure(wc)
	}
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

// read copies object into dst.
func read(ctx context.Context, o *gcs.ObjectHandle, dst io.Writer) error {
	rc, err := o.NewReader(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(dst, rc)
	return err
}

// UploadObject uploads the local file to bucket/object.
func UploadObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	err = write(ctx, c.Bucket(bucket).Object(object), f, nil)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", file, err)
	}
	fmt.Fprintf(w, "Uploaded %s to %s\n", filepath.Base(file), objectURL(bucket, object))
	return nil
}

// UploadObjectFromMemory uploads contents as bucket/object.
func UploadObjectFromMemory(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, contents string) error {
	err := write(ctx, c.Bucket(bucket).Object(object), strings.NewReader(contents), func(wc *gcs.Writer) {
		wc.ContentType = "text/plain"
	})
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", object, err)
	}
	fmt.Fprintf(w, "Uploaded %s to %s\n", object, objectURL(bucket, object))
	return nil
}

// DownloadObject writes bucket/object to the local file.
func DownloadObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, file string) error {
	return download(ctx, w, c.Bucket(bucket).Object(object), file,
		fmt.Sprintf("Downloaded %s to %s", objectURL(bucket, object), filepath.Base(file)))
}

func download(ctx context.Context, w io.Writer, o *gcs.ObjectHandle, file, done string) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file, err)
	}
	err = read(ctx, o, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(file)
	}
	if notFound(w, err, o.BucketName(), o.ObjectName()) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", objectURL(o.BucketName(), o.ObjectName()), err)
	}
	fmt.Fprintln(w, done)
	return nil
}

// DownloadObjectIntoMemory prints the contents of bucket/object.
func DownloadObjectIntoMemory(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	var buf strings.Builder
	err := read(ctx, c.Bucket(bucket).Object(object), &buf)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Downloaded %s from %s, with contents: %s\n", object, bucket, buf.String())
	return nil
}

// DeleteObject deletes bucket/object.
func DeleteObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	err := c.Bucket(bucket).Object(object).Delete(ctx)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Deleted %s\n", objectURL(bucket, object))
	return nil
}

func copyObject(ctx context.Context, c *gcs.Client, bucket, object, dstBucket, dstObject string) error {
	src := c.Bucket(bucket).Object(object)
	_, err := c.Bucket(dstBucket).Object(dstObject).CopierFrom(src).Run(ctx)
	return err
}

// CopyObject copies bucket/object to dstBucket/dstObject.
func CopyObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, dstBucket, dstObject string) error {
	err := copyObject(ctx, c, bucket, object, dstBucket, dstObject)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Copied %s to %s\n", objectURL(bucket, object), objectURL(dstBucket, dstObject))
	return nil
}

// MoveObject renames bucket/object to dstBucket/dstObject by copying it and
// deleting the source.
func MoveObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, dstBucket, dstObject string) error {
	err := copyObject(ctx, c, bucket, object, dstBucket, dstObject)
	if err == nil {
		err = c.Bucket(bucket).Object(object).Delete(ctx)
	}
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to move %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Moved %s to %s\n", objectURL(bucket, object), objectURL(dstBucket, dstObject))
	return nil
}

// ObjectMetadata prints the attributes of bucket/object.
func ObjectMetadata(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	a, err := c.Bucket(bucket).Object(object).Attrs(ctx)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", objectURL(bucket, object), err)
	}

	fmt.Fprintf(w, "Bucket: %s\n", a.Bucket)
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(a.Size)))
	fmt.Fprintf(w, "ContentType: %s\n", a.ContentType)
	fmt.Fprintf(w, "StorageClass: %s\n", a.StorageClass)
	fmt.Fprintf(w, "Generation: %d\n", a.Generation)
	fmt.Fprintf(w, "Metageneration: %d\n", a.Metageneration)
	fmt.Fprintf(w, "Updated: %s (%s)\n", a.Updated.Format(timeFormat), humanize.Time(a.Updated))
	fmt.Fprintf(w, "TemporaryHold: %t\n", a.TemporaryHold)
	fmt.Fprintf(w, "EventBasedHold: %t\n", a.EventBasedHold)
	if !a.RetentionExpirationTime.IsZero() {
		fmt.Fprintf(w, "RetentionExpirationTime: %s\n", a.RetentionExpirationTime.Format(timeFormat))
	}
	if a.KMSKeyName != "" {
		fmt.Fprintf(w, "KmsKeyName: %s\n", a.KMSKeyName)
	}
	for _, k := range slices.Sorted(maps.Keys(a.Metadata)) {
		fmt.Fprintf(w, "Metadata %s: %s\n", k, a.Metadata[k])
	}
	return nil
}

// SetObjectMetadata merges metadata into the object's custom metadata.
func SetObjectMetadata(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string, metadata map[string]string) error {
	_, err := c.Bucket(bucket).Object(object).Update(ctx, gcs.ObjectAttrsToUpdate{Metadata: metadata})
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Updated custom metadata for %s\n", objectURL(bucket, object))
	return nil
}

// MakePublic grants allUsers read access to bucket/object.
func MakePublic(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object string) error {
	err := c.Bucket(bucket).Object(object).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to make %s public: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "%s is now public\n", objectURL(bucket, object))
	return nil
}

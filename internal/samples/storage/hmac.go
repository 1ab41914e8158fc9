// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// HMACKeyRow is a row of list-hmac-keys.
type HMACKeyRow struct {
	ID             string `jsonapi:"primary,hmac-keys"`
	ServiceAccount string `jsonapi:"attr,service-account"`
	State          string `jsonapi:"attr,state"`
	Project        string `jsonapi:"attr,project"`
	Updated        string `jsonapi:"attr,updated"`
}

// ListHMACKeys returns the project's HMAC keys.
func ListHMACKeys(ctx context.Context, c *gcs.Client, project string) ([]*HMACKeyRow, error) {
	var rows []*HMACKeyRow
	it := c.ListHMACKeys(ctx, project)
	for {
		k, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list hmac keys: %w", err)
		}
		rows = append(rows, &HMACKeyRow{
			ID:             k.AccessID,
			ServiceAccount: k.ServiceAccountEmail,
			State:          string(k.State),
			Project:        k.ProjectID,
			Updated:        k.UpdatedTime.Format(timeFormat),
		})
	}
	return rows, nil
}

func printHMACKey(w io.Writer, k *gcs.HMACKey) {
	fmt.Fprintf(w, "Service Account Email: %s\n", k.ServiceAccountEmail)
	fmt.Fprintf(w, "Access ID: %s\n", k.AccessID)
	fmt.Fprintf(w, "Project ID: %s\n", k.ProjectID)
	fmt.Fprintf(w, "Active: %t\n", k.State == gcs.Active)
	fmt.Fprintf(w, "Created: %s\n", k.CreatedTime.Format(timeFormat))
	fmt.Fprintf(w, "Updated: %s\n", k.UpdatedTime.Format(timeFormat))
	fmt.Fprintf(w, "Etag: %s\n", k.Etag)
}

// CreateHMACKey creates a key for serviceAccount and prints its secret,
// which can not be read again.
func CreateHMACKey(ctx context.Context, w io.Writer, c *gcs.Client, project, serviceAccount string) error {
	k, err := c.CreateHMACKey(ctx, project, serviceAccount)
	if err != nil {
		return fmt.Errorf("failed to create hmac key: %w", err)
	}
	fmt.Fprintf(w, "The base64 encoded secret is: %s\n", k.Secret)
	fmt.Fprintln(w, "Do not miss that secret, there is no API to recover it.")
	fmt.Fprintln(w, "The HMAC key metadata is:")
	printHMACKey(w, k)
	return nil
}

func hmacNotFound(w io.Writer, err error, accessID string) bool {
	if !gcp.IsNotFound(err) {
		return false
	}
	fmt.Fprintf(w, "HMAC key %s not found.\n", accessID)
	return true
}

// GetHMACKey prints the metadata of one key.
func GetHMACKey(ctx context.Context, w io.Writer, c *gcs.Client, project, accessID string) error {
	k, err := c.HMACKeyHandle(project, accessID).Get(ctx)
	if hmacNotFound(w, err, accessID) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get hmac key %s: %w", accessID, err)
	}
	fmt.Fprintln(w, "HMAC key Metadata:")
	printHMACKey(w, k)
	return nil
}

func setHMACState(ctx context.Context, w io.Writer, c *gcs.Client, project, accessID string, state gcs.HMACState, done string) error {
	k, err := c.HMACKeyHandle(project, accessID).Update(ctx, gcs.HMACKeyAttrsToUpdate{State: state})
	if hmacNotFound(w, err, accessID) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update hmac key %s: %w", accessID, err)
	}
	fmt.Fprintln(w, "The HMAC key metadata is:")
	printHMACKey(w, k)
	fmt.Fprintln(w, done)
	return nil
}

// ActivateHMACKey sets the key's state to ACTIVE.
func ActivateHMACKey(ctx context.Context, w io.Writer, c *gcs.Client, project, accessID string) error {
	return setHMACState(ctx, w, c, project, accessID, gcs.Active, "The HMAC key is now active.")
}

// DeactivateHMACKey sets the key's state to INACTIVE. Only inactive keys can
// be deleted.
func DeactivateHMACKey(ctx context.Context, w io.Writer, c *gcs.Client, project, accessID string) error {
	return setHMACState(ctx, w, c, project, accessID, gcs.Inactive, "The HMAC key is now inactive.")
}

// DeleteHMACKey deletes an inactive key.
func DeleteHMACKey(ctx context.Context, w io.Writer, c *gcs.Client, project, accessID string) error {
	err := c.HMACKeyHandle(project, accessID).Delete(ctx)
	if hmacNotFound(w, err, accessID) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete hmac key %s: %w", accessID, err)
	}
	fmt.Fprintln(w, "The key is deleted, though it may still appear in the list of HMAC keys.")
	return nil
}

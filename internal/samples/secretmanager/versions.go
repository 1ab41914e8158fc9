// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package secretmanager

import (
	"context"
	"errors"
	"fmt"
	"io"

	sm "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// ErrDataCorrupted is returned when an accessed payload does not match its
// CRC32C checksum.
var ErrDataCorrupted = errors.New("data corruption detected")

// VersionRow is a row of list-secret-versions.
type VersionRow struct {
	ID      string `jsonapi:"primary,versions"`
	Name    string `jsonapi:"attr,name"`
	State   string `jsonapi:"attr,state"`
	Created string `jsonapi:"attr,created"`
}

// ListSecretVersions returns the versions of a secret, newest first.
func ListSecretVersions(ctx context.Context, c *sm.Client, loc Location, secretID string) ([]*VersionRow, error) {
	var rows []*VersionRow
	it := c.ListSecretVersions(ctx, &secretmanagerpb.ListSecretVersionsRequest{Parent: loc.secret(secretID)})
	for {
		v, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list versions of %s: %w", secretID, err)
		}
		rows = append(rows, &VersionRow{
			ID:      lastSegment(v.GetName()),
			Name:    v.GetName(),
			State:   v.GetState().String(),
			Created: v.GetCreateTime().AsTime().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return rows, nil
}

// AddSecretVersion adds data as a new version. The payload carries its
// CRC32C so the server can reject a corrupted upload.
func AddSecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string, data []byte) error {
	crc := checksum(data)
	v, err := c.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: loc.secret(secretID),
		Payload: &secretmanagerpb.SecretPayload{
			Data:       data,
			DataCrc32C: &crc,
		},
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add version to %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Added secret version: %s\n", v.GetName())
	return nil
}

// AccessSecretVersion prints the payload of a version, latest by default,
// after checking it against its CRC32C.
func AccessSecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, version string) error {
	r, err := c.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: loc.version(secretID, version),
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to access %s: %w", secretID, err)
	}

	p := r.GetPayload()
	if p.DataCrc32C != nil && checksum(p.GetData()) != p.GetDataCrc32C() {
		return fmt.Errorf("failed to access %s: %w", r.GetName(), ErrDataCorrupted)
	}
	fmt.Fprintf(w, "Plaintext: %s\n", p.GetData())
	return nil
}

// GetSecretVersion prints a version's metadata.
func GetSecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, version string) error {
	v, err := c.GetSecretVersion(ctx, &secretmanagerpb.GetSecretVersionRequest{
		Name: loc.version(secretID, version),
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get version of %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Found secret version %s with state %s\n", v.GetName(), v.GetState())
	return nil
}

// versionStateChange runs one of the enable, disable and destroy RPCs.
type versionStateChange func(context.Context, string) (*secretmanagerpb.SecretVersion, error)

func changeVersion(ctx context.Context, w io.Writer, secretID, name, verb string, fn versionStateChange) error {
	v, err := fn(ctx, name)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to change %s: %w", name, err)
	}
	fmt.Fprintf(w, "%s secret version: %s\n", verb, v.GetName())
	return nil
}

// DisableSecretVersion disables a version. Disabled versions can not be
// accessed but can be enabled again.
func DisableSecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, version string) error {
	return changeVersion(ctx, w, secretID, loc.version(secretID, version), "Disabled",
		func(ctx context.Context, name string) (*secretmanagerpb.SecretVersion, error) {
			return c.DisableSecretVersion(ctx, &secretmanagerpb.DisableSecretVersionRequest{Name: name})
		})
}

// EnableSecretVersion enables a disabled version.
func EnableSecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, version string) error {
	return changeVersion(ctx, w, secretID, loc.version(secretID, version), "Enabled",
		func(ctx context.Context, name string) (*secretmanagerpb.SecretVersion, error) {
			return c.EnableSecretVersion(ctx, &secretmanagerpb.EnableSecretVersionRequest{Name: name})
		})
}

// DestroySecretVersion irrevocably destroys a version's payload.
func DestroySecretVersion(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, version string) error {
	return changeVersion(ctx, w, secretID, loc.version(secretID, version), "Destroyed",
		func(ctx context.Context, name string) (*secretmanagerpb.SecretVersion, error) {
			return c.DestroySecretVersion(ctx, &secretmanagerpb.DestroySecretVersionRequest{Name: name})
		})
}

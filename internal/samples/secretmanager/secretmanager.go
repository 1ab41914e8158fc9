// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package secretmanager holds the Secret Manager samples. Without a location
// secrets are global and replicated automatically. With one they are
// regional secrets served by the location's endpoint.
package secretmanager

import (
	"context"
	"fmt"
	"hash/crc32"

	sm "cloud.google.com/go/secretmanager/apiv1"

	"github.com/staranto/gcpctl/internal/gcp"
)

// AccessorRole is the role granted and revoked by the IAM samples.
const AccessorRole = "roles/secretmanager.secretAccessor"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// checksum is the CRC32C of data as the API expects it.
func checksum(data []byte) int64 {
	return int64(crc32.Checksum(data, castagnoli))
}

// NewClient returns a client for location, on its regional endpoint when
// location is set.
func NewClient(ctx context.Context, f *gcp.Factory, location string) (*sm.Client, error) {
	opts := f.ClientOptions(f.LocationOptions("secretmanager", location)...)
	c, err := sm.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return c, nil
}

// Location is the project, and optionally the location, secrets live in.
type Location struct {
	Project  string
	Location string
}

func (l Location) regional() bool {
	return l.Location != "" && l.Location != "global"
}

func (l Location) parent() string {
	if l.regional() {
		return fmt.Sprintf("projects/%s/locations/%s", l.Project, l.Location)
	}
	return "projects/" + l.Project
}

func (l Location) secret(id string) string {
	return fmt.Sprintf("%s/secrets/%s", l.parent(), id)
}

func (l Location) version(secretID, version string) string {
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("%s/versions/%s", l.secret(secretID), version)
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package iot holds the Cloud IoT Core device manager samples: registries,
// devices and their credentials, configs, states and commands, gateways and
// registry IAM policies.
//
// The service has been retired. The samples still show the shape of the API.
package iot

import (
	"context"
	"fmt"
	"os"
	"strings"

	iot "cloud.google.com/go/iot/apiv1"
	"cloud.google.com/go/iot/apiv1/iotpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// DefaultLocation is the cloud region registries live in when none is given.
const DefaultLocation = "us-central1"

// NewClient returns a device manager client.
func NewClient(ctx context.Context, f *gcp.Factory) (*iot.DeviceManagerClient, error) {
	c, err := iot.NewDeviceManagerClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create device manager client: %w", err)
	}
	return c, nil
}

// Registry addresses one device registry.
type Registry struct {
	Project  string
	Location string
	ID       string
}

func (r Registry) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", r.Project, r.Location)
}

// Name is the registry's resource name.
func (r Registry) Name() string {
	return fmt.Sprintf("%s/registries/%s", r.parent(), r.ID)
}

func (r Registry) device(id string) string {
	return fmt.Sprintf("%s/devices/%s", r.Name(), id)
}

// ParseKeyFormat maps a key algorithm to the public key format IoT expects.
// ES256 keys are plain PEM public keys and RS256 keys are X.509 certificates.
func ParseKeyFormat(algorithm string) (iotpb.PublicKeyFormat, error) {
	switch strings.ToUpper(algorithm) {
	case "ES256":
		return iotpb.PublicKeyFormat_ES256_PEM, nil
	case "RS256":
		return iotpb.PublicKeyFormat_RSA_X509_PEM, nil
	}
	return iotpb.PublicKeyFormat_UNSPECIFIED_PUBLIC_KEY_FORMAT, fmt.Errorf("unknown key algorithm %q, want ES256 or RS256", algorithm)
}

// credential reads a public key file into a device credential.
func credential(path string, format iotpb.PublicKeyFormat) (*iotpb.DeviceCredential, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return &iotpb.DeviceCredential{
		Credential: &iotpb.DeviceCredential_PublicKey{
			PublicKey: &iotpb.PublicKeyCredential{
				Format: format,
				Key:    string(key),
			},
		},
	}, nil
}

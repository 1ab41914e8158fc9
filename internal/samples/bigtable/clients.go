// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"fmt"

	bt "cloud.google.com/go/bigtable"

	"github.com/staranto/gcpctl/internal/gcp"
)

// NewInstanceAdminClient returns a client for instances, clusters and app
// profiles of the factory's project.
func NewInstanceAdminClient(ctx context.Context, f *gcp.Factory) (*bt.InstanceAdminClient, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	c, err := bt.NewInstanceAdminClient(ctx, project, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance admin client: %w", err)
	}
	return c, nil
}

// NewAdminClient returns a table admin client for instance.
func NewAdminClient(ctx context.Context, f *gcp.Factory, instance string) (*bt.AdminClient, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	c, err := bt.NewAdminClient(ctx, project, instance, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}
	return c, nil
}

// NewClient returns a data client for instance. The SDK's built-in Cloud
// Monitoring export is off; RPC metrics come from the factory instead.
func NewClient(ctx context.Context, f *gcp.Factory, instance string) (*bt.Client, error) {
	project, err := f.Project(ctx)
	if err != nil {
		return nil, err
	}
	cfg := bt.ClientConfig{MetricsProvider: bt.NoopMetricsProvider{}}
	c, err := bt.NewClientWithConfig(ctx, project, instance, cfg, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create data client: %w", err)
	}
	return c, nil
}
